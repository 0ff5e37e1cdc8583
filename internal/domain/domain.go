// Package domain holds the payload shapes exchanged with the backend services.
package domain

import "time"

// Course represents a course in the catalog
type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	InstructorID string    `json:"instructorId"`
	Category     string    `json:"category,omitempty"`
	Price        int64     `json:"price"` // minor units
	Currency     string    `json:"currency"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Rating       float64   `json:"rating"`
	RatingCount  int       `json:"ratingCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CourseInput is the payload for creating or updating a course
type CourseInput struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	Category     string `json:"category,omitempty"`
	Price        int64  `json:"price" validate:"gte=0"`
	Currency     string `json:"currency" validate:"required,len=3"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty" validate:"omitempty,url"`
}

// CourseQuery filters the course catalog
type CourseQuery struct {
	Search   string
	Category string
	Page     int
	Limit    int
}

// Page is a paginated list
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Class is a scheduled live session of a course
type Class struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"startsAt"`
	EndsAt     time.Time `json:"endsAt"`
	MeetingURL string    `json:"meetingUrl,omitempty"`
}

// SyllabusItem is one lesson, reading or test in a course syllabus
type SyllabusItem struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	Position int    `json:"position"`
	Title    string `json:"title"`
	Kind     string `json:"kind"` // lesson, reading, test
	Content  string `json:"content,omitempty"`
	TestID   string `json:"testId,omitempty"`
}

// CourseProgress is the completion state returned after finishing an item
type CourseProgress struct {
	CourseID       string   `json:"courseId"`
	CompletedItems []string `json:"completedItems"`
	Percent        float64  `json:"percent"`
}

// Rating is a learner's review of a course
type Rating struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	UserID    string    `json:"userId"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RatingInput is the payload for rating a course
type RatingInput struct {
	Score   int    `json:"score" validate:"gte=1,lte=5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

// Enrollment statuses
const (
	EnrollmentPending   = "pending"
	EnrollmentActive    = "active"
	EnrollmentCancelled = "cancelled"
)

// Enrollment links a learner to a course
type Enrollment struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	PaymentID string    `json:"paymentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EnrollmentInput is the payload for enrolling in a course
type EnrollmentInput struct {
	CourseID string `json:"courseId" validate:"required"`
}

// Payment statuses
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

// Payment is a checkout for a course enrollment
type Payment struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollmentId"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	Method       string    `json:"method"`
	Status       string    `json:"status"`
	CheckoutURL  string    `json:"checkoutUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PaymentInput is the payload for creating a payment
type PaymentInput struct {
	EnrollmentID string `json:"enrollmentId" validate:"required"`
	Method       string `json:"method" validate:"required,oneof=card wallet bank_transfer"`
}

// Question is a single test question
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// Test is an assessment attached to a syllabus item
type Test struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"courseId"`
	Title       string     `json:"title"`
	DurationMin int        `json:"durationMin"`
	Questions   []Question `json:"questions"`
}

// Answer picks an option for a question
type Answer struct {
	QuestionID  string `json:"questionId" validate:"required"`
	OptionIndex int    `json:"optionIndex" validate:"gte=0"`
}

// Submission is the payload for submitting test answers
type Submission struct {
	Answers []Answer `json:"answers" validate:"required,min=1,dive"`
}

// TestResult is the graded outcome of a submission
type TestResult struct {
	ID          string    `json:"id"`
	TestID      string    `json:"testId"`
	UserID      string    `json:"userId"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"maxScore"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// AttendanceRecord is one learner checking into a class
type AttendanceRecord struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"classId"`
	UserID    string    `json:"userId"`
	CheckedIn time.Time `json:"checkedInAt"`
}

// Message is a class chat message
type Message struct {
	ID         string    `json:"id"`
	ClassID    string    `json:"classId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MessageInput is the payload for posting a chat message over REST
type MessageInput struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// Notification is an in-app notification
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Report targets
const (
	ReportTargetMessage = "message"
	ReportTargetCourse  = "course"
)

// Report is content flagged by the user
type Report struct {
	ID         string    `json:"id"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ReportInput is the payload for reporting content
type ReportInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// FileInfo describes an uploaded file
type FileInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// Credentials is the payload for signing in
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is returned by the refresh endpoint
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
