package devgateway

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

// User is a platform account
type User struct {
	BaseModel
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
	Role         string `gorm:"not null;default:student"`
	AvatarURL    string
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// RefreshToken is an opaque, revocable refresh token
type RefreshToken struct {
	BaseModel
	Token     string `gorm:"uniqueIndex;not null"`
	UserID    string `gorm:"index;not null"`
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Course is a catalog entry
type Course struct {
	BaseModel
	Title        string `gorm:"not null"`
	Description  string
	Category     string `gorm:"index"`
	Price        int64
	Currency     string `gorm:"not null;default:USD"`
	ThumbnailURL string
	InstructorID string `gorm:"index"`
}

// Class is a scheduled session of a course
type Class struct {
	BaseModel
	CourseID   string `gorm:"index;not null"`
	Title      string
	StartsAt   time.Time
	EndsAt     time.Time
	MeetingURL string
}

// SyllabusItem is one entry of a course syllabus
type SyllabusItem struct {
	BaseModel
	CourseID string `gorm:"index;not null"`
	Position int
	Title    string
	Kind     string
	Content  string
	TestID   string
}

// Completion records a finished syllabus item
type Completion struct {
	BaseModel
	UserID   string `gorm:"uniqueIndex:idx_completion;not null"`
	ItemID   string `gorm:"uniqueIndex:idx_completion;not null"`
	CourseID string `gorm:"index;not null"`
}

// Rating is one user's score for a course
type Rating struct {
	BaseModel
	CourseID string `gorm:"uniqueIndex:idx_rating;not null"`
	UserID   string `gorm:"uniqueIndex:idx_rating;not null"`
	Score    int
	Comment  string
}

// Enrollment links a user to a course
type Enrollment struct {
	BaseModel
	CourseID  string `gorm:"index;not null"`
	UserID    string `gorm:"index;not null"`
	Status    string `gorm:"not null"`
	PaymentID string
}

// Payment is a checkout for an enrollment
type Payment struct {
	BaseModel
	EnrollmentID string `gorm:"index;not null"`
	UserID       string `gorm:"index;not null"`
	Amount       int64
	Currency     string
	Method       string
	Status       string
}

// Test is a graded assessment
type Test struct {
	BaseModel
	CourseID    string `gorm:"index"`
	Title       string
	DurationMin int
	PassPercent int
	Questions   []Question `gorm:"foreignKey:TestID"`
}

// Question is a multiple-choice question. Options are newline separated.
type Question struct {
	BaseModel
	TestID       string `gorm:"index;not null"`
	Position     int
	Prompt       string
	Options      string
	CorrectIndex int
}

// TestResult is a graded submission
type TestResult struct {
	BaseModel
	TestID   string `gorm:"index;not null"`
	UserID   string `gorm:"index;not null"`
	Score    int
	MaxScore int
	Passed   bool
}

// Attendance is a class check-in
type Attendance struct {
	BaseModel
	ClassID string `gorm:"uniqueIndex:idx_attendance;not null"`
	UserID  string `gorm:"uniqueIndex:idx_attendance;not null"`
}

// ChatMessage is a class chat message
type ChatMessage struct {
	BaseModel
	ClassID    string `gorm:"index;not null"`
	SenderID   string
	SenderName string
	Text       string
}

// Report is flagged content
type Report struct {
	BaseModel
	UserID     string `gorm:"index;not null"`
	TargetType string
	TargetID   string
	Reason     string
}

// Notification is an in-app notification
type Notification struct {
	BaseModel
	UserID string `gorm:"index;not null"`
	Title  string
	Body   string
	Link   string
	Read   bool `gorm:"not null;default:false"`
}

// File is an uploaded blob
type File struct {
	BaseModel
	UserID      string `gorm:"index;not null"`
	Name        string
	Folder      string
	ContentType string
	Size        int64
	Data        []byte
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &RefreshToken{}, &Course{}, &Class{}, &SyllabusItem{}, &Completion{},
		&Rating{}, &Enrollment{}, &Payment{}, &Test{}, &Question{}, &TestResult{},
		&Attendance{}, &ChatMessage{}, &Report{}, &Notification{}, &File{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

func (c Course) toDomain(avg float64, count int) domain.Course {
	return domain.Course{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		InstructorID: c.InstructorID,
		Category:     c.Category,
		Price:        c.Price,
		Currency:     c.Currency,
		ThumbnailURL: c.ThumbnailURL,
		Rating:       avg,
		RatingCount:  count,
		CreatedAt:    c.CreatedAt,
	}
}

func (c Class) toDomain() domain.Class {
	return domain.Class{
		ID:         c.ID,
		CourseID:   c.CourseID,
		Title:      c.Title,
		StartsAt:   c.StartsAt,
		EndsAt:     c.EndsAt,
		MeetingURL: c.MeetingURL,
	}
}

func (s SyllabusItem) toDomain(withContent bool) domain.SyllabusItem {
	item := domain.SyllabusItem{
		ID:       s.ID,
		CourseID: s.CourseID,
		Position: s.Position,
		Title:    s.Title,
		Kind:     s.Kind,
		TestID:   s.TestID,
	}
	if withContent {
		item.Content = s.Content
	}
	return item
}

func (r Rating) toDomain() domain.Rating {
	return domain.Rating{
		ID:        r.ID,
		CourseID:  r.CourseID,
		UserID:    r.UserID,
		Score:     r.Score,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func (e Enrollment) toDomain() domain.Enrollment {
	return domain.Enrollment{
		ID:        e.ID,
		CourseID:  e.CourseID,
		UserID:    e.UserID,
		Status:    e.Status,
		PaymentID: e.PaymentID,
		CreatedAt: e.CreatedAt,
	}
}

func (p Payment) toDomain() domain.Payment {
	return domain.Payment{
		ID:           p.ID,
		EnrollmentID: p.EnrollmentID,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Method:       p.Method,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
	}
}

func (t Test) toDomain() domain.Test {
	questions := make([]domain.Question, 0, len(t.Questions))
	for _, q := range t.Questions {
		questions = append(questions, domain.Question{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: strings.Split(q.Options, "\n"),
		})
	}
	return domain.Test{
		ID:          t.ID,
		CourseID:    t.CourseID,
		Title:       t.Title,
		DurationMin: t.DurationMin,
		Questions:   questions,
	}
}

func (r TestResult) toDomain() domain.TestResult {
	return domain.TestResult{
		ID:          r.ID,
		TestID:      r.TestID,
		UserID:      r.UserID,
		Score:       r.Score,
		MaxScore:    r.MaxScore,
		Passed:      r.Passed,
		SubmittedAt: r.CreatedAt,
	}
}

func (a Attendance) toDomain() domain.AttendanceRecord {
	return domain.AttendanceRecord{
		ID:        a.ID,
		ClassID:   a.ClassID,
		UserID:    a.UserID,
		CheckedIn: a.CreatedAt,
	}
}

func (m ChatMessage) toDomain() domain.Message {
	return domain.Message{
		ID:         m.ID,
		ClassID:    m.ClassID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Text:       m.Text,
		CreatedAt:  m.CreatedAt,
	}
}

func (r Report) toDomain() domain.Report {
	return domain.Report{
		ID:         r.ID,
		TargetType: r.TargetType,
		TargetID:   r.TargetID,
		Reason:     r.Reason,
		CreatedAt:  r.CreatedAt,
	}
}

func (n Notification) toDomain() domain.Notification {
	return domain.Notification{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
