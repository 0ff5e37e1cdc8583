package devgateway

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Demo accounts created on an empty database
const (
	DemoEmail           = "demo@coursehub.dev"
	DemoInstructorEmail = "instructor@coursehub.dev"
	DemoPassword        = "coursehub"
)

// Seed fills an empty database with demo users, courses and a test
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(DemoPassword)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		instructor := &User{Email: DemoInstructorEmail, PasswordHash: hash, Name: "Grace Hopper", Role: RoleInstructor}
		student := &User{Email: DemoEmail, PasswordHash: hash, Name: "Ada Lovelace", Role: RoleStudent}
		if err := tx.Create(instructor).Error; err != nil {
			return fmt.Errorf("failed to seed instructor: %w", err)
		}
		if err := tx.Create(student).Error; err != nil {
			return fmt.Errorf("failed to seed student: %w", err)
		}

		fundamentals := &Course{
			Title:        "Go Fundamentals",
			Description:  "Types, interfaces, goroutines and the standard library.",
			Category:     "programming",
			Price:        0,
			Currency:     "USD",
			InstructorID: instructor.ID,
		}
		distributed := &Course{
			Title:        "Distributed Systems",
			Description:  "Consensus, replication and failure handling in practice.",
			Category:     "systems",
			Price:        4900,
			Currency:     "USD",
			InstructorID: instructor.ID,
		}
		if err := tx.Create([]*Course{fundamentals, distributed}).Error; err != nil {
			return fmt.Errorf("failed to seed courses: %w", err)
		}

		quiz := &Test{
			CourseID:    fundamentals.ID,
			Title:       "Fundamentals quiz",
			DurationMin: 15,
			PassPercent: 50,
			Questions: []Question{
				{Position: 1, Prompt: "Which keyword starts a goroutine?", Options: strings.Join([]string{"go", "async", "spawn"}, "\n"), CorrectIndex: 0},
				{Position: 2, Prompt: "What does a nil map read return?", Options: strings.Join([]string{"a panic", "the zero value"}, "\n"), CorrectIndex: 1},
			},
		}
		if err := tx.Create(quiz).Error; err != nil {
			return fmt.Errorf("failed to seed test: %w", err)
		}

		items := []*SyllabusItem{
			{CourseID: fundamentals.ID, Position: 1, Title: "Hello, Go", Kind: "lesson", Content: "package main\n\nfunc main() { println(\"hello\") }"},
			{CourseID: fundamentals.ID, Position: 2, Title: "Effective Go", Kind: "reading", Content: "Read https://go.dev/doc/effective_go"},
			{CourseID: fundamentals.ID, Position: 3, Title: "Fundamentals quiz", Kind: "test", TestID: quiz.ID},
			{CourseID: distributed.ID, Position: 1, Title: "Time, clocks and ordering", Kind: "lesson", Content: "Lamport clocks and happens-before."},
			{CourseID: distributed.ID, Position: 2, Title: "Raft", Kind: "reading", Content: "Read the Raft paper."},
		}
		if err := tx.Create(items).Error; err != nil {
			return fmt.Errorf("failed to seed syllabus: %w", err)
		}

		start := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
		classes := []*Class{
			{CourseID: fundamentals.ID, Title: "Live Q&A", StartsAt: start, EndsAt: start.Add(time.Hour), MeetingURL: "https://meet.coursehub.dev/go-qa"},
			{CourseID: distributed.ID, Title: "Raft walkthrough", StartsAt: start.Add(48 * time.Hour), EndsAt: start.Add(50 * time.Hour)},
		}
		if err := tx.Create(classes).Error; err != nil {
			return fmt.Errorf("failed to seed classes: %w", err)
		}

		welcome := &Notification{UserID: student.ID, Title: "Welcome to CourseHub", Body: "Browse the catalog and enroll in your first course."}
		if err := tx.Create(welcome).Error; err != nil {
			return fmt.Errorf("failed to seed notifications: %w", err)
		}

		return nil
	})
}
