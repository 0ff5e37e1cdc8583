package stores

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/storage"
	"github.com/coursehub-dev/coursehub/internal/versioned"
)

// Progress tracks syllabus completion per course
type Progress struct {
	p *persisted[map[string]domain.CourseProgress]
}

// NewProgress loads the store from storage
func NewProgress(st storage.Storage, logger zerolog.Logger) (*Progress, error) {
	p, err := newPersisted(storage.KeyProgress, map[string]domain.CourseProgress{}, st, logger)
	if err != nil {
		return nil, err
	}
	return &Progress{p: p}, nil
}

// Begin issues a ticket before the completion request is sent
func (pr *Progress) Begin() versioned.Ticket {
	return pr.p.begin()
}

// Apply records the backend's view of a course's progress
func (pr *Progress) Apply(t versioned.Ticket, progress domain.CourseProgress) (bool, error) {
	progress.CompletedItems = slices.Clone(progress.CompletedItems)
	return pr.p.commit(t, func(v *map[string]domain.CourseProgress) {
		if *v == nil {
			*v = map[string]domain.CourseProgress{}
		}
		(*v)[progress.CourseID] = progress
	})
}

// Get returns the progress of a course (zero value if never started)
func (pr *Progress) Get(courseID string) domain.CourseProgress {
	var out domain.CourseProgress
	pr.p.read(func(v map[string]domain.CourseProgress) {
		out = v[courseID]
		out.CompletedItems = slices.Clone(out.CompletedItems)
	})
	if out.CourseID == "" {
		out.CourseID = courseID
	}
	return out
}

// IsCompleted reports whether an item of a course has been completed
func (pr *Progress) IsCompleted(courseID, itemID string) bool {
	return slices.Contains(pr.Get(courseID).CompletedItems, itemID)
}
