package actions

import (
	"context"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
)

// Enroll creates an enrollment for the signed-in user
func (a *Actions) Enroll(ctx context.Context, input domain.EnrollmentInput) result.Result[domain.Enrollment] {
	var enrollment domain.Enrollment
	if err := a.check(input); err != nil {
		return finish(a, "enroll", enrollment, err, "")
	}

	err := a.do(ctx, apiclient.ServiceEnrollment, func(c *apiclient.Client) error {
		return c.Post(ctx, "/enrollments", input, &enrollment)
	})
	return finish(a, "enroll", enrollment, err, "Enrollment created")
}

// ListEnrollments lists the signed-in user's enrollments
func (a *Actions) ListEnrollments(ctx context.Context) result.Result[[]domain.Enrollment] {
	var enrollments []domain.Enrollment
	err := a.do(ctx, apiclient.ServiceEnrollment, func(c *apiclient.Client) error {
		return c.Get(ctx, "/enrollments/me", nil, &enrollments)
	})
	return finish(a, "list enrollments", enrollments, err, "")
}

// CancelEnrollment cancels an enrollment
func (a *Actions) CancelEnrollment(ctx context.Context, enrollmentID string) result.Result[domain.Enrollment] {
	var enrollment domain.Enrollment
	if err := requireID("enrollmentId", enrollmentID); err != nil {
		return finish(a, "cancel enrollment", enrollment, err, "")
	}

	err := a.do(ctx, apiclient.ServiceEnrollment, func(c *apiclient.Client) error {
		return c.Post(ctx, "/enrollments/"+seg(enrollmentID)+"/cancel", nil, &enrollment)
	})
	return finish(a, "cancel enrollment", enrollment, err, "Enrollment cancelled")
}
