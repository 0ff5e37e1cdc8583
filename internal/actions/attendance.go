package actions

import (
	"context"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
)

// CheckIn records the signed-in user's attendance for a class
func (a *Actions) CheckIn(ctx context.Context, classID string) result.Result[domain.AttendanceRecord] {
	var record domain.AttendanceRecord
	if err := requireID("classId", classID); err != nil {
		return finish(a, "check in", record, err, "")
	}

	err := a.do(ctx, apiclient.ServiceAttendance, func(c *apiclient.Client) error {
		return c.Post(ctx, "/classes/"+seg(classID)+"/check-in", nil, &record)
	})
	return finish(a, "check in", record, err, "Checked in")
}

// ListAttendance lists attendance records of a class
func (a *Actions) ListAttendance(ctx context.Context, classID string) result.Result[[]domain.AttendanceRecord] {
	var records []domain.AttendanceRecord
	if err := requireID("classId", classID); err != nil {
		return finish(a, "list attendance", records, err, "")
	}

	err := a.do(ctx, apiclient.ServiceAttendance, func(c *apiclient.Client) error {
		return c.Get(ctx, "/classes/"+seg(classID)+"/attendance", nil, &records)
	})
	return finish(a, "list attendance", records, err, "")
}
