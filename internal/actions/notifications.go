package actions

import (
	"context"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
)

// ListNotifications fetches notifications and replaces the local store,
// unless a newer write (e.g. a mark-as-read) landed while the request was in flight.
func (a *Actions) ListNotifications(ctx context.Context) result.Result[[]domain.Notification] {
	ticket := a.stores.Notifications.Begin()

	var list []domain.Notification
	err := a.do(ctx, apiclient.ServiceNotification, func(c *apiclient.Client) error {
		return c.Get(ctx, "/notifications", nil, &list)
	})
	if err != nil {
		return finish(a, "list notifications", list, err, "")
	}

	applied, err := a.stores.Notifications.Replace(ticket, list)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to persist notifications")
	}
	if !applied {
		a.logger.Debug().Msg("Discarded stale notifications response")
		list = a.stores.Notifications.List()
	}
	return finish(a, "list notifications", list, nil, "")
}

// MarkNotificationRead marks one notification as read
func (a *Actions) MarkNotificationRead(ctx context.Context, notificationID string) result.Result[struct{}] {
	if err := requireID("notificationId", notificationID); err != nil {
		return finish(a, "mark notification read", struct{}{}, err, "")
	}

	err := a.do(ctx, apiclient.ServiceNotification, func(c *apiclient.Client) error {
		return c.Patch(ctx, "/notifications/"+seg(notificationID)+"/read", nil, nil)
	})
	if err == nil {
		if storeErr := a.stores.Notifications.MarkRead(notificationID); storeErr != nil {
			a.logger.Warn().Err(storeErr).Msg("Failed to persist notifications")
		}
	}
	return finish(a, "mark notification read", struct{}{}, err, "")
}

// MarkAllNotificationsRead marks every notification as read
func (a *Actions) MarkAllNotificationsRead(ctx context.Context) result.Result[struct{}] {
	err := a.do(ctx, apiclient.ServiceNotification, func(c *apiclient.Client) error {
		return c.Patch(ctx, "/notifications/read-all", nil, nil)
	})
	if err == nil {
		if storeErr := a.stores.Notifications.MarkAllRead(); storeErr != nil {
			a.logger.Warn().Err(storeErr).Msg("Failed to persist notifications")
		}
	}
	return finish(a, "mark all notifications read", struct{}{}, err, "All notifications marked as read")
}
