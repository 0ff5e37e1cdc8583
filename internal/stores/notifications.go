package stores

import (
	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/storage"
	"github.com/coursehub-dev/coursehub/internal/versioned"
)

// Notifications keeps the user's in-app notifications
type Notifications struct {
	p *persisted[[]domain.Notification]
}

// NewNotifications loads the store from storage
func NewNotifications(st storage.Storage, logger zerolog.Logger) (*Notifications, error) {
	p, err := newPersisted(storage.KeyNotifications, []domain.Notification{}, st, logger)
	if err != nil {
		return nil, err
	}
	return &Notifications{p: p}, nil
}

// Begin issues a ticket before fetching the list
func (n *Notifications) Begin() versioned.Ticket {
	return n.p.begin()
}

// Replace swaps in a freshly fetched list unless a newer write was applied
func (n *Notifications) Replace(t versioned.Ticket, list []domain.Notification) (bool, error) {
	fresh := append([]domain.Notification(nil), list...)
	return n.p.commit(t, func(v *[]domain.Notification) {
		*v = fresh
	})
}

// MarkRead flags one notification as read
func (n *Notifications) MarkRead(id string) error {
	return n.p.write(func(v *[]domain.Notification) {
		for i := range *v {
			if (*v)[i].ID == id {
				(*v)[i].Read = true
			}
		}
	})
}

// MarkAllRead flags every notification as read
func (n *Notifications) MarkAllRead() error {
	return n.p.write(func(v *[]domain.Notification) {
		for i := range *v {
			(*v)[i].Read = true
		}
	})
}

// List returns a copy of the notifications, newest first as delivered
func (n *Notifications) List() []domain.Notification {
	var out []domain.Notification
	n.p.read(func(v []domain.Notification) {
		out = append([]domain.Notification(nil), v...)
	})
	return out
}

// UnreadCount returns the number of unread notifications
func (n *Notifications) UnreadCount() int {
	count := 0
	n.p.read(func(v []domain.Notification) {
		for _, item := range v {
			if !item.Read {
				count++
			}
		}
	})
	return count
}
