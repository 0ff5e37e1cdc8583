package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// NewNotificationsCmd creates the notifications command group
func NewNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Read your notifications",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List notifications",
		Args:    cobra.NoArgs,
		RunE:    withApp(runNotificationsList),
	})
	cmd.AddCommand(newNotificationsReadCmd())
	cmd.AddCommand(newNotificationsWatchCmd())

	return cmd
}

func runNotificationsList(ctx context.Context, app *App, _ []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.ListNotifications(ctx)
	if err := res.AsError(); err != nil {
		return err
	}

	if len(res.Data) == 0 {
		fmt.Fprintln(app.Out, "No notifications.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\t \tTITLE\tRECEIVED")
	fmt.Fprintln(w, "──\t \t─────\t────────")
	for _, n := range res.Data {
		unread := " "
		if !n.Read {
			unread = "●"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, unread, n.Title, formatTime(n.CreatedAt))
	}
	w.Flush()

	fmt.Fprintf(app.Out, "\n%d unread\n", app.Actions.Stores().Notifications.UnreadCount())
	return nil
}

func newNotificationsReadCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [notification-id]",
		Short: "Mark a notification (or all of them) as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, app *App, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			return runNotificationsRead(ctx, app, id, all)
		}),
	}

	cmd.Flags().BoolVar(&all, "all", false, "Mark every notification as read")

	return cmd
}

func runNotificationsRead(ctx context.Context, app *App, id string, all bool) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	if all {
		if err := app.Actions.MarkAllNotificationsRead(ctx).AsError(); err != nil {
			return err
		}
		fmt.Fprintln(app.Out, "✓ All notifications marked as read")
		return nil
	}

	if id == "" {
		return fmt.Errorf("pass a notification id or --all")
	}

	if err := app.Actions.MarkNotificationRead(ctx, id).AsError(); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "✓ Notification %s marked as read\n", id)
	return nil
}

func newNotificationsWatchCmd() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new notifications until interrupted",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *App, _ []string) error {
			if err := requireLogin(app); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runNotificationsWatch(ctx, app, schedule)
		}),
	}

	cmd.Flags().StringVar(&schedule, "schedule", "@every 1m", "Cron schedule for polling")

	return cmd
}

// notificationWatcher prints notifications it has not printed before
type notificationWatcher struct {
	app  *App
	seen map[string]bool
}

func newNotificationWatcher(app *App) *notificationWatcher {
	return &notificationWatcher{app: app, seen: make(map[string]bool)}
}

// poll fetches notifications and returns the unread ones not seen on a previous poll
func (w *notificationWatcher) poll(ctx context.Context) ([]domain.Notification, error) {
	res := w.app.Actions.ListNotifications(ctx)
	if err := res.AsError(); err != nil {
		return nil, err
	}

	var fresh []domain.Notification
	for _, n := range res.Data {
		if n.Read || w.seen[n.ID] {
			continue
		}
		w.seen[n.ID] = true
		fresh = append(fresh, n)
	}
	return fresh, nil
}

func (w *notificationWatcher) print(list []domain.Notification) {
	for _, n := range list {
		fmt.Fprintf(w.app.Out, "● %s: %s\n", n.Title, n.Body)
	}
}

func runNotificationsWatch(ctx context.Context, app *App, schedule string) error {
	watcher := newNotificationWatcher(app)

	// Slow polls are skipped rather than overlapped
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		fresh, err := watcher.poll(ctx)
		if err != nil {
			app.Logger.Warn().Err(err).Msg("Failed to poll notifications")
			return
		}
		watcher.print(fresh)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", schedule, err)
	}

	// Show what is already waiting before the first tick
	fresh, err := watcher.poll(ctx)
	if err != nil {
		return err
	}
	watcher.print(fresh)

	fmt.Fprintf(app.Out, "Watching for notifications (%s). Press Ctrl-C to stop.\n", schedule)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}
