package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/chat"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <class-id>",
		Short: "Join the live chat of a class",
		Long: `Join the live chat of a class.

Each line typed on stdin is sent to the room. End input (Ctrl-D) or
interrupt (Ctrl-C) to leave.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, app *App, args []string) error {
			return runChat(ctx, app, args[0], os.Stdin)
		}),
	}
}

func runChat(ctx context.Context, app *App, classID string, in io.Reader) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	conn, err := dialChat(ctx, app, classID)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Fprintf(app.Out, "Joined class %s. Type a message and press enter.\n", classID)

	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-conn.Events():
			if !ok {
				fmt.Fprintln(app.Out, "Disconnected from class chat")
				return nil
			}
			printChatEvent(app.Out, event)

		case line, ok := <-lines:
			if !ok {
				return conn.Close()
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := conn.Send(line); err != nil {
				fmt.Fprintf(app.Out, "! %v\n", err)
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// dialChat joins the room, refreshing the session once if the handshake is rejected
func dialChat(ctx context.Context, app *App, classID string) (*chat.Conn, error) {
	cfg := chat.Config{GatewayURL: app.GatewayURL, HandshakeTimeout: app.Config.Gateway.Timeout}

	conn, err := chat.Dial(ctx, cfg, app.Actions.Session().AccessToken(), classID, app.Logger)
	if apiclient.IsUnauthorized(err) && app.Actions.Refresh(ctx).Success {
		conn, err = chat.Dial(ctx, cfg, app.Actions.Session().AccessToken(), classID, app.Logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to join class chat: %s", result.MessageFor(err))
	}
	return conn, nil
}

func printChatEvent(out io.Writer, event chat.Event) {
	switch event.Name {
	case chat.EventNewMessage:
		msg, err := event.Message()
		if err != nil {
			return
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", msg.CreatedAt.Local().Format("15:04"), msg.SenderName, msg.Text)
	case chat.EventUserJoined, chat.EventUserLeft:
		presence, err := event.Presence()
		if err != nil {
			return
		}
		verb := "joined"
		if event.Name == chat.EventUserLeft {
			verb = "left"
		}
		fmt.Fprintf(out, "* %s %s\n", presence.UserName, verb)
	case chat.EventError:
		failure, err := event.Failure()
		if err != nil {
			return
		}
		fmt.Fprintf(out, "! %s\n", failure.Message)
	}
}

// NewMessagesCmd creates the messages command
func NewMessagesCmd() *cobra.Command {
	var send string

	cmd := &cobra.Command{
		Use:   "messages <class-id>",
		Short: "Show recent class chat messages, or post one",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, app *App, args []string) error {
			if send != "" {
				return runSendMessage(ctx, app, args[0], send)
			}
			return runMessages(ctx, app, args[0])
		}),
	}

	cmd.Flags().StringVar(&send, "send", "", "Post this message instead of listing")

	return cmd
}

func runMessages(ctx context.Context, app *App, classID string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.ListMessages(ctx, classID)
	if err := res.AsError(); err != nil {
		return err
	}

	if len(res.Data) == 0 {
		fmt.Fprintln(app.Out, "No messages yet.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFROM\tSENT\tTEXT")
	fmt.Fprintln(w, "──\t────\t────\t────")
	for _, msg := range res.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", msg.ID, msg.SenderName, formatTime(msg.CreatedAt), msg.Text)
	}
	return w.Flush()
}

func runSendMessage(ctx context.Context, app *App, classID, text string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.SendMessage(ctx, classID, domain.MessageInput{Text: text})
	if err := res.AsError(); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Sent message %s\n", res.Data.ID)
	return nil
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "report <message-id>",
		Short: "Report an inappropriate chat message",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, app *App, args []string) error {
			return runReport(ctx, app, args[0], reason)
		}),
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the message is inappropriate")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func runReport(ctx context.Context, app *App, messageID, reason string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.ReportMessage(ctx, messageID, domain.ReportInput{Reason: reason})
	if err := res.AsError(); err != nil {
		return err
	}

	fmt.Fprintln(app.Out, "✓ Message reported. Thank you.")
	return nil
}
