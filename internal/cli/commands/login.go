package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to CourseHub",
		RunE: withApp(func(ctx context.Context, app *App, args []string) error {
			// Check for environment variables (useful for CI/CD)
			if email == "" {
				email = os.Getenv("COURSEHUB_EMAIL")
			}
			if password == "" {
				password = os.Getenv("COURSEHUB_PASSWORD")
			}

			if email == "" {
				return fmt.Errorf("email is required (use --email flag or COURSEHUB_EMAIL env var)")
			}

			if password == "" {
				if !term.IsTerminal(int(syscall.Stdin)) {
					return fmt.Errorf("password is required in non-interactive mode (use --password flag or COURSEHUB_PASSWORD env var)")
				}
				fmt.Fprint(app.Out, "Password: ")
				bytePassword, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = string(bytePassword)
				fmt.Fprintln(app.Out)
			}

			return runLogin(ctx, app, email, password)
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set COURSEHUB_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set COURSEHUB_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, app *App, email, password string) error {
	fmt.Fprintf(app.Out, "Logging in to %s...\n", app.GatewayURL)

	res := app.Actions.Login(ctx, domain.Credentials{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err := res.AsError(); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(app.Out, "✓ Login successful!")
	fmt.Fprintf(app.Out, "  User: %s (%s)\n", res.Data.FullName, res.Data.Email)
	fmt.Fprintf(app.Out, "  Role: %s\n", res.Data.Role)

	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE:  withApp(runLogout),
	}
}

func runLogout(ctx context.Context, app *App, _ []string) error {
	if err := app.Actions.Logout(ctx).AsError(); err != nil {
		return err
	}
	fmt.Fprintln(app.Out, "✓ Logged out")
	return nil
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE:  withApp(runWhoami),
	}
}

func runWhoami(ctx context.Context, app *App, _ []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.Me(ctx)
	if err := res.AsError(); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "%s (%s)\n", res.Data.FullName, res.Data.Email)
	fmt.Fprintf(app.Out, "  ID:      %s\n", res.Data.ID)
	fmt.Fprintf(app.Out, "  Role:    %s\n", res.Data.Role)
	fmt.Fprintf(app.Out, "  Gateway: %s\n", app.GatewayURL)
	return nil
}
