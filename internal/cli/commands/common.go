package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/actions"
	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/cli/gatewayselect"
	"github.com/coursehub-dev/coursehub/internal/cli/userconfig"
	"github.com/coursehub-dev/coursehub/internal/config"
	"github.com/coursehub-dev/coursehub/internal/logger"
	"github.com/coursehub-dev/coursehub/internal/session"
	"github.com/coursehub-dev/coursehub/internal/storage"
	"github.com/coursehub-dev/coursehub/internal/stores"
)

// App is everything a command needs to talk to the platform
type App struct {
	Actions    *actions.Actions
	GatewayURL string
	Config     *config.Config
	Logger     zerolog.Logger
	Out        io.Writer

	closer io.Closer
}

// Close releases the storage backend
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// withApp opens the app for the duration of a command
func withApp(run func(ctx context.Context, app *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		return run(cmd.Context(), app, args)
	}
}

func openApp(cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	var alias string
	if flag := cmd.Flag("gateway"); flag != nil {
		alias = flag.Value.String()
	}

	gatewayURL, err := resolveGatewayURL(cfg, alias)
	if err != nil {
		return nil, err
	}

	return newApp(cfg, gatewayURL, cmd.OutOrStdout(), logger.GetLogger())
}

// resolveGatewayURL prefers the project's coursehub.yaml and falls back to COURSEHUB_GATEWAY_URL
func resolveGatewayURL(cfg *config.Config, alias string) (string, error) {
	selections, err := userconfig.DefaultStore()
	if err != nil {
		return "", err
	}
	return gatewayselect.NewResolver(selections, cfg.Gateway.URL).Resolve(alias)
}

// newApp builds the storage, stores, client registry and action layer
func newApp(cfg *config.Config, gatewayURL string, out io.Writer, log zerolog.Logger) (*App, error) {
	policy, err := apiclient.ParseAuthPolicy(cfg.Gateway.AuthPolicy)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Backend == config.StorageSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	st, err := storage.Open(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	app := &App{
		GatewayURL: gatewayURL,
		Config:     cfg,
		Logger:     log,
		Out:        out,
	}
	if closer, ok := st.(io.Closer); ok {
		app.closer = closer
	}

	sess, err := session.NewStore(st, log)
	if err != nil {
		app.Close()
		return nil, err
	}

	set, err := stores.Open(st, log)
	if err != nil {
		app.Close()
		return nil, err
	}

	registry, err := apiclient.NewRegistry(apiclient.Config{
		GatewayURL: gatewayURL,
		Timeout:    cfg.Gateway.Timeout,
		AuthPolicy: policy,
	}, sess, log)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Actions = actions.New(registry, sess, set, log)
	return app, nil
}

// requireLogin fails early when there is no stored session
func requireLogin(app *App) error {
	if !app.Actions.Session().Current().IsAuthenticated() {
		return errors.New("not logged in. Run 'coursehub login' first")
	}
	return nil
}

func formatPrice(amount int64, currency string) string {
	if amount == 0 {
		return "Free"
	}
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, currency)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
