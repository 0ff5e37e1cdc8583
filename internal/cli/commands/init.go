package commands

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init <gateway-url>",
		Short: "Add a CourseHub gateway to ./coursehub.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			currentDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			return runInit(cmd.OutOrStdout(), currentDir, args[0], alias)
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Alias for the gateway (defaults to production, then gateway-N)")

	return cmd
}

func runInit(out io.Writer, dir, gatewayURL, alias string) error {
	gatewayURL = strings.TrimRight(gatewayURL, "/")
	u, err := url.Parse(gatewayURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid gateway URL '%s', expected http(s)://host[:port]", gatewayURL)
	}

	configPath := filepath.Join(dir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{Gateways: []config.Gateway{}}
		isNewConfig = true
	}

	for _, gw := range cfg.Gateways {
		if gw.URL == gatewayURL {
			fmt.Fprintf(out, "Gateway %s already exists in %s as '%s'\n", gatewayURL, config.ConfigFileName, gw.Alias)
			return nil
		}
	}

	if alias == "" {
		if len(cfg.Gateways) == 0 {
			alias = "production"
		} else {
			alias = fmt.Sprintf("gateway-%d", len(cfg.Gateways)+1)
		}
	}
	if _, err := cfg.GetGatewayByAlias(alias); err == nil {
		return fmt.Errorf("alias '%s' is already used in %s", alias, config.ConfigFileName)
	}

	cfg.Gateways = append(cfg.Gateways, config.Gateway{Alias: alias, URL: gatewayURL})

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./%s with gateway %s (%s)\n", config.ConfigFileName, gatewayURL, alias)
	} else {
		fmt.Fprintf(out, "✓ Added gateway %s (%s) to ./%s\n", gatewayURL, alias, config.ConfigFileName)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  Run 'coursehub login' to authenticate")

	return nil
}
