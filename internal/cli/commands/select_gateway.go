package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/cli/gatewayselect"
	"github.com/coursehub-dev/coursehub/internal/cli/userconfig"
)

// NewSelectGatewayCmd creates the select-gateway command
func NewSelectGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-gateway [url-or-alias]",
		Short: "Select the gateway to use for commands",
		Long: `Select the gateway to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ coursehub select-gateway                           # Interactive selection
  $ coursehub select-gateway https://api.coursehub.io  # Select by URL
  $ coursehub select-gateway production                # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectGateway(cmd.OutOrStdout(), urlOrAlias)
		},
	}

	return cmd
}

func runSelectGateway(out io.Writer, urlOrAlias string) error {
	selections, err := userconfig.DefaultStore()
	if err != nil {
		return err
	}

	gateway, err := gatewayselect.NewResolver(selections, "").Select(urlOrAlias)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Selected gateway: %s (%s)\n", gateway.Alias, gateway.URL)
	return nil
}
