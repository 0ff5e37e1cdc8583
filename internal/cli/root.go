package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "coursehub",
	Short: "CourseHub - Online learning from the terminal",
	Long: `CourseHub CLI - Browse courses, follow syllabi, take tests and join live classes.

Commands talk to the CourseHub API gateway configured in ./coursehub.yaml
(see 'coursehub init') or COURSEHUB_GATEWAY_URL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("gateway", "", "Gateway alias or URL from coursehub.yaml")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coursehub version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectGatewayCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewCoursesCmd())
	rootCmd.AddCommand(commands.NewSyllabusCmd())
	rootCmd.AddCommand(commands.NewRateCmd())
	rootCmd.AddCommand(commands.NewEnrollCmd())
	rootCmd.AddCommand(commands.NewEnrollmentsCmd())
	rootCmd.AddCommand(commands.NewPayCmd())
	rootCmd.AddCommand(commands.NewPaymentsCmd())
	rootCmd.AddCommand(commands.NewCheckInCmd())
	rootCmd.AddCommand(commands.NewAttendanceCmd())
	rootCmd.AddCommand(commands.NewSubmitTestCmd())
	rootCmd.AddCommand(commands.NewTestResultCmd())
	rootCmd.AddCommand(commands.NewNotificationsCmd())
	rootCmd.AddCommand(commands.NewChatCmd())
	rootCmd.AddCommand(commands.NewMessagesCmd())
	rootCmd.AddCommand(commands.NewReportCmd())
	rootCmd.AddCommand(commands.NewUploadCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
