package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewUploadCmd creates the upload command
func NewUploadCmd() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file to CourseHub storage",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, app *App, args []string) error {
			return runUpload(ctx, app, args[0], folder)
		}),
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Destination folder")

	return cmd
}

func runUpload(ctx context.Context, app *App, path, folder string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	res := app.Actions.UploadFile(ctx, filepath.Base(path), f, folder)
	if err := res.AsError(); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Uploaded %s (%d bytes)\n", res.Data.Name, res.Data.Size)
	fmt.Fprintf(app.Out, "  URL: %s\n", res.Data.URL)
	return nil
}
