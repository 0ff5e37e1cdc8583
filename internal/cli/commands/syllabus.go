package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewSyllabusCmd creates the syllabus command group
func NewSyllabusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "syllabus",
		Short: "Follow a course syllabus",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls <course-id>",
		Aliases: []string{"list"},
		Short:   "List syllabus items with your progress",
		Args:    cobra.ExactArgs(1),
		RunE:    withApp(runSyllabusList),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <course-id> <item-id>",
		Short: "Show a syllabus item",
		Args:  cobra.ExactArgs(2),
		RunE:  withApp(runSyllabusShow),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "complete <course-id> <item-id>",
		Short: "Mark a syllabus item as completed",
		Args:  cobra.ExactArgs(2),
		RunE:  withApp(runSyllabusComplete),
	})

	return cmd
}

func runSyllabusList(ctx context.Context, app *App, args []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	courseID := args[0]
	res := app.Actions.ListSyllabus(ctx, courseID)
	if err := res.AsError(); err != nil {
		return err
	}

	if len(res.Data) == 0 {
		fmt.Fprintln(app.Out, "This course has no syllabus yet.")
		return nil
	}

	progress := app.Actions.Stores().Progress

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tKIND\tTITLE\tDONE")
	fmt.Fprintln(w, "─\t──\t────\t─────\t────")
	for _, item := range res.Data {
		done := ""
		if progress.IsCompleted(courseID, item.ID) {
			done = "✓"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", item.Position, item.ID, item.Kind, item.Title, done)
	}
	w.Flush()

	fmt.Fprintf(app.Out, "\nProgress: %.1f%%\n", progress.Get(courseID).Percent)
	return nil
}

func runSyllabusShow(ctx context.Context, app *App, args []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.GetSyllabusItem(ctx, args[0], args[1])
	if err := res.AsError(); err != nil {
		return err
	}

	item := res.Data
	fmt.Fprintf(app.Out, "%d. %s [%s]\n", item.Position, item.Title, item.Kind)
	if item.Content != "" {
		fmt.Fprintf(app.Out, "\n%s\n", item.Content)
	}
	if item.TestID != "" {
		fmt.Fprintf(app.Out, "\nTake the test with: coursehub submit-test %s\n", item.TestID)
	}
	return nil
}

func runSyllabusComplete(ctx context.Context, app *App, args []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.CompleteSyllabusItem(ctx, args[0], args[1])
	if err := res.AsError(); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Completed. Course progress: %.1f%%\n", res.Data.Percent)
	return nil
}
