package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// NewCoursesCmd creates the courses command group
func NewCoursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "courses",
		Aliases: []string{"course"},
		Short:   "Browse and manage courses",
	}

	cmd.AddCommand(newCoursesListCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "show <course-id>",
		Short: "Show a course",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runCourseShow),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "classes <course-id>",
		Short: "List the scheduled classes of a course",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runCourseClasses),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ratings <course-id>",
		Short: "List the ratings of a course",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runCourseRatings),
	})
	cmd.AddCommand(newCourseCreateCmd())
	cmd.AddCommand(newCourseUpdateCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <course-id>",
		Short: "Delete a course you teach",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runCourseDelete),
	})

	return cmd
}

func newCoursesListCmd() *cobra.Command {
	var query domain.CourseQuery

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List courses in the catalog",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *App, _ []string) error {
			return runCoursesList(ctx, app, query)
		}),
	}

	cmd.Flags().StringVar(&query.Search, "search", "", "Search course titles and descriptions")
	cmd.Flags().StringVar(&query.Category, "category", "", "Only courses in this category")
	cmd.Flags().IntVar(&query.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&query.Limit, "limit", 20, "Courses per page")

	return cmd
}

func runCoursesList(ctx context.Context, app *App, query domain.CourseQuery) error {
	res := app.Actions.ListCourses(ctx, query)
	if err := res.AsError(); err != nil {
		return err
	}

	if len(res.Data.Items) == 0 {
		fmt.Fprintln(app.Out, "No courses found.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tPRICE\tRATING")
	fmt.Fprintln(w, "──\t─────\t────────\t─────\t──────")

	for _, course := range res.Data.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f (%d)\n",
			course.ID,
			course.Title,
			orDash(course.Category),
			formatPrice(course.Price, course.Currency),
			course.Rating,
			course.RatingCount,
		)
	}
	w.Flush()

	fmt.Fprintf(app.Out, "\nPage %d, %d of %d courses\n", res.Data.Page, len(res.Data.Items), res.Data.Total)
	return nil
}

func runCourseShow(ctx context.Context, app *App, args []string) error {
	res := app.Actions.GetCourse(ctx, args[0])
	if err := res.AsError(); err != nil {
		return err
	}

	course := res.Data
	fmt.Fprintf(app.Out, "%s\n\n", course.Title)
	if course.Description != "" {
		fmt.Fprintf(app.Out, "%s\n\n", course.Description)
	}
	fmt.Fprintf(app.Out, "  ID:       %s\n", course.ID)
	fmt.Fprintf(app.Out, "  Category: %s\n", orDash(course.Category))
	fmt.Fprintf(app.Out, "  Price:    %s\n", formatPrice(course.Price, course.Currency))
	fmt.Fprintf(app.Out, "  Rating:   %.1f (%d ratings)\n", course.Rating, course.RatingCount)
	return nil
}

func runCourseClasses(ctx context.Context, app *App, args []string) error {
	res := app.Actions.ListClasses(ctx, args[0])
	if err := res.AsError(); err != nil {
		return err
	}

	if len(res.Data) == 0 {
		fmt.Fprintln(app.Out, "No classes scheduled.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTARTS\tENDS")
	fmt.Fprintln(w, "──\t─────\t──────\t────")
	for _, class := range res.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", class.ID, class.Title, formatTime(class.StartsAt), formatTime(class.EndsAt))
	}
	return w.Flush()
}

func runCourseRatings(ctx context.Context, app *App, args []string) error {
	res := app.Actions.ListRatings(ctx, args[0])
	if err := res.AsError(); err != nil {
		return err
	}

	if len(res.Data) == 0 {
		fmt.Fprintln(app.Out, "No ratings yet.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tCOMMENT\tDATE")
	fmt.Fprintln(w, "─────\t───────\t────")
	for _, rating := range res.Data {
		fmt.Fprintf(w, "%d/5\t%s\t%s\n", rating.Score, orDash(rating.Comment), formatTime(rating.CreatedAt))
	}
	return w.Flush()
}

func courseInputFlags(cmd *cobra.Command, input *domain.CourseInput) {
	cmd.Flags().StringVar(&input.Title, "title", "", "Course title")
	cmd.Flags().StringVar(&input.Description, "description", "", "Course description")
	cmd.Flags().StringVar(&input.Category, "category", "", "Category")
	cmd.Flags().Int64Var(&input.Price, "price", 0, "Price in minor units (0 for free)")
	cmd.Flags().StringVar(&input.Currency, "currency", "USD", "ISO currency code")
	cmd.Flags().StringVar(&input.ThumbnailURL, "thumbnail", "", "Thumbnail URL")
}

func newCourseCreateCmd() *cobra.Command {
	var input domain.CourseInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a course (instructors only)",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, app *App, _ []string) error {
			return runCourseCreate(ctx, app, input)
		}),
	}
	courseInputFlags(cmd, &input)

	return cmd
}

func runCourseCreate(ctx context.Context, app *App, input domain.CourseInput) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.CreateCourse(ctx, input)
	if err := res.AsError(); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Created course %s (%s)\n", res.Data.Title, res.Data.ID)
	return nil
}

func newCourseUpdateCmd() *cobra.Command {
	var input domain.CourseInput

	cmd := &cobra.Command{
		Use:   "update <course-id>",
		Short: "Replace the details of a course you teach",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, app *App, args []string) error {
			return runCourseUpdate(ctx, app, args[0], input)
		}),
	}
	courseInputFlags(cmd, &input)

	return cmd
}

func runCourseUpdate(ctx context.Context, app *App, courseID string, input domain.CourseInput) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.UpdateCourse(ctx, courseID, input)
	if err := res.AsError(); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Updated course %s\n", res.Data.Title)
	return nil
}

func runCourseDelete(ctx context.Context, app *App, args []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	if err := app.Actions.DeleteCourse(ctx, args[0]).AsError(); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Deleted course %s\n", args[0])
	return nil
}

// NewRateCmd creates the rate command
func NewRateCmd() *cobra.Command {
	var input domain.RatingInput

	cmd := &cobra.Command{
		Use:   "rate <course-id>",
		Short: "Rate a course you are enrolled in",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, app *App, args []string) error {
			return runRate(ctx, app, args[0], input)
		}),
	}

	cmd.Flags().IntVar(&input.Score, "score", 0, "Score from 1 to 5")
	cmd.Flags().StringVar(&input.Comment, "comment", "", "Optional review")
	_ = cmd.MarkFlagRequired("score")

	return cmd
}

func runRate(ctx context.Context, app *App, courseID string, input domain.RatingInput) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.RateCourse(ctx, courseID, input)
	if err := res.AsError(); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Rated %d/5\n", res.Data.Score)
	return nil
}
