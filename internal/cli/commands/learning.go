package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// NewCheckInCmd creates the checkin command
func NewCheckInCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <class-id>",
		Short: "Check in to a live class",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runCheckIn),
	}
}

func runCheckIn(ctx context.Context, app *App, args []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.CheckIn(ctx, args[0])
	if err := res.AsError(); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Checked in at %s\n", formatTime(res.Data.CheckedIn))
	return nil
}

// NewAttendanceCmd creates the attendance command
func NewAttendanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attendance <class-id>",
		Short: "List who checked in to a class",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runAttendance),
	}
}

func runAttendance(ctx context.Context, app *App, args []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.ListAttendance(ctx, args[0])
	if err := res.AsError(); err != nil {
		return err
	}

	if len(res.Data) == 0 {
		fmt.Fprintln(app.Out, "Nobody has checked in yet.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tCHECKED IN")
	fmt.Fprintln(w, "────\t──────────")
	for _, record := range res.Data {
		fmt.Fprintf(w, "%s\t%s\n", record.UserID, formatTime(record.CheckedIn))
	}
	return w.Flush()
}

// NewSubmitTestCmd creates the submit-test command
func NewSubmitTestCmd() *cobra.Command {
	var answers []string

	cmd := &cobra.Command{
		Use:   "submit-test <test-id>",
		Short: "Answer a test and submit it for grading",
		Long: `Answer a test and submit it for grading.

Without --answer flags every question is asked interactively.

Examples:
  $ coursehub submit-test 01J...                 # Interactive
  $ coursehub submit-test 01J... --answer 2,1    # Option numbers in question order`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, app *App, args []string) error {
			picker := promptAnswer
			if len(answers) > 0 {
				fixed, err := parseAnswers(answers)
				if err != nil {
					return err
				}
				picker = fixedAnswers(fixed)
			}
			return runSubmitTest(ctx, app, args[0], picker)
		}),
	}

	cmd.Flags().StringSliceVar(&answers, "answer", nil, "Option numbers (1-based) in question order")

	return cmd
}

// answerPicker returns the chosen option index (0-based) for the i-th question
type answerPicker func(i int, q domain.Question) (int, error)

func promptAnswer(i int, q domain.Question) (int, error) {
	prompt := promptui.Select{
		Label: fmt.Sprintf("%d. %s", i+1, q.Prompt),
		Items: q.Options,
		Size:  len(q.Options),
	}
	index, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("test cancelled: %w", err)
	}
	return index, nil
}

func fixedAnswers(options []int) answerPicker {
	return func(i int, q domain.Question) (int, error) {
		if i >= len(options) {
			return 0, fmt.Errorf("no answer given for question %d", i+1)
		}
		if options[i] < 0 || options[i] >= len(q.Options) {
			return 0, fmt.Errorf("question %d has %d options, got %d", i+1, len(q.Options), options[i]+1)
		}
		return options[i], nil
	}
}

func parseAnswers(raw []string) ([]int, error) {
	options := make([]int, 0, len(raw))
	for _, value := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid answer '%s', expected an option number starting at 1", value)
		}
		options = append(options, n-1)
	}
	return options, nil
}

func runSubmitTest(ctx context.Context, app *App, testID string, pick answerPicker) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	testRes := app.Actions.GetTest(ctx, testID)
	if err := testRes.AsError(); err != nil {
		return err
	}

	test := testRes.Data
	fmt.Fprintf(app.Out, "%s (%d questions, %d min)\n\n", test.Title, len(test.Questions), test.DurationMin)

	submission := domain.Submission{Answers: make([]domain.Answer, 0, len(test.Questions))}
	for i, question := range test.Questions {
		option, err := pick(i, question)
		if err != nil {
			return err
		}
		submission.Answers = append(submission.Answers, domain.Answer{
			QuestionID:  question.ID,
			OptionIndex: option,
		})
	}

	res := app.Actions.SubmitTestAnswers(ctx, testID, submission)
	if err := res.AsError(); err != nil {
		return err
	}

	printTestResult(app, res.Data)
	return nil
}

// NewTestResultCmd creates the test-result command
func NewTestResultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-result <test-id>",
		Short: "Show your latest result for a test",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runTestResult),
	}
}

func runTestResult(ctx context.Context, app *App, args []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.GetTestResult(ctx, args[0])
	if err := res.AsError(); err != nil {
		return err
	}

	printTestResult(app, res.Data)
	return nil
}

func printTestResult(app *App, result domain.TestResult) {
	verdict := "✗ Not passed"
	if result.Passed {
		verdict = "✓ Passed"
	}
	fmt.Fprintf(app.Out, "%s: %d/%d (submitted %s)\n", verdict, result.Score, result.MaxScore, formatTime(result.SubmittedAt))
}
