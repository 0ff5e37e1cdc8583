package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

// NewEnrollCmd creates the enroll command
func NewEnrollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <course-id>",
		Short: "Enroll in a course",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runEnroll),
	}
}

func runEnroll(ctx context.Context, app *App, args []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.Enroll(ctx, domain.EnrollmentInput{CourseID: args[0]})
	if err := res.AsError(); err != nil {
		return err
	}

	enrollment := res.Data
	fmt.Fprintf(app.Out, "✓ Enrollment %s is %s\n", enrollment.ID, enrollment.Status)
	if enrollment.Status == domain.EnrollmentPending {
		fmt.Fprintf(app.Out, "\nComplete your payment with: coursehub pay %s --method card\n", enrollment.ID)
	}
	return nil
}

// NewEnrollmentsCmd creates the enrollments command group
func NewEnrollmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrollments",
		Short: "Manage your enrollments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your enrollments",
		Args:    cobra.NoArgs,
		RunE:    withApp(runEnrollmentsList),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <enrollment-id>",
		Short: "Cancel an enrollment",
		Args:  cobra.ExactArgs(1),
		RunE:  withApp(runEnrollmentCancel),
	})

	return cmd
}

func runEnrollmentsList(ctx context.Context, app *App, _ []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.ListEnrollments(ctx)
	if err := res.AsError(); err != nil {
		return err
	}

	if len(res.Data) == 0 {
		fmt.Fprintln(app.Out, "You are not enrolled in any course.")
		fmt.Fprintln(app.Out, "\nBrowse courses with: coursehub courses ls")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOURSE\tSTATUS\tCREATED AT")
	fmt.Fprintln(w, "──\t──────\t──────\t──────────")
	for _, enrollment := range res.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", enrollment.ID, enrollment.CourseID, enrollment.Status, formatTime(enrollment.CreatedAt))
	}
	return w.Flush()
}

func runEnrollmentCancel(ctx context.Context, app *App, args []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.CancelEnrollment(ctx, args[0])
	if err := res.AsError(); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Enrollment %s is %s\n", res.Data.ID, res.Data.Status)
	return nil
}

// NewPayCmd creates the pay command
func NewPayCmd() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "pay <enrollment-id>",
		Short: "Pay for a pending enrollment",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, app *App, args []string) error {
			return runPay(ctx, app, domain.PaymentInput{EnrollmentID: args[0], Method: method})
		}),
	}

	cmd.Flags().StringVar(&method, "method", "card", "Payment method: card, wallet or bank_transfer")

	return cmd
}

func runPay(ctx context.Context, app *App, input domain.PaymentInput) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	res := app.Actions.CreatePayment(ctx, input)
	if err := res.AsError(); err != nil {
		return err
	}

	payment := res.Data
	fmt.Fprintf(app.Out, "Payment %s: %s %s\n", payment.ID, formatPrice(payment.Amount, payment.Currency), payment.Status)
	if payment.CheckoutURL != "" {
		fmt.Fprintf(app.Out, "Finish checkout at: %s\n", payment.CheckoutURL)
	}
	return nil
}

// NewPaymentsCmd creates the payments command
func NewPaymentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payments [payment-id]",
		Short: "List your payments or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  withApp(runPayments),
	}
}

func runPayments(ctx context.Context, app *App, args []string) error {
	if err := requireLogin(app); err != nil {
		return err
	}

	var payments []domain.Payment
	if len(args) == 1 {
		res := app.Actions.GetPayment(ctx, args[0])
		if err := res.AsError(); err != nil {
			return err
		}
		payments = []domain.Payment{res.Data}
	} else {
		res := app.Actions.ListPayments(ctx)
		if err := res.AsError(); err != nil {
			return err
		}
		payments = res.Data
	}

	if len(payments) == 0 {
		fmt.Fprintln(app.Out, "No payments found.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tENROLLMENT\tAMOUNT\tMETHOD\tSTATUS\tCREATED AT")
	fmt.Fprintln(w, "──\t──────────\t──────\t──────\t──────\t──────────")
	for _, payment := range payments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			payment.ID,
			payment.EnrollmentID,
			formatPrice(payment.Amount, payment.Currency),
			payment.Method,
			payment.Status,
			formatTime(payment.CreatedAt),
		)
	}
	return w.Flush()
}
