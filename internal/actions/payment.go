package actions

import (
	"context"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
)

// CreatePayment starts a checkout for a pending enrollment
func (a *Actions) CreatePayment(ctx context.Context, input domain.PaymentInput) result.Result[domain.Payment] {
	var payment domain.Payment
	if err := a.check(input); err != nil {
		return finish(a, "create payment", payment, err, "")
	}

	err := a.do(ctx, apiclient.ServicePayment, func(c *apiclient.Client) error {
		return c.Post(ctx, "/payments", input, &payment)
	})
	return finish(a, "create payment", payment, err, "Payment created")
}

// GetPayment fetches a payment and its status
func (a *Actions) GetPayment(ctx context.Context, paymentID string) result.Result[domain.Payment] {
	var payment domain.Payment
	if err := requireID("paymentId", paymentID); err != nil {
		return finish(a, "get payment", payment, err, "")
	}

	err := a.do(ctx, apiclient.ServicePayment, func(c *apiclient.Client) error {
		return c.Get(ctx, "/payments/"+seg(paymentID), nil, &payment)
	})
	return finish(a, "get payment", payment, err, "")
}

// ListPayments lists the signed-in user's payments
func (a *Actions) ListPayments(ctx context.Context) result.Result[[]domain.Payment] {
	var payments []domain.Payment
	err := a.do(ctx, apiclient.ServicePayment, func(c *apiclient.Client) error {
		return c.Get(ctx, "/payments", nil, &payments)
	})
	return finish(a, "list payments", payments, err, "")
}
