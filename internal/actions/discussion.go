package actions

import (
	"context"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
)

// ListMessages returns the chat history of a class
func (a *Actions) ListMessages(ctx context.Context, classID string) result.Result[[]domain.Message] {
	var messages []domain.Message
	if err := requireID("classId", classID); err != nil {
		return finish(a, "list messages", messages, err, "")
	}

	err := a.do(ctx, apiclient.ServiceDiscussion, func(c *apiclient.Client) error {
		return c.Get(ctx, "/classes/"+seg(classID)+"/messages", nil, &messages)
	})
	return finish(a, "list messages", messages, err, "")
}

// SendMessage posts a chat message over REST (for clients without a socket)
func (a *Actions) SendMessage(ctx context.Context, classID string, input domain.MessageInput) result.Result[domain.Message] {
	var message domain.Message
	if err := requireID("classId", classID); err != nil {
		return finish(a, "send message", message, err, "")
	}
	if err := a.check(input); err != nil {
		return finish(a, "send message", message, err, "")
	}

	err := a.do(ctx, apiclient.ServiceDiscussion, func(c *apiclient.Client) error {
		return c.Post(ctx, "/classes/"+seg(classID)+"/messages", input, &message)
	})
	return finish(a, "send message", message, err, "")
}

// ReportMessage flags a chat message and remembers the report locally
func (a *Actions) ReportMessage(ctx context.Context, messageID string, input domain.ReportInput) result.Result[domain.Report] {
	var report domain.Report
	if err := requireID("messageId", messageID); err != nil {
		return finish(a, "report message", report, err, "")
	}
	if err := a.check(input); err != nil {
		return finish(a, "report message", report, err, "")
	}
	if a.stores.Reports.Has(domain.ReportTargetMessage, messageID) {
		return finish(a, "report message", report, result.Errorf("You have already reported this message."), "")
	}

	err := a.do(ctx, apiclient.ServiceDiscussion, func(c *apiclient.Client) error {
		return c.Post(ctx, "/messages/"+seg(messageID)+"/reports", input, &report)
	})
	if err != nil {
		return finish(a, "report message", report, err, "")
	}

	if report.TargetType == "" {
		report.TargetType = domain.ReportTargetMessage
		report.TargetID = messageID
	}
	if err := a.stores.Reports.Add(report); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to persist report")
	}
	return finish(a, "report message", report, nil, "Thanks, the message was reported")
}
