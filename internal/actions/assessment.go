package actions

import (
	"context"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
)

// GetTest fetches a test and its questions
func (a *Actions) GetTest(ctx context.Context, testID string) result.Result[domain.Test] {
	var test domain.Test
	if err := requireID("testId", testID); err != nil {
		return finish(a, "get test", test, err, "")
	}

	err := a.do(ctx, apiclient.ServiceAssessment, func(c *apiclient.Client) error {
		return c.Get(ctx, "/tests/"+seg(testID), nil, &test)
	})
	return finish(a, "get test", test, err, "")
}

// SubmitTestAnswers submits answers and returns the graded result
func (a *Actions) SubmitTestAnswers(ctx context.Context, testID string, submission domain.Submission) result.Result[domain.TestResult] {
	var graded domain.TestResult
	if err := requireID("testId", testID); err != nil {
		return finish(a, "submit test", graded, err, "")
	}
	if err := a.check(submission); err != nil {
		return finish(a, "submit test", graded, err, "")
	}

	err := a.do(ctx, apiclient.ServiceAssessment, func(c *apiclient.Client) error {
		return c.Post(ctx, "/tests/"+seg(testID)+"/submissions", submission, &graded)
	})
	return finish(a, "submit test", graded, err, "Answers submitted")
}

// GetTestResult fetches the latest graded result of a test
func (a *Actions) GetTestResult(ctx context.Context, testID string) result.Result[domain.TestResult] {
	var graded domain.TestResult
	if err := requireID("testId", testID); err != nil {
		return finish(a, "get test result", graded, err, "")
	}

	err := a.do(ctx, apiclient.ServiceAssessment, func(c *apiclient.Client) error {
		return c.Get(ctx, "/tests/"+seg(testID)+"/result", nil, &graded)
	})
	return finish(a, "get test result", graded, err, "")
}
