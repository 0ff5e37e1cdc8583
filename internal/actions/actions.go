// Package actions wraps every backend operation behind a typed method that
// returns a result.Result. Callers never see a bare error or a panic.
package actions

import (
	"context"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
	"github.com/coursehub-dev/coursehub/internal/session"
	"github.com/coursehub-dev/coursehub/internal/stores"
)

// Actions is the feature action layer
type Actions struct {
	registry *apiclient.Registry
	session  *session.Store
	stores   *stores.Set
	validate *validator.Validate
	logger   zerolog.Logger

	// refreshMu serializes token refreshes so concurrent 401s share one
	refreshMu sync.Mutex
}

// New creates the action layer over an explicitly constructed registry and stores
func New(registry *apiclient.Registry, sess *session.Store, set *stores.Set, logger zerolog.Logger) *Actions {
	validate := validator.New()

	// Report JSON field names in validation messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Actions{
		registry: registry,
		session:  sess,
		stores:   set,
		validate: validate,
		logger:   logger,
	}
}

// Session exposes the session store for the UI boundary
func (a *Actions) Session() *session.Store {
	return a.session
}

// Stores exposes the feature stores for the UI boundary
func (a *Actions) Stores() *stores.Set {
	return a.stores
}

// do runs one call against a service. A 401 triggers a single token refresh
// and, if it succeeds, a single retry.
func (a *Actions) do(ctx context.Context, service apiclient.ServiceName, call func(*apiclient.Client) error) error {
	tokenUsed := a.session.AccessToken()

	err := a.attempt(service, call)
	if err == nil || !apiclient.IsUnauthorized(err) {
		return err
	}

	if !a.refreshAfterUnauthorized(ctx, tokenUsed) {
		return err
	}

	return a.attempt(service, call)
}

// attempt fetches the client on every call: a 401 may have reset the registry
func (a *Actions) attempt(service apiclient.ServiceName, call func(*apiclient.Client) error) error {
	c, err := a.registry.Client(service)
	if err != nil {
		return err
	}
	return call(c)
}

// refreshAfterUnauthorized reports whether a retry makes sense
func (a *Actions) refreshAfterUnauthorized(ctx context.Context, tokenUsed string) bool {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	// Another call refreshed while we were waiting
	if current := a.session.AccessToken(); current != "" && current != tokenUsed {
		return true
	}

	refreshToken := a.session.RefreshToken()
	if refreshToken == "" {
		return false
	}

	_, applied, err := a.refreshLocked(ctx, refreshToken)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Token refresh failed")
		return false
	}
	return applied
}

// refreshLocked exchanges refreshToken for a new pair. The caller holds
// refreshMu. The session is cleared only when the gateway rejects the refresh
// token; transport and server errors leave it in place. applied is false when
// a sign-out or sign-in landed while the request was in flight.
func (a *Actions) refreshLocked(ctx context.Context, refreshToken string) (pair domain.TokenPair, applied bool, err error) {
	ticket := a.session.Begin()

	pair, err = a.requestRefresh(ctx, refreshToken)
	if err != nil {
		if refreshRejected(err) {
			if _, clearErr := a.session.Commit(ticket, session.Session{}); clearErr != nil {
				a.logger.Warn().Err(clearErr).Msg("Failed to clear session")
			}
		}
		return pair, false, err
	}

	applied, err = a.session.CommitTokens(ticket, refreshToken, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to persist refreshed tokens")
		err = nil
	}
	if !applied {
		a.logger.Debug().Msg("Session changed during refresh, discarding new tokens")
		return pair, false, nil
	}

	a.logger.Debug().Msg("Access token refreshed")
	return pair, true, nil
}

// refreshRejected reports whether the gateway refused the refresh token itself
func refreshRejected(err error) bool {
	switch apiclient.StatusCode(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

func (a *Actions) requestRefresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	var pair domain.TokenPair
	err := a.attempt(apiclient.ServiceAuth, func(c *apiclient.Client) error {
		return c.Post(ctx, "/auth/refresh", map[string]string{"refreshToken": refreshToken}, &pair)
	})
	if err == nil && pair.AccessToken == "" {
		err = result.Errorf("The refresh response did not contain an access token.")
	}
	return pair, err
}

// check validates an input payload
func (a *Actions) check(input any) error {
	return a.validate.Struct(input)
}

// finish converts the outcome of an action into a Result
func finish[T any](a *Actions, action string, data T, err error, message string) result.Result[T] {
	if err != nil {
		a.logger.Warn().Err(err).Str("action", action).Msg("Action failed")
		return result.Fail[T](err)
	}
	return result.OK(data, message)
}

// requireID rejects empty path parameters before they reach the network
func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return result.Errorf("%s is required", field)
	}
	return nil
}

// seg escapes a value used as a path segment
func seg(value string) string {
	return url.PathEscape(value)
}
