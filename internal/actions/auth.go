package actions

import (
	"context"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
	"github.com/coursehub-dev/coursehub/internal/session"
)

// Login signs in with email and password and syncs the session store
func (a *Actions) Login(ctx context.Context, creds domain.Credentials) result.Result[session.User] {
	if err := a.check(creds); err != nil {
		return finish(a, "login", session.User{}, err, "")
	}

	ticket := a.session.Begin()

	var ext session.ExternalSession
	err := a.attempt(apiclient.ServiceAuth, func(c *apiclient.Client) error {
		return c.Post(ctx, "/auth/login", creds, &ext)
	})
	if apiclient.IsUnauthorized(err) {
		err = result.Errorf("Invalid email or password.")
	}
	if err != nil {
		return finish(a, "login", session.User{}, err, "")
	}
	if ext.AccessToken == "" {
		return finish(a, "login", session.User{}, result.Errorf("The sign-in response did not contain an access token."), "")
	}

	applied, err := a.session.CommitSync(ticket, &ext)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to persist session after login")
	}
	if !applied {
		a.logger.Debug().Msg("Session changed during sign-in, keeping the newer one")
	}

	return finish(a, "login", *session.FromExternal(ext).User, nil, "Signed in successfully")
}

// Refresh exchanges the stored refresh token for a new token pair
func (a *Actions) Refresh(ctx context.Context) result.Result[domain.TokenPair] {
	refreshToken := a.session.RefreshToken()
	if refreshToken == "" {
		return finish(a, "refresh", domain.TokenPair{}, result.Errorf("You are not signed in."), "")
	}

	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	pair, applied, err := a.refreshLocked(ctx, refreshToken)
	if err != nil {
		return finish(a, "refresh", domain.TokenPair{}, err, "")
	}
	if !applied {
		return finish(a, "refresh", domain.TokenPair{}, result.Errorf("Your session changed while it was being refreshed."), "")
	}
	return finish(a, "refresh", pair, nil, "Session refreshed")
}

// Logout revokes the refresh token (best effort) and clears the session
func (a *Actions) Logout(ctx context.Context) result.Result[struct{}] {
	if refreshToken := a.session.RefreshToken(); refreshToken != "" {
		err := a.attempt(apiclient.ServiceAuth, func(c *apiclient.Client) error {
			return c.Post(ctx, "/auth/logout", map[string]string{"refreshToken": refreshToken}, nil)
		})
		if err != nil {
			a.logger.Debug().Err(err).Msg("Remote logout failed, clearing local session anyway")
		}
	}

	err := a.session.Clear()
	return finish(a, "logout", struct{}{}, err, "Signed out")
}

// Me fetches the profile of the signed-in user
func (a *Actions) Me(ctx context.Context) result.Result[session.User] {
	var ext session.ExternalUser
	err := a.do(ctx, apiclient.ServiceAuth, func(c *apiclient.Client) error {
		return c.Get(ctx, "/auth/me", nil, &ext)
	})
	if err != nil {
		return finish(a, "me", session.User{}, err, "")
	}

	user := session.FromExternal(session.ExternalSession{User: ext}).User
	return finish(a, "me", *user, nil, "")
}
