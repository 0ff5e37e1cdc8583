package apiclient

import (
	"fmt"
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Headers attached to every outgoing request
const (
	HeaderAuthorization = "Authorization"
	HeaderUserID        = "X-User-Id"
	HeaderRequestID     = "X-Request-ID"
)

const bearerPrefix = "Bearer "

// authTransport attaches credentials read fresh from the session on every
// request and clears the registry when a response is 401.
type authTransport struct {
	base     http.RoundTripper
	tokens   TokenSource
	policy   AuthPolicy
	onUnauth func()
	service  ServiceName
	logger   zerolog.Logger
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())

	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, ulid.Make().String())
	}

	if err := t.attachAuth(req); err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.logger.Warn().
			Str("service", string(t.service)).
			Str("path", req.URL.Path).
			Str("request_id", req.Header.Get(HeaderRequestID)).
			Msg("Request unauthorized, resetting service clients")
		t.onUnauth()
	}

	return resp, nil
}

// attachAuth reads the token at send time. The value captured here is what
// the request carries even if the session changes before the response.
func (t *authTransport) attachAuth(req *http.Request) error {
	if t.tokens == nil {
		return nil
	}

	token := t.tokens.AccessToken()
	if token == "" {
		return nil
	}

	subject, err := subjectFromToken(token)
	if err != nil {
		if t.policy == AuthStrict {
			return fmt.Errorf("%w: %v", ErrTokenDecode, err)
		}
		t.logger.Warn().
			Err(err).
			Str("service", string(t.service)).
			Msg("Could not decode access token, sending request unauthenticated")
		return nil
	}

	req.Header.Set(HeaderAuthorization, bearerPrefix+token)
	if subject != "" {
		req.Header.Set(HeaderUserID, subject)
	}
	return nil
}
