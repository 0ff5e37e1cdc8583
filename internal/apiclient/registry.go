package apiclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// AuthPolicy decides what happens when the stored access token cannot be decoded
type AuthPolicy string

const (
	// AuthBestEffort sends the request without credentials
	AuthBestEffort AuthPolicy = "best-effort"
	// AuthStrict aborts the request with ErrTokenDecode
	AuthStrict AuthPolicy = "strict"
)

// ParseAuthPolicy converts a configuration value into an AuthPolicy
func ParseAuthPolicy(value string) (AuthPolicy, error) {
	switch AuthPolicy(strings.ToLower(value)) {
	case "", AuthBestEffort:
		return AuthBestEffort, nil
	case AuthStrict:
		return AuthStrict, nil
	default:
		return "", fmt.Errorf("invalid auth policy '%s', must be one of: best-effort, strict", value)
	}
}

// TokenSource is read before every request to obtain the current access token
type TokenSource interface {
	AccessToken() string
}

// Config holds the registry configuration
type Config struct {
	GatewayURL string
	Timeout    time.Duration
	AuthPolicy AuthPolicy
	// Transport is the underlying round tripper; http.DefaultTransport when nil
	Transport http.RoundTripper
}

// Registry lazily creates one Client per service and drops all of them
// whenever any request comes back 401.
type Registry struct {
	mu      sync.Mutex
	clients map[ServiceName]*Client

	gatewayURL string
	timeout    time.Duration
	policy     AuthPolicy
	base       http.RoundTripper
	tokens     TokenSource
	logger     zerolog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(cfg Config, tokens TokenSource, logger zerolog.Logger) (*Registry, error) {
	gatewayURL := strings.TrimRight(cfg.GatewayURL, "/")
	u, err := url.Parse(gatewayURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gateway URL '%s'", cfg.GatewayURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	policy := cfg.AuthPolicy
	if policy == "" {
		policy = AuthBestEffort
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Registry{
		clients:    make(map[ServiceName]*Client),
		gatewayURL: gatewayURL,
		timeout:    timeout,
		policy:     policy,
		base:       base,
		tokens:     tokens,
		logger:     logger,
	}, nil
}

// GatewayURL returns the gateway root all services are reached through
func (r *Registry) GatewayURL() string {
	return r.gatewayURL
}

// Client returns the client for the named service, constructing it on first use
func (r *Registry) Client(name ServiceName) (*Client, error) {
	path, err := PathFor(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[name]; ok {
		return c, nil
	}

	c := &Client{
		service: name,
		baseURL: r.gatewayURL + path,
		httpClient: &http.Client{
			Timeout: r.timeout,
			Transport: &authTransport{
				base:     r.base,
				tokens:   r.tokens,
				policy:   r.policy,
				onUnauth: r.Reset,
				service:  name,
				logger:   r.logger,
			},
		},
		logger: r.logger,
	}
	r.clients[name] = c

	r.logger.Debug().Str("service", string(name)).Str("base_url", c.baseURL).Msg("Created service client")

	return c, nil
}

// Reset drops every cached client so the next Client call builds a fresh one
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.clients) == 0 {
		return
	}
	r.clients = make(map[ServiceName]*Client)
	r.logger.Info().Msg("Cleared service client registry")
}

// Len returns the number of cached clients
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.clients)
}
