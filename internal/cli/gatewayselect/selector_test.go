package gatewayselect

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub-dev/coursehub/internal/cli/config"
	"github.com/coursehub-dev/coursehub/internal/cli/userconfig"
)

func projectConfig() *config.Config {
	return &config.Config{
		Gateways: []config.Gateway{
			{Alias: "production", URL: "https://api.coursehub.io"},
			{Alias: "local", URL: "http://localhost:8080"},
		},
	}
}

// newResolver returns a resolver rooted in a fresh project directory
func newResolver(t *testing.T, project *config.Config) (*Resolver, string) {
	t.Helper()
	dir := t.TempDir()
	r := &Resolver{
		Selections:  userconfig.NewStore(filepath.Join(t.TempDir(), "config.json")),
		FallbackURL: "http://env-gateway:9000/",
		Dir:         dir,
		Warnings:    &bytes.Buffer{},
	}
	if project == nil {
		return r, ""
	}
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, config.Save(path, project))
	return r, path
}

func TestResolve_AliasWins(t *testing.T) {
	r, path := newResolver(t, projectConfig())
	require.NoError(t, r.Selections.Select(path, "https://api.coursehub.io"))

	url, err := r.Resolve("local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", url)
}

func TestResolve_UsesSelectedForThisProject(t *testing.T) {
	r, path := newResolver(t, projectConfig())
	require.NoError(t, r.Selections.Select(path, "http://localhost:8080"))
	require.NoError(t, r.Selections.Select("/elsewhere/coursehub.yaml", "https://api.coursehub.io"))

	url, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", url)
}

func TestResolve_FindsProjectInParentDirectory(t *testing.T) {
	r, path := newResolver(t, &config.Config{Gateways: []config.Gateway{{Alias: "only", URL: "http://only:8080"}}})
	nested := filepath.Join(filepath.Dir(path), "week-1", "notes")
	require.NoError(t, os.MkdirAll(nested, 0755))
	r.Dir = nested

	url, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "http://only:8080", url)
}

func TestResolve_SingleGatewayIsRemembered(t *testing.T) {
	r, path := newResolver(t, &config.Config{Gateways: []config.Gateway{{Alias: "only", URL: "http://only:8080"}}})
	// A stale selection is replaced
	require.NoError(t, r.Selections.Select(path, "https://gone.example.com"))

	url, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "http://only:8080", url)

	selected, err := r.Selections.Selected(path)
	require.NoError(t, err)
	assert.Equal(t, "http://only:8080", selected)
}

func TestResolve_PromptsWhenSeveral(t *testing.T) {
	r, path := newResolver(t, projectConfig())
	prompts := 0
	r.Prompt = func(cfg *config.Config) (*config.Gateway, error) {
		prompts++
		return &cfg.Gateways[1], nil
	}

	url, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", url)

	// The choice is remembered for the next command
	url, err = r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", url)
	assert.Equal(t, 1, prompts)

	selected, err := r.Selections.Selected(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", selected)
}

func TestResolve_SeveralWithoutPromptFails(t *testing.T) {
	r, _ := newResolver(t, projectConfig())

	_, err := r.Resolve("")
	assert.ErrorContains(t, err, "pass --gateway")
}

func TestResolve_CancelledPrompt(t *testing.T) {
	r, path := newResolver(t, projectConfig())
	r.Prompt = func(*config.Config) (*config.Gateway, error) {
		return nil, errors.New("gateway selection cancelled: ^C")
	}

	_, err := r.Resolve("")
	assert.EqualError(t, err, "gateway selection cancelled: ^C")

	selected, err := r.Selections.Selected(path)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestResolve_WithoutProject(t *testing.T) {
	tests := []struct {
		name     string
		alias    string
		fallback string
		wantURL  string
		wantErr  string
	}{
		{name: "fallback", fallback: "http://env-gateway:9000/", wantURL: "http://env-gateway:9000"},
		{name: "explicit url", alias: "https://staging.coursehub.io/", fallback: "http://env-gateway:9000", wantURL: "https://staging.coursehub.io"},
		{name: "alias needs project", alias: "staging", fallback: "http://env-gateway:9000", wantErr: "gateway alias 'staging' needs a coursehub.yaml"},
		{name: "nothing configured", wantErr: ErrNoGateway.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newResolver(t, nil)
			r.FallbackURL = tt.fallback

			url, err := r.Resolve(tt.alias)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, url)
		})
	}
}

func TestResolve_InvalidProjectConfig(t *testing.T) {
	r, _ := newResolver(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, config.ConfigFileName), []byte("gateways:\n  - alias: prod\n    url: ftp://nope\n"), 0644))

	_, err := r.Resolve("")
	assert.ErrorContains(t, err, "invalid coursehub.yaml")
}

func TestSelect_RemembersByURLOrAlias(t *testing.T) {
	r, path := newResolver(t, projectConfig())

	gw, err := r.Select("production")
	require.NoError(t, err)
	assert.Equal(t, "https://api.coursehub.io", gw.URL)

	selected, err := r.Selections.Selected(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.coursehub.io", selected)

	_, err = r.Select("staging")
	assert.EqualError(t, err, "gateway with URL or alias 'staging' not found")
}

func TestGetGatewayByURLOrAlias(t *testing.T) {
	cfg := projectConfig()

	gw, err := GetGatewayByURLOrAlias(cfg, "https://api.coursehub.io/")
	require.NoError(t, err)
	assert.Equal(t, "production", gw.Alias)

	gw, err = GetGatewayByURLOrAlias(cfg, "local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", gw.URL)

	_, err = GetGatewayByURLOrAlias(cfg, "staging")
	assert.EqualError(t, err, "gateway with URL or alias 'staging' not found")
}

func TestPromptGatewaySelection_Empty(t *testing.T) {
	_, err := PromptGatewaySelection(&config.Config{})
	assert.EqualError(t, err, "no gateways configured in coursehub.yaml")
}
