package gatewayselect

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/coursehub-dev/coursehub/internal/cli/config"
	"github.com/coursehub-dev/coursehub/internal/cli/userconfig"
)

// ErrNoGateway is returned when nothing names a gateway to talk to
var ErrNoGateway = errors.New("no gateway configured: run 'coursehub init' or set COURSEHUB_GATEWAY_URL")

// Resolver picks the gateway a command talks to
type Resolver struct {
	// Selections remembers the chosen gateway per project
	Selections *userconfig.Store
	// FallbackURL is used when no coursehub.yaml is found (COURSEHUB_GATEWAY_URL)
	FallbackURL string
	// Dir is where the coursehub.yaml search starts; empty means the working directory
	Dir string
	// Prompt asks the user to pick when the project lists several gateways
	Prompt func(*config.Config) (*config.Gateway, error)
	// Warnings receives non-fatal problems such as a failed save
	Warnings io.Writer
}

// NewResolver creates a resolver with the interactive prompt
func NewResolver(selections *userconfig.Store, fallbackURL string) *Resolver {
	return &Resolver{
		Selections:  selections,
		FallbackURL: fallbackURL,
		Prompt:      PromptGatewaySelection,
		Warnings:    os.Stderr,
	}
}

// Resolve returns the gateway URL based on the following priority:
// 1. If gatewayAlias is provided, use that gateway (a bare URL is accepted
// when there is no coursehub.yaml)
// 2. If the user selected a gateway for this project, use that
// 3. If only one gateway in project config, use that
// 4. If several, prompt the user to select one
// 5. Without a coursehub.yaml, use FallbackURL
func (r *Resolver) Resolve(gatewayAlias string) (string, error) {
	projectPath, err := r.findProject()
	if err != nil {
		return r.resolveWithoutProject(gatewayAlias)
	}

	projectConfig, err := config.Load(projectPath)
	if err != nil {
		return "", err
	}

	gateway, err := r.ResolveGateway(projectPath, projectConfig, gatewayAlias)
	if err != nil {
		return "", err
	}
	return gateway.URL, nil
}

// ResolveGateway applies steps 1 to 4 of Resolve to an already loaded project
func (r *Resolver) ResolveGateway(projectPath string, projectConfig *config.Config, gatewayAlias string) (*config.Gateway, error) {
	// Priority 1: Use gateway alias if provided
	if gatewayAlias != "" {
		return GetGatewayByURLOrAlias(projectConfig, gatewayAlias)
	}

	if len(projectConfig.Gateways) == 0 {
		return nil, fmt.Errorf("no gateways configured in %s", projectPath)
	}

	// Priority 2: Use selected gateway from user config
	selectedURL, err := r.Selections.Selected(projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		gateway, err := getGatewayByURL(projectConfig, selectedURL)
		if err == nil {
			return gateway, nil
		}
		// Selected gateway no longer exists in project config, forget it and continue
		r.remember(projectPath, "")
	}

	// Priority 3: If only one gateway, use it automatically
	if len(projectConfig.Gateways) == 1 {
		gateway := &projectConfig.Gateways[0]
		r.remember(projectPath, gateway.URL)
		return gateway, nil
	}

	// Priority 4: Prompt user to select a gateway
	if r.Prompt == nil {
		return nil, fmt.Errorf("%s lists %d gateways: pass --gateway or run 'coursehub select-gateway'", projectPath, len(projectConfig.Gateways))
	}
	gateway, err := r.Prompt(projectConfig)
	if err != nil {
		return nil, err
	}
	r.remember(projectPath, gateway.URL)

	return gateway, nil
}

// Select looks up urlOrAlias (or prompts when empty) in the project and remembers it
func (r *Resolver) Select(urlOrAlias string) (*config.Gateway, error) {
	projectPath, err := r.findProject()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'coursehub init' to create a configuration file", err)
	}
	projectConfig, err := config.Load(projectPath)
	if err != nil {
		return nil, err
	}

	var gateway *config.Gateway
	switch {
	case urlOrAlias != "":
		gateway, err = GetGatewayByURLOrAlias(projectConfig, urlOrAlias)
	case r.Prompt != nil:
		gateway, err = r.Prompt(projectConfig)
	default:
		err = fmt.Errorf("a gateway URL or alias is required")
	}
	if err != nil {
		return nil, err
	}

	if err := r.Selections.Select(projectPath, gateway.URL); err != nil {
		return nil, fmt.Errorf("failed to save selected gateway: %w", err)
	}
	return gateway, nil
}

func (r *Resolver) resolveWithoutProject(gatewayAlias string) (string, error) {
	if gatewayAlias != "" {
		if isGatewayURL(gatewayAlias) {
			return strings.TrimRight(gatewayAlias, "/"), nil
		}
		return "", fmt.Errorf("gateway alias '%s' needs a %s\nRun 'coursehub init' to create a configuration file", gatewayAlias, config.ConfigFileName)
	}
	if r.FallbackURL == "" {
		return "", ErrNoGateway
	}
	return strings.TrimRight(r.FallbackURL, "/"), nil
}

func (r *Resolver) findProject() (string, error) {
	if r.Dir != "" {
		return config.FindConfigFileFrom(r.Dir)
	}
	return config.FindConfigFile()
}

// remember saves the selection; a failed save is not fatal
func (r *Resolver) remember(projectPath, gatewayURL string) {
	if err := r.Selections.Select(projectPath, gatewayURL); err != nil && r.Warnings != nil {
		fmt.Fprintf(r.Warnings, "Warning: failed to save selected gateway: %v\n", err)
	}
}

func isGatewayURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// PromptGatewaySelection shows an interactive prompt for the user to select a gateway
func PromptGatewaySelection(projectConfig *config.Config) (*config.Gateway, error) {
	if len(projectConfig.Gateways) == 0 {
		return nil, fmt.Errorf("no gateways configured in %s", config.ConfigFileName)
	}

	type gatewayOption struct {
		Label   string
		Gateway *config.Gateway
	}

	options := make([]gatewayOption, len(projectConfig.Gateways))
	for i := range projectConfig.Gateways {
		gateway := &projectConfig.Gateways[i]
		options[i] = gatewayOption{
			Label:   fmt.Sprintf("%s (%s)", gateway.Alias, gateway.URL),
			Gateway: gateway,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a gateway",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("gateway selection cancelled: %w", err)
	}

	return options[index].Gateway, nil
}

// getGatewayByURL finds a gateway in the config by its URL
func getGatewayByURL(cfg *config.Config, gatewayURL string) (*config.Gateway, error) {
	for i := range cfg.Gateways {
		if cfg.Gateways[i].URL == gatewayURL {
			return &cfg.Gateways[i], nil
		}
	}
	return nil, fmt.Errorf("gateway with URL '%s' not found in project config", gatewayURL)
}

// GetGatewayByURLOrAlias finds a gateway by URL or alias
func GetGatewayByURLOrAlias(cfg *config.Config, urlOrAlias string) (*config.Gateway, error) {
	if gateway, err := getGatewayByURL(cfg, strings.TrimRight(urlOrAlias, "/")); err == nil {
		return gateway, nil
	}

	for i := range cfg.Gateways {
		if cfg.Gateways[i].Alias == urlOrAlias {
			return &cfg.Gateways[i], nil
		}
	}

	return nil, fmt.Errorf("gateway with URL or alias '%s' not found", urlOrAlias)
}
