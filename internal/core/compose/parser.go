package compose

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"github.com/docker/go-connections/nat"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parsed Types
// =============================================================================

// ParsedSpec summarizes a manifest after it was loaded by compose-go.
// Services are sorted by name.
type ParsedSpec struct {
	Services     []ParsedService `json:"services"`
	Networks     []string        `json:"networks,omitempty"`
	Placeholders []string        `json:"placeholders,omitempty"`
}

// ParsedService is the part of a loaded service this tool reports on.
type ParsedService struct {
	Name          string            `json:"name"`
	Image         string            `json:"image"`
	ContainerName string            `json:"container_name,omitempty"`
	NetworkMode   string            `json:"network_mode,omitempty"`
	Networks      []string          `json:"networks,omitempty"`
	Ports         []ParsedPort      `json:"ports,omitempty"`
	Labels        map[string]string `json:"labels,omitempty"`
}

// ParsedPort is a normalized port mapping.
type ParsedPort struct {
	Target    uint32 `json:"target"`
	Published uint32 `json:"published,omitempty"`
	Protocol  string `json:"protocol,omitempty"`
}

// =============================================================================
// Parser Functions
// =============================================================================

// ParseComposeSpec loads a rendered manifest through compose-go and
// summarizes it.
//
// Interpolation is skipped: the manifest intentionally keeps ${VAR} and
// {$VAR} placeholders for docker compose and Caddy to resolve at deploy
// time. Env files are not read.
func ParseComposeSpec(yamlContent string) (*ParsedSpec, error) {
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &dict); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}
	if dict == nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	if err := validateShortPorts(dict); err != nil {
		return nil, err
	}

	project, err := loadComposeSpec(yamlContent, dict)
	if err != nil {
		return nil, err
	}
	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	spec := &ParsedSpec{
		Services:     make([]ParsedService, 0, len(project.Services)),
		Placeholders: ExtractPlaceholders(yamlContent),
	}
	for _, name := range sortedKeys(project.Services) {
		converted, err := convertService(project.Services[name])
		if err != nil {
			return nil, err
		}
		spec.Services = append(spec.Services, converted)
	}
	for name := range project.Networks {
		spec.Networks = append(spec.Networks, name)
	}
	sort.Strings(spec.Networks)

	return spec, nil
}

// loadComposeSpec loads a compose document using compose-go.
func loadComposeSpec(yamlContent string, dict map[string]interface{}) (*types.Project, error) {
	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Filename: "docker-compose.yml",
				Content:  []byte(yamlContent),
				Config:   dict,
			},
		},
		Environment: map[string]string{},
	}, func(opts *loader.Options) {
		opts.SetProjectName("homelab", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = true
		opts.SkipNormalization = true
		opts.SkipResolveEnvironment = true
		opts.SkipExtends = true
		opts.SkipInclude = true
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "image") && strings.Contains(errStr, "build") {
			return nil, NewParseError("", "service must have image or build", ErrServiceNoImage)
		}
		return nil, NewParseError("", errStr, ErrInvalid)
	}
	return project, nil
}

// convertService converts a compose-go service to a ParsedService.
func convertService(svc types.ServiceConfig) (ParsedService, error) {
	service := ParsedService{
		Name:          svc.Name,
		Image:         svc.Image,
		ContainerName: svc.ContainerName,
		NetworkMode:   svc.NetworkMode,
		Labels:        make(map[string]string, len(svc.Labels)),
	}

	for i, p := range svc.Ports {
		field := fmt.Sprintf("services.%s.ports[%d]", svc.Name, i)
		if p.Target == 0 || p.Target > 65535 {
			return ParsedService{}, NewParseError(field, "target port must be between 1 and 65535", ErrServiceInvalidPort)
		}
		var published uint32
		if p.Published != "" {
			pub, err := strconv.ParseUint(p.Published, 10, 16)
			if err != nil {
				return ParsedService{}, NewParseError(field, "published port must be a number up to 65535", ErrServiceInvalidPort)
			}
			published = uint32(pub)
		}
		service.Ports = append(service.Ports, ParsedPort{
			Target:    p.Target,
			Published: published,
			Protocol:  p.Protocol,
		})
	}

	for net := range svc.Networks {
		service.Networks = append(service.Networks, net)
	}
	sort.Strings(service.Networks)

	for k, v := range svc.Labels {
		service.Labels[k] = v
	}

	return service, nil
}

// validateShortPorts checks every short-form port string in the raw document.
// compose-go accepts some strings the Docker engine later refuses, so the
// engine's own parser is applied first.
func validateShortPorts(dict map[string]interface{}) error {
	services, _ := dict["services"].(map[string]interface{})
	for _, name := range sortedKeys(services) {
		svc, _ := services[name].(map[string]interface{})
		ports, _ := svc["ports"].([]interface{})
		for i, p := range ports {
			spec, ok := p.(string)
			if !ok {
				continue
			}
			if err := ValidatePortSpec(spec); err != nil {
				return NewParseError(fmt.Sprintf("services.%s.ports[%d]", name, i), err.Error(), ErrServiceInvalidPort)
			}
		}
	}
	return nil
}

// ValidatePortSpec checks a short-form port mapping such as "8881:80/tcp".
func ValidatePortSpec(spec string) error {
	if strings.TrimSpace(spec) == "" {
		return fmt.Errorf("empty port spec")
	}
	if _, err := nat.ParsePortSpec(spec); err != nil {
		return fmt.Errorf("invalid port spec %q: %w", spec, err)
	}
	return nil
}

// =============================================================================
// Placeholder Extraction
// =============================================================================

// placeholderRegex matches the env references a manifest can carry:
//   - ${VAR}, ${VAR-default}, ${VAR:-default}, ${VAR?err} and ${VAR:?err},
//     resolved by docker compose
//   - {$VAR} and {$VAR:default}, resolved by Caddy when loading config
//   - {env.VAR}, resolved by Caddy at runtime
var placeholderRegex = regexp.MustCompile(
	`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(?::?-|:?\?)[^}]*)?\}` +
		`|\{\$([A-Za-z_][A-Za-z0-9_]*)(?::[^}]*)?\}` +
		`|\{env\.([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExtractPlaceholders returns the unique environment variable names
// referenced by yamlContent, in order of first appearance.
//
// Example:
//
//	ExtractPlaceholders("caddy: '*.{$ROOT_DOMAIN}'") // returns ["ROOT_DOMAIN"]
func ExtractPlaceholders(yamlContent string) []string {
	var vars []string
	for _, match := range placeholderRegex.FindAllStringSubmatch(yamlContent, -1) {
		for _, name := range match[1:] {
			if name != "" {
				vars = append(vars, name)
			}
		}
	}
	if len(vars) == 0 {
		return nil
	}
	return lo.Uniq(vars)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
