package compose

import (
	"fmt"

	"github.com/hagever/homelab-composer/internal/core/labels"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Project - Manifest Root
// =============================================================================

// Project is the compose document rendered by this tool.
// Services serialize as a mapping in slice order.
type Project struct {
	Version  string             `yaml:"version,omitempty"`
	Networks map[string]Network `yaml:"networks,omitempty"`
	Services Services           `yaml:"services"`
}

// Service returns the service registered under key.
func (p *Project) Service(key string) (*Service, bool) {
	for i := range p.Services {
		if p.Services[i].Key == key {
			return &p.Services[i], true
		}
	}
	return nil, false
}

// =============================================================================
// Service Types
// =============================================================================

// Service is a single service definition.
// Key is the name the service is registered under in the services mapping.
type Service struct {
	Key string `yaml:"-"`

	Restart       RestartPolicy `yaml:"restart,omitempty"`
	Image         string        `yaml:"image,omitempty"`
	ContainerName string        `yaml:"container_name,omitempty"`
	Hostname      string        `yaml:"hostname,omitempty"`
	Privileged    bool          `yaml:"privileged,omitempty"`
	NetworkMode   string        `yaml:"network_mode,omitempty"`
	Networks      []string      `yaml:"networks,omitempty"`
	EnvFile       string        `yaml:"env_file,omitempty"`
	Environment   *Environment  `yaml:"environment,omitempty"`
	Volumes       []VolumeMount `yaml:"volumes,omitempty"`
	Ports         []Port        `yaml:"ports,omitempty"`
	Command       []string      `yaml:"command,omitempty"`
	CapAdd        []string      `yaml:"cap_add,omitempty"`
	HealthCheck   *HealthCheck  `yaml:"healthcheck,omitempty"`
	Labels        *labels.Map   `yaml:"labels,omitempty"`
}

// Services keeps service definitions in declaration order.
type Services []Service

// MarshalYAML emits the services as a mapping keyed by Service.Key,
// preserving slice order.
func (s Services) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	seen := make(map[string]bool, len(s))
	for _, svc := range s {
		if svc.Key == "" {
			return nil, fmt.Errorf("service without key (image %q)", svc.Image)
		}
		if seen[svc.Key] {
			return nil, fmt.Errorf("duplicate service %q", svc.Key)
		}
		seen[svc.Key] = true

		var value yaml.Node
		if err := value.Encode(svc); err != nil {
			return nil, fmt.Errorf("service %q: %w", svc.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: svc.Key},
			&value,
		)
	}
	return node, nil
}

// RestartPolicy represents the restart policy.
type RestartPolicy string

const (
	RestartNo            RestartPolicy = "no"
	RestartUnlessStopped RestartPolicy = "unless-stopped"
)

// HealthCheck represents health check configuration.
// Test is run through the container's shell.
type HealthCheck struct {
	Test string `yaml:"test"`
}

// =============================================================================
// Environment
// =============================================================================

// Environment is either the list form ("KEY=value") or the mapping form
// of a service environment. Exactly one form is serialized.
type Environment struct {
	Entries []string
	Mapping *labels.Map
}

// EnvList builds a list-form environment.
func EnvList(entries ...string) *Environment {
	return &Environment{Entries: entries}
}

// EnvMap builds a mapping-form environment.
func EnvMap(m *labels.Map) *Environment {
	return &Environment{Mapping: m}
}

// MarshalYAML emits the mapping form when set, the list form otherwise.
func (e Environment) MarshalYAML() (interface{}, error) {
	if e.Mapping != nil {
		return e.Mapping, nil
	}
	return e.Entries, nil
}

// =============================================================================
// Volume Mounts
// =============================================================================

// VolumeMountType represents the type of volume mount.
type VolumeMountType string

const (
	VolumeMountTypeTmpfs VolumeMountType = "tmpfs"
)

// VolumeMount is a service volume in short ("src:dst[:ro]") or long form.
// A non-empty Spec selects the short form.
type VolumeMount struct {
	Spec string

	Type     VolumeMountType
	Source   string
	Target   string
	ReadOnly bool
}

// Mount builds a short-form volume mount.
func Mount(spec string) VolumeMount {
	return VolumeMount{Spec: spec}
}

// Mounts builds short-form volume mounts.
func Mounts(specs ...string) []VolumeMount {
	out := make([]VolumeMount, 0, len(specs))
	for _, s := range specs {
		out = append(out, Mount(s))
	}
	return out
}

type longVolumeMount struct {
	Type     VolumeMountType `yaml:"type"`
	Source   string          `yaml:"source,omitempty"`
	Target   string          `yaml:"target"`
	ReadOnly bool            `yaml:"read_only,omitempty"`
}

// MarshalYAML emits the short string or the long mapping.
func (v VolumeMount) MarshalYAML() (interface{}, error) {
	if v.Spec != "" {
		return v.Spec, nil
	}
	return longVolumeMount{Type: v.Type, Source: v.Source, Target: v.Target, ReadOnly: v.ReadOnly}, nil
}

// =============================================================================
// Ports
// =============================================================================

// Port is a port mapping in short ("host:container[/proto]") or long form.
// A non-empty Spec selects the short form.
type Port struct {
	Spec string

	Target    uint32 // Container port
	Published uint32 // Host port (0 = dynamic)
	Protocol  string // tcp, udp
}

// PortSpec builds short-form port mappings.
func PortSpec(specs ...string) []Port {
	out := make([]Port, 0, len(specs))
	for _, s := range specs {
		out = append(out, Port{Spec: s})
	}
	return out
}

// Publish builds a long-form mapping of the same port on host and container.
func Publish(port uint32) Port {
	return Port{Target: port, Published: port}
}

type longPort struct {
	Published uint32 `yaml:"published,omitempty"`
	Target    uint32 `yaml:"target"`
	Protocol  string `yaml:"protocol,omitempty"`
}

// MarshalYAML emits the short string or the long mapping.
func (p Port) MarshalYAML() (interface{}, error) {
	if p.Spec != "" {
		return p.Spec, nil
	}
	return longPort{Published: p.Published, Target: p.Target, Protocol: p.Protocol}, nil
}

// =============================================================================
// Network Definitions
// =============================================================================

// Network represents a top-level network definition.
type Network struct {
	Driver   string `yaml:"driver,omitempty"`
	External bool   `yaml:"external,omitempty"`
}
