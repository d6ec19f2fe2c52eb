package inventory

import (
	"fmt"

	"github.com/hagever/homelab-composer/internal/core/caddy"
	"github.com/hagever/homelab-composer/internal/core/compose"
	"github.com/hagever/homelab-composer/internal/core/labels"
)

// Helpers are the per-service values handed to a service definition.
type Helpers struct {
	// Config is the service's config directory on the host.
	Config string
}

// builder assembles services and collects the first allocator error.
// Definitions stay plain expressions; Build reports the error once.
type builder struct {
	settings Settings
	alloc    *caddy.Allocator
	services compose.Services
	current  string
	err      error
}

func newBuilder(s Settings, alloc *caddy.Allocator) *builder {
	return &builder{settings: s, alloc: alloc}
}

// service registers a service under key with defaults applied.
// name selects the config directory and usually equals key.
// A restart policy set by fn overrides the default.
func (b *builder) service(key, name string, fn func(h Helpers) compose.Service) {
	if b.err != nil {
		return
	}
	b.current = key

	svc := fn(Helpers{Config: ConfigDir(b.settings, name)})
	svc.Key = key
	if svc.Restart == "" {
		svc.Restart = compose.RestartUnlessStopped
	}
	b.services = append(b.services, svc)
}

// upstream returns labels forwarding subdomain to the container's port.
func (b *builder) upstream(subdomain string, port int) *labels.Map {
	group, err := b.alloc.Upstream(subdomain, port, nil)
	return b.record(group, err)
}

// scoped returns labels for a handle block with the given directives.
func (b *builder) scoped(subdomain string, directives *labels.Map) *labels.Map {
	group, err := b.alloc.Scoped(subdomain, directives)
	return b.record(group, err)
}

// root returns the wildcard site labels.
func (b *builder) root() *labels.Map {
	return b.alloc.Root()
}

func (b *builder) record(group *labels.Map, err error) *labels.Map {
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("service %s: %w", b.current, err)
		}
		return labels.New()
	}
	return group
}

// build returns the collected services or the first error.
func (b *builder) build() (compose.Services, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.services, nil
}
