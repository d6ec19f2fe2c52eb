package caddy

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hagever/homelab-composer/internal/core/labels"
)

// =============================================================================
// Allocator
// =============================================================================

// Allocator produces Caddy label groups with unique numeric indexes.
//
// The counter starts at 0 and is advanced once per successful Scoped call
// (twice when a redirect mode is configured). It is never reset, so keys
// stay unique for the whole manifest build even when the same subdomain is
// requested twice.
type Allocator struct {
	cfg  Config
	next int
}

// NewAllocator creates an Allocator for one manifest build.
func NewAllocator(cfg Config) *Allocator {
	return &Allocator{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration, defaults applied.
func (a *Allocator) Config() Config {
	return a.cfg
}

// Allocated returns the last index handed out, or 0 if none was.
func (a *Allocator) Allocated() int {
	return a.next
}

func (a *Allocator) allocate() int {
	a.next++
	return a.next
}

// Root returns the wildcard site declaration.
//
// Example:
//
//	NewAllocator(Config{RootDomain: "home.example.com"}).Root()
//	// Returns:
//	// {
//	//   "caddy": "*.home.example.com",
//	// }
//
// Root does not allocate an index and always returns the same content.
func (a *Allocator) Root() *labels.Map {
	group := labels.New().With(a.cfg.Prefix, "*."+a.cfg.RootDomain)
	if a.cfg.TLSDNS != "" {
		group.Set(a.cfg.Prefix+".tls.dns", a.cfg.TLSDNS)
	}
	return group
}

// Scoped returns a host matcher and a handle block for subdomain.
// Each option becomes one directive of the handle block, in order.
//
// Example:
//
//	alloc.Scoped("git", labels.Of("reverse_proxy", "X"))
//	// Returns (first call, root domain "home.example.com"):
//	// {
//	//   "caddy.1_@git":                 "host git.home.example.com",
//	//   "caddy.1_handle":               "@git",
//	//   "caddy.1_handle.reverse_proxy": "X",
//	// }
//
// An empty options map yields a matcher and selector with no handler body.
// An unusable subdomain fails with ErrInvalidInput and allocates nothing.
func (a *Allocator) Scoped(subdomain string, options *labels.Map) (*labels.Map, error) {
	name, err := matcherName(subdomain)
	if err != nil {
		return nil, err
	}

	n := a.allocate()
	host := subdomain + "." + a.cfg.RootDomain
	scope := fmt.Sprintf("%s.%d_", a.cfg.Prefix, n)

	group := labels.New()
	group.Set(scope+"@"+name, "host "+host)
	group.Set(scope+"handle", "@"+name)
	options.Each(func(directive, value string) {
		group.Set(scope+"handle."+directive, value)
	})

	switch a.cfg.Redirect {
	case RedirectSite:
		m := a.allocate()
		site := fmt.Sprintf("%s_%d", a.cfg.Prefix, m)
		group.Set(site, "http://"+host)
		group.Set(site+".redir", "https://"+host+"{uri}")
	case RedirectScoped:
		m := a.allocate()
		bare := fmt.Sprintf("%s.%d_", a.cfg.Prefix, m)
		group.Set(bare+"@"+name+"_bare", "host "+subdomain)
		group.Set(bare+"handle", "@"+name+"_bare")
		group.Set(bare+"handle.redir", "https://"+host+"{uri}")
	}

	return group, nil
}

// Upstream exposes subdomain by forwarding to the container's own port.
// It returns Root merged with a Scoped block whose handler carries
// extra plus reverse_proxy "{{upstreams <port>}}".
//
// When extra also sets reverse_proxy, the configured Precedence decides
// which value is kept. Port must be within 1..65535.
func (a *Allocator) Upstream(subdomain string, port int, extra *labels.Map) (*labels.Map, error) {
	if _, err := matcherName(subdomain); err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, newInputError("port", fmt.Sprintf("%d", port), "must be between 1 and 65535")
	}

	upstream := fmt.Sprintf("{{upstreams %d}}", port)
	var options *labels.Map
	switch a.cfg.Precedence {
	case PrecedenceOptions:
		options = labels.New().With(DirectiveReverseProxy, upstream).Merge(extra)
	default:
		options = extra.Clone().With(DirectiveReverseProxy, upstream)
	}

	scoped, err := a.Scoped(subdomain, options)
	if err != nil {
		return nil, err
	}
	return a.Root().Merge(scoped), nil
}

// =============================================================================
// Name Sanitization
// =============================================================================

// SanitizeName strips everything outside [A-Za-z0-9_] from subdomain.
//
// Different inputs may sanitize to the same name ("a.b" and "ab" both become
// "ab"). The name is only a readable matcher label; keys stay unique through
// the counter.
//
// Example:
//
//	SanitizeName("my.app")      // returns "myapp"
//	SanitizeName("ical-sensor") // returns "icalsensor"
func SanitizeName(subdomain string) string {
	var b strings.Builder
	b.Grow(len(subdomain))
	for i := 0; i < len(subdomain); i++ {
		c := subdomain[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// matcherName validates subdomain and returns its sanitized matcher name.
func matcherName(subdomain string) (string, error) {
	if strings.TrimSpace(subdomain) == "" {
		return "", newInputError("subdomain", subdomain, "must not be empty")
	}
	if strings.IndexFunc(subdomain, unicode.IsSpace) >= 0 {
		return "", newInputError("subdomain", subdomain, "must not contain whitespace")
	}
	name := SanitizeName(subdomain)
	if name == "" {
		return "", newInputError("subdomain", subdomain, "has no letters, digits or underscores")
	}
	return name, nil
}
