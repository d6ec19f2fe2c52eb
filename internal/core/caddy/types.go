package caddy

import "fmt"

// =============================================================================
// Allocator Configuration Types
// =============================================================================

const (
	// DefaultPrefix is the label namespace read by caddy-docker-proxy.
	DefaultPrefix = "caddy"

	// DefaultRootDomain defers the domain to Caddy's environment expansion.
	DefaultRootDomain = "{$ROOT_DOMAIN}"

	// DirectiveReverseProxy is the handler directive synthesized by Upstream.
	DirectiveReverseProxy = "reverse_proxy"
)

// RedirectMode selects whether Scoped also emits a block redirecting plain
// HTTP requests for the subdomain to HTTPS.
type RedirectMode string

const (
	// RedirectNone emits no redirect block.
	RedirectNone RedirectMode = "none"

	// RedirectSite emits a separate top-level site block:
	//
	//	caddy_<M>       = "http://<sub>.<root>"
	//	caddy_<M>.redir = "https://<sub>.<root>{uri}"
	RedirectSite RedirectMode = "site"

	// RedirectScoped emits a handle block under the wildcard site that
	// matches the bare host:
	//
	//	caddy.<M>_@<name>_bare    = "host <sub>"
	//	caddy.<M>_handle          = "@<name>_bare"
	//	caddy.<M>_handle.redir    = "https://<sub>.<root>{uri}"
	RedirectScoped RedirectMode = "scoped"
)

// Precedence decides which reverse_proxy value Upstream keeps when the
// caller's extra options also carry one.
type Precedence string

const (
	// PrecedenceUpstream keeps the value derived from the port.
	PrecedenceUpstream Precedence = "upstream"

	// PrecedenceOptions keeps the caller's value.
	PrecedenceOptions Precedence = "options"
)

// Config configures an Allocator. Zero fields fall back to defaults.
type Config struct {
	// Prefix is the label namespace (e.g., "caddy").
	Prefix string

	// RootDomain is the wildcard suffix every subdomain is minted under
	// (e.g., "home.example.com").
	RootDomain string

	// TLSDNS, when set, is emitted on the root block as the certificate
	// issuance method (e.g., "cloudflare {env.CF_API_TOKEN}").
	TLSDNS string

	// Redirect selects the bare-host redirect block emitted by Scoped.
	Redirect RedirectMode

	// Precedence selects the winner of a reverse_proxy collision in Upstream.
	Precedence Precedence
}

// withDefaults returns a copy of c with empty fields filled in.
func (c Config) withDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.RootDomain == "" {
		c.RootDomain = DefaultRootDomain
	}
	if c.Redirect == "" {
		c.Redirect = RedirectNone
	}
	if c.Precedence == "" {
		c.Precedence = PrecedenceUpstream
	}
	return c
}

// ParseRedirectMode converts a configuration string into a RedirectMode.
func ParseRedirectMode(s string) (RedirectMode, error) {
	switch RedirectMode(s) {
	case "", RedirectNone:
		return RedirectNone, nil
	case RedirectSite, RedirectScoped:
		return RedirectMode(s), nil
	}
	return "", fmt.Errorf("unknown redirect mode %q (want none, site or scoped)", s)
}

// ParsePrecedence converts a configuration string into a Precedence.
func ParsePrecedence(s string) (Precedence, error) {
	switch Precedence(s) {
	case "", PrecedenceUpstream:
		return PrecedenceUpstream, nil
	case PrecedenceOptions:
		return PrecedenceOptions, nil
	}
	return "", fmt.Errorf("unknown precedence %q (want upstream or options)", s)
}
