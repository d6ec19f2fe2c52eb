// Package caddy allocates reverse proxy labels for Caddy's docker-proxy
// label grammar.
//
// This package contains the functional core logic for turning "expose this
// subdomain on this port" requests into uniquely indexed, correctly ordered
// container labels. It performs no I/O. The only state is the Allocator's
// counter, which guarantees that every key produced by one Allocator is
// unique.
//
// # Key Grammar
//
//	caddy                         = "*.<root-domain>"
//	caddy.<N>_@<name>             = "host <subdomain>.<root-domain>"
//	caddy.<N>_handle              = "@<name>"
//	caddy.<N>_handle.<directive>  = <value>
//
// <N> is the counter value allocated for the call and <name> is the
// subdomain with everything outside [A-Za-z0-9_] stripped.
//
// # Usage
//
// One Allocator is created per manifest build and shared by every service
// definition of that build:
//
//	alloc := caddy.NewAllocator(caddy.Config{RootDomain: "home.example.com"})
//	group, err := alloc.Upstream("git", 3000, nil)
//	if err != nil {
//	    return err
//	}
//	service.Labels = group
//
// An Allocator is not safe for concurrent use.
package caddy
