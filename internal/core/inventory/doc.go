// Package inventory holds the static service inventory of the home-lab
// cluster and assembles it into a compose Project.
//
// The inventory is data: images, volumes, environment and ports. The only
// computed parts are host paths derived from Settings and the Caddy labels,
// which come from the caddy.Allocator passed to Machine1. The allocator must
// be fresh for each build so that label indexes start at 1.
//
// # Usage
//
//	alloc := caddy.NewAllocator(caddy.Config{RootDomain: "home.example.com"})
//	project, err := inventory.Machine1(inventory.DefaultSettings(), alloc)
package inventory
