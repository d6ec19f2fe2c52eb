// Package validation provides pure checks for the values that feed manifest
// rendering.
//
// All functions are pure (no I/O, no side effects). They run before any
// label is allocated so a bad configuration never yields a partial manifest.
//
// # Functions
//
//   - ValidateSettings: Check inventory settings field by field
//   - ValidateRootDomain: Check the domain every site is served under
//
// # Usage
//
//	if field, msg := validation.ValidateSettings(settings); field != "" {
//	    // Report "inventory.<field>: <msg>" and exit with a config error
//	}
package validation
