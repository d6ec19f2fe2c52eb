package validation

import (
	"errors"
	"net"
	"path"
	"regexp"
	"strings"

	"github.com/hagever/homelab-composer/internal/core/inventory"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrInvalidHostname = errors.New("invalid hostname format")
	ErrHostnameTooLong = errors.New("hostname must be under 253 characters")
)

// =============================================================================
// Settings Validation
// =============================================================================

// ValidateSettings validates inventory settings.
// Returns the field name and error message if validation fails.
// Returns empty strings if all fields are valid.
//
// Example:
//
//	field, msg := ValidateSettings(inventory.DefaultSettings())
//	// field == "", msg == ""
func ValidateSettings(s inventory.Settings) (field, message string) {
	if !path.IsAbs(s.MediaRoot) {
		return "media_root", "media_root must be an absolute path"
	}
	if !path.IsAbs(s.LibraryRoot) {
		return "library_root", "library_root must be an absolute path"
	}
	if !path.IsAbs(s.ConfigsRoot) {
		return "configs_root", "configs_root must be an absolute path"
	}
	if net.ParseIP(s.MainHost) == nil {
		return "main_host", "main_host must be an IP address"
	}
	if strings.TrimSpace(s.Timezone) == "" {
		return "timezone", "timezone is required"
	}
	if s.PUID < 0 {
		return "puid", "puid must not be negative"
	}
	if s.PGID < 0 {
		return "pgid", "pgid must not be negative"
	}
	if _, _, err := net.ParseCIDR(s.ScanRange); err != nil {
		return "scan_range", "scan_range must be a CIDR subnet"
	}
	return "", ""
}

// =============================================================================
// Domain Validation
// =============================================================================

var (
	labelRegex       = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)
	placeholderRegex = regexp.MustCompile(`\{\$[A-Za-z_][A-Za-z0-9_]*\}|\{env\.[A-Za-z_][A-Za-z0-9_]*\}`)
)

// ValidateRootDomain validates the domain all sites are served under.
// Caddy placeholders such as {$ROOT_DOMAIN} or {env.ROOT_DOMAIN} are resolved
// by Caddy at runtime and count as one valid label.
//
// Example:
//
//	ValidateRootDomain("{$ROOT_DOMAIN}")     // nil
//	ValidateRootDomain("lab.{$ROOT_DOMAIN}") // nil
//	ValidateRootDomain("bad..domain")        // ErrInvalidHostname
func ValidateRootDomain(domain string) error {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return ErrInvalidHostname
	}
	if len(domain) > 253 {
		return ErrHostnameTooLong
	}

	resolved := placeholderRegex.ReplaceAllString(domain, "placeholder")
	for _, label := range strings.Split(resolved, ".") {
		if !labelRegex.MatchString(label) {
			return ErrInvalidHostname
		}
	}
	return nil
}
