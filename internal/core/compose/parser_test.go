package compose

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const validManifest = `
version: "3"
networks:
  caddy:
    external: true
services:
  gitea:
    restart: unless-stopped
    image: gitea/gitea
    container_name: gitea
    networks:
      - caddy
    environment:
      - PUID=1000
      - TZ=Asia/Jerusalem
    volumes:
      - /media/library/git/:/data
      - /etc/localtime:/etc/localtime:ro
    ports:
      - "2222:2222"
    labels:
      caddy: '*.{$ROOT_DOMAIN}'
      caddy.1_@git: host git.{$ROOT_DOMAIN}
      caddy.1_handle: '@git'
      caddy.1_handle.reverse_proxy: '{{upstreams 3000}}'
  pihole:
    image: pihole/pihole:latest
    env_file: ./pihole/environment
    ports:
      - "53:53/tcp"
      - "53:53/udp"
      - "8881:80/tcp"
    cap_add:
      - NET_ADMIN
  caddy:
    image: caddy
    networks:
      - caddy
    environment:
      CADDY_INGRESS_NETWORKS: caddy
      CF_API_TOKEN: ${CF_API_TOKEN}
    ports:
      - published: 443
        target: 443
`

// =============================================================================
// ParseComposeSpec Tests
// =============================================================================

func TestParseComposeSpec_Valid(t *testing.T) {
	spec, err := ParseComposeSpec(validManifest)
	require.NoError(t, err)

	require.Len(t, spec.Services, 3)
	assert.Equal(t, "caddy", spec.Services[0].Name)
	assert.Equal(t, "gitea", spec.Services[1].Name)
	assert.Equal(t, "pihole", spec.Services[2].Name)
	assert.Equal(t, []string{"caddy"}, spec.Networks)
}

func TestParseComposeSpec_KeepsPlaceholdersLiteral(t *testing.T) {
	spec, err := ParseComposeSpec(validManifest)
	require.NoError(t, err)

	gitea := spec.Services[1]
	assert.Equal(t, "*.{$ROOT_DOMAIN}", gitea.Labels["caddy"])
	assert.Equal(t, "host git.{$ROOT_DOMAIN}", gitea.Labels["caddy.1_@git"])
	assert.Equal(t, "{{upstreams 3000}}", gitea.Labels["caddy.1_handle.reverse_proxy"])
	assert.Equal(t, []string{"ROOT_DOMAIN", "CF_API_TOKEN"}, spec.Placeholders)
}

func TestParseComposeSpec_Ports(t *testing.T) {
	spec, err := ParseComposeSpec(validManifest)
	require.NoError(t, err)

	caddy := spec.Services[0]
	require.Len(t, caddy.Ports, 1)
	assert.Equal(t, uint32(443), caddy.Ports[0].Target)
	assert.Equal(t, uint32(443), caddy.Ports[0].Published)

	pihole := spec.Services[2]
	require.Len(t, pihole.Ports, 3)
	assert.Equal(t, uint32(80), pihole.Ports[2].Target)
	assert.Equal(t, uint32(8881), pihole.Ports[2].Published)
	assert.Equal(t, "udp", pihole.Ports[1].Protocol)
}

func TestParseComposeSpec_EmptyInput(t *testing.T) {
	_, err := ParseComposeSpec("   \n")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseComposeSpec_InvalidYAML(t *testing.T) {
	_, err := ParseComposeSpec("services: [[[")
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestParseComposeSpec_NoServices(t *testing.T) {
	_, err := ParseComposeSpec("networks:\n  caddy:\n    external: true\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoServices) || errors.Is(err, ErrInvalid))
}

func TestParseComposeSpec_InvalidShortPort(t *testing.T) {
	manifest := `
services:
  web:
    image: nginx
    ports:
      - "80:http"
`
	_, err := ParseComposeSpec(manifest)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceInvalidPort)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "services.web.ports[0]", parseErr.Field)
}

func TestParseComposeSpec_UnknownField(t *testing.T) {
	manifest := `
services:
  web:
    image: nginx
    not_a_compose_field: true
`
	_, err := ParseComposeSpec(manifest)
	assert.ErrorIs(t, err, ErrInvalid)
}

// =============================================================================
// ValidatePortSpec Tests
// =============================================================================

func TestValidatePortSpec(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"2222:2222", false},
		{"53:53/udp", false},
		{"8881:80/tcp", false},
		{"127.0.0.1:8080:80", false},
		{"80", false},
		{"", true},
		{"80:http", true},
		{"abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			err := ValidatePortSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =============================================================================
// ExtractPlaceholders Tests
// =============================================================================

func TestExtractPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"compose braces", "${DB_HOST}", []string{"DB_HOST"}},
		{"compose default", "${PORT:-8080}", []string{"PORT"}},
		{"compose unset default", "${PORT-8080}", []string{"PORT"}},
		{"compose required", "${TOKEN:?token is required}", []string{"TOKEN"}},
		{"compose required if unset", "${TOKEN?missing}", []string{"TOKEN"}},
		{"caddy env", "*.{$ROOT_DOMAIN}", []string{"ROOT_DOMAIN"}},
		{"caddy env default", "{$ROOT_DOMAIN:localhost}", []string{"ROOT_DOMAIN"}},
		{"caddy runtime env", "cloudflare {env.CF_API_TOKEN}", []string{"CF_API_TOKEN"}},
		{"dedupe in order", "{$B} ${A} {$B} {env.A}", []string{"B", "A"}},
		{"upstreams template", "{{upstreams 80}}", nil},
		{"none", "plain text", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractPlaceholders(tt.input))
		})
	}
}

// =============================================================================
// ParseError Tests
// =============================================================================

func TestParseError_Format(t *testing.T) {
	err := NewParseError("services.web.ports[0]", "bad port", ErrServiceInvalidPort)
	assert.Equal(t, "services.web.ports[0]: bad port", err.Error())
	assert.ErrorIs(t, err, ErrServiceInvalidPort)

	bare := NewParseError("", "bad yaml", ErrInvalidYAML)
	assert.Equal(t, "bad yaml", bare.Error())
}
