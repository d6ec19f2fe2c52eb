package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hagever/homelab-composer/internal/core/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	clearEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// =============================================================================
// generate Tests
// =============================================================================

func TestGenerate_Stdout(t *testing.T) {
	res := runCLI(t, "", "generate")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "version: \"3\"\n"))
	assert.Contains(t, res.stdout, "caddy: '*.{$ROOT_DOMAIN}'")
	assert.Contains(t, res.stdout, "caddy.1_@git: host git.{$ROOT_DOMAIN}")
	assert.Contains(t, res.stderr, "manifest generated")

	spec, err := compose.ParseComposeSpec(res.stdout)
	require.NoError(t, err)
	assert.Len(t, spec.Services, 20)
}

func TestGenerate_Deterministic(t *testing.T) {
	first := runCLI(t, "", "generate")
	second := runCLI(t, "", "generate")

	require.Equal(t, ExitSuccess, first.code)
	require.Equal(t, ExitSuccess, second.code)
	assert.Equal(t, first.stdout, second.stdout)
}

func TestGenerate_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "docker-compose.yml")

	res := runCLI(t, "", "generate", path)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "services:")
}

func TestGenerate_Flags(t *testing.T) {
	res := runCLI(t, "",
		"generate",
		"--root-domain", "home.example.com",
		"--tls-dns", "cloudflare {env.CF_API_TOKEN}",
		"--redirect", "site",
	)

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "caddy: '*.home.example.com'")
	assert.Contains(t, res.stdout, "caddy.tls.dns: cloudflare {env.CF_API_TOKEN}")
	assert.Contains(t, res.stdout, "caddy_2: http://git.home.example.com")
	assert.Contains(t, res.stdout, "caddy_2.redir: https://git.home.example.com{uri}")
}

func TestGenerate_ConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "composer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("caddy:\n  root_domain: lab.example.org\n"), 0644))

	res := runCLI(t, "", "--config", cfgPath, "generate")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "caddy: '*.lab.example.org'")
}

func TestGenerate_InvalidRedirect(t *testing.T) {
	res := runCLI(t, "", "generate", "--redirect", "permanent")

	assert.Equal(t, ExitConfigError, res.code)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "caddy.redirect")
}

func TestGenerate_InvalidRootDomain(t *testing.T) {
	res := runCLI(t, "", "generate", "--root-domain", "bad..domain")

	assert.Equal(t, ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "caddy.root_domain")
}

func TestGenerate_InvalidSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMPOSER_INVENTORY_MAIN_HOST", "nas.local")

	var stdout, stderr bytes.Buffer
	code := run([]string{"generate"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr.String(), "inventory.main_host")
}

func TestGenerate_EmptyMediaRoot(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "composer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("inventory:\n  media_root: \"\"\n"), 0644))

	res := runCLI(t, "", "--config", cfgPath, "generate", "--skip-validate")

	assert.Equal(t, ExitConfigError, res.code)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "inventory.media_root")
}

func TestGenerate_MissingConfigFile(t *testing.T) {
	res := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "generate")

	assert.Equal(t, ExitConfigError, res.code)
	assert.Empty(t, res.stdout)
}

func TestGenerate_UnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	res := runCLI(t, "", "generate", filepath.Join(blocker, "docker-compose.yml"))

	assert.Equal(t, ExitOutputError, res.code)
}

func TestGenerate_JSONLogs(t *testing.T) {
	res := runCLI(t, "", "--log-format", "json", "generate", "--skip-validate")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, `"msg":"manifest generated"`)
	assert.Contains(t, res.stderr, `"services":20`)
	assert.Contains(t, res.stderr, `"last_index":`)
	assert.Contains(t, res.stderr, `"redirect":"none"`)
	assert.NotContains(t, res.stderr, "label_groups")
}

func TestGenerate_LastIndexCountsRedirectBlocks(t *testing.T) {
	plain := runCLI(t, "", "--log-format", "json", "generate", "--skip-validate")
	site := runCLI(t, "", "--log-format", "json", "generate", "--skip-validate", "--redirect", "site")

	require.Equal(t, ExitSuccess, plain.code, plain.stderr)
	require.Equal(t, ExitSuccess, site.code, site.stderr)
	assert.Equal(t, 2*lastIndex(t, plain.stderr), lastIndex(t, site.stderr))
}

// =============================================================================
// validate Tests
// =============================================================================

func TestValidate_Stdin(t *testing.T) {
	gen := runCLI(t, "", "generate")
	require.Equal(t, ExitSuccess, gen.code)

	res := runCLI(t, gen.stdout, "validate", "-")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "ok: 20 services")
	assert.Contains(t, res.stdout, "ROOT_DOMAIN")
}

func TestValidate_JSONReport(t *testing.T) {
	manifest := `services:
  web:
    image: nginx
    ports:
      - "8080:80"
`
	res := runCLI(t, manifest, "validate", "--format", "json", "-")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	var spec compose.ParsedSpec
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &spec))
	require.Len(t, spec.Services, 1)
	assert.Equal(t, "web", spec.Services[0].Name)
	assert.Equal(t, uint32(80), spec.Services[0].Ports[0].Target)
}

func TestValidate_InvalidManifest(t *testing.T) {
	res := runCLI(t, "services: {}\n", "validate", "-")

	assert.Equal(t, ExitValidationError, res.code)
	assert.Empty(t, res.stdout)
}

func TestValidate_MissingFile(t *testing.T) {
	res := runCLI(t, "", "validate", filepath.Join(t.TempDir(), "missing.yml"))

	assert.Equal(t, ExitOutputError, res.code)
}

func TestValidate_RequiresArgument(t *testing.T) {
	res := runCLI(t, "", "validate")

	assert.Equal(t, ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "Error:")
}

// =============================================================================
// version Tests
// =============================================================================

func TestVersion(t *testing.T) {
	res := runCLI(t, "", "version")

	require.Equal(t, ExitSuccess, res.code)
	assert.Equal(t, "composer dev (built unknown)\n", res.stdout)
}

func TestVersion_IgnoresBrokenConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "composer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("caddy: [unclosed"), 0644))

	res := runCLI(t, "", "--config", cfgPath, "version")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "composer dev (built unknown)\n", res.stdout)
}

func TestUnknownCommand(t *testing.T) {
	res := runCLI(t, "", "deploy")

	assert.Equal(t, ExitConfigError, res.code)
}

// lastIndex returns the last_index field of the JSON "manifest generated" log line.
func lastIndex(t *testing.T, logs string) int {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSpace(logs), "\n") {
		var entry struct {
			Msg       string `json:"msg"`
			LastIndex int    `json:"last_index"`
		}
		if json.Unmarshal([]byte(line), &entry) == nil && entry.Msg == "manifest generated" {
			return entry.LastIndex
		}
	}
	t.Fatalf("no manifest generated line in %q", logs)
	return 0
}
