package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hagever/homelab-composer/internal/core/caddy"
	"github.com/hagever/homelab-composer/internal/core/compose"
	"github.com/hagever/homelab-composer/internal/core/inventory"
	"github.com/hagever/homelab-composer/internal/core/validation"
	"github.com/hagever/homelab-composer/internal/shell/manifest"
	"github.com/spf13/cobra"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    *Config
	logger *slog.Logger
}

// =============================================================================
// Root Command
// =============================================================================

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "composer",
		Short:         "Render the home-lab docker compose manifest",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return &CommandError{Op: "load_config", Err: err, ExitCode: ExitConfigError}
			}
			a.cfg = cfg
			a.logger = SetupLogger(cfg, a.stderr)
			SetupLoaderLogging(cfg, a.stderr)
			return nil
		},
	}

	cmd.PersistentFlags().String("config", "", "Path to config file")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	cmd.AddCommand(
		newGenerateCmd(a),
		newValidateCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// =============================================================================
// generate
// =============================================================================

func newGenerateCmd(a *app) *cobra.Command {
	var skipValidate bool

	cmd := &cobra.Command{
		Use:   "generate [output]",
		Short: "Render the machine1 manifest to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := manifest.Stdio
			if len(args) == 1 {
				output = args[0]
			}
			return a.generate(output, skipValidate)
		},
	}

	cmd.Flags().String("root-domain", caddy.DefaultRootDomain, "Root domain for all sites")
	cmd.Flags().String("tls-dns", "", "TLS DNS challenge directive for the root block")
	cmd.Flags().String("redirect", string(caddy.RedirectNone), "Bare host redirect mode (none, site, scoped)")
	cmd.Flags().String("precedence", string(caddy.PrecedenceUpstream), "Which value wins on reverse_proxy conflicts (upstream, options)")
	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "Skip the compose round-trip check")
	return cmd
}

func (a *app) generate(output string, skipValidate bool) error {
	allocCfg, err := a.cfg.Caddy.AllocatorConfig()
	if err != nil {
		return &CommandError{Op: "load_config", Err: err, ExitCode: ExitConfigError}
	}

	if err := validation.ValidateRootDomain(allocCfg.RootDomain); err != nil {
		return &CommandError{Op: "load_config", Err: fmt.Errorf("caddy.root_domain: %w", err), ExitCode: ExitConfigError}
	}
	settings := a.cfg.Inventory.Settings()
	if field, msg := validation.ValidateSettings(settings); field != "" {
		return &CommandError{Op: "load_config", Err: fmt.Errorf("inventory.%s: %s", field, msg), ExitCode: ExitConfigError}
	}

	alloc := caddy.NewAllocator(allocCfg)
	project, err := inventory.Machine1(settings, alloc)
	if err != nil {
		return &CommandError{Op: "render", Err: err, ExitCode: ExitRenderError}
	}

	data, err := manifest.Encode(project)
	if err != nil {
		return &CommandError{Op: "render", Err: err, ExitCode: ExitRenderError}
	}

	if !skipValidate {
		spec, err := compose.ParseComposeSpec(string(data))
		if err != nil {
			return &CommandError{Op: "validate", Err: err, ExitCode: ExitValidationError}
		}
		a.logger.Debug("manifest validated",
			"services", len(spec.Services),
			"placeholders", spec.Placeholders,
		)
	}

	if err := manifest.Write(output, data, a.stdout); err != nil {
		return &CommandError{Op: "write", Err: err, ExitCode: ExitOutputError}
	}

	effective := alloc.Config()
	a.logger.Info("manifest generated",
		"output", output,
		"services", len(project.Services),
		"last_index", alloc.Allocated(),
		"root_domain", effective.RootDomain,
		"redirect", effective.Redirect,
		"precedence", effective.Precedence,
	)
	return nil
}

// =============================================================================
// validate
// =============================================================================

func newValidateCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check that a manifest loads as a compose project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate(args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Report format (text, json)")
	return cmd
}

func (a *app) validate(path, format string) error {
	content, err := manifest.Read(path, a.stdin)
	if err != nil {
		return &CommandError{Op: "read", Err: err, ExitCode: ExitOutputError}
	}

	spec, err := compose.ParseComposeSpec(content)
	if err != nil {
		return &CommandError{Op: "validate", Err: err, ExitCode: ExitValidationError}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(spec); err != nil {
			return &CommandError{Op: "write", Err: err, ExitCode: ExitOutputError}
		}
	case "text", "":
		fmt.Fprintf(a.stdout, "ok: %d services\n", len(spec.Services))
		if len(spec.Placeholders) > 0 {
			fmt.Fprintf(a.stdout, "placeholders: %s\n", strings.Join(spec.Placeholders, ", "))
		}
	default:
		return &CommandError{
			Op:       "validate",
			Err:      fmt.Errorf("unknown report format %q", format),
			ExitCode: ExitConfigError,
		}
	}

	a.logger.Debug("manifest checked", "path", path, "services", len(spec.Services))
	return nil
}

// =============================================================================
// version
// =============================================================================

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Replaces the root hook: version needs no config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "composer %s (built %s)\n", Version, BuildTime)
			return nil
		},
	}
}
