// Package initcmder provides the init command for initializing a local .leonia
// directory in the current working directory.
package initcmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/leonia/pkg/cliui"
	"github.com/papercomputeco/leonia/pkg/config"
	"github.com/papercomputeco/leonia/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .leonia/ directory in the current working directory.

Creates a local .leonia/ directory that takes precedence over the default
~/.leonia/ directory for configuration, the SQLite transcript store and
chat state. A config.toml with default values is written when none exists.

With --preset, config.toml is (re)written for a common completion backend
(ollama, llamacpp or openai) or fetched from an http(s) URL.

Examples:
  leonia init
  leonia init --preset llamacpp
  leonia init --preset https://example.com/leonia.toml`

const initShortDesc string = "Initialize a local .leonia/ directory"

const remoteFetchTimeout = 10 * time.Second

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), cmd.OutOrStdout(), preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		fmt.Sprintf("Preset name (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func runInit(ctx context.Context, w io.Writer, preset string) error {
	cfg, err := resolvePreset(ctx, preset)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dotdir.DirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .leonia directory: %w", err)
		}
		fmt.Fprintf(w, "Initialized .leonia directory: %s\n", dir)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg == nil {
		if _, err := os.Stat(cfger.GetTarget()); err == nil {
			return nil
		}
		cfg = config.NewDefaultConfig()
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Wrote %s\n", cliui.SuccessMark, cfger.GetTarget())
	return nil
}

// resolvePreset returns nil when no preset was requested.
func resolvePreset(ctx context.Context, preset string) (*config.Config, error) {
	switch {
	case preset == "":
		return nil, nil
	case strings.HasPrefix(preset, "http://"), strings.HasPrefix(preset, "https://"):
		return fetchRemoteConfig(ctx, preset)
	default:
		return config.PresetConfig(preset)
	}
}

func fetchRemoteConfig(ctx context.Context, url string) (*config.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, remoteFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	cfg, err := config.ParseConfigTOML(data)
	if err != nil {
		return nil, fmt.Errorf("remote config %s: %w", url, err)
	}
	return cfg, nil
}
