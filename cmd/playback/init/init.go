// Package initcmder provides the init command for initializing a local
// .playback directory, the default config, and the data tree.
package initcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/config"
	"github.com/papercomputeco/playback/pkg/datadir"
	"github.com/papercomputeco/playback/pkg/logger"
)

const (
	dirName = ".playback"
)

const initLongDesc string = `Initialize a new .playback/ directory in the current working directory.

Creates a local .playback/ directory that takes precedence over the default
~/.playback/ directory for configuration, writes a default config.toml if
one does not exist, and prepares the data tree and catalog.

This is useful for maintaining separate playback state per machine or project.

Examples:
  playback init
  playback init --data-dir /mnt/archive/playback`

const initShortDesc string = "Initialize a local .playback/ directory"

type initCommander struct {
	dataDir string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.dataDir, "data-dir", "", "Where segments and the catalog live (defaults to ~/.playback/data)")

	return cmd
}

func (c *initCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
	default:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .playback directory: %w", err)
		}
		fmt.Fprintf(out, "Initialized .playback directory: %s\n", dir)
	}

	cfg, err := c.writeConfig(dir, out)
	if err != nil {
		return err
	}

	tree := datadir.New(cfg.Storage.DataDir)
	if err := tree.Ensure(); err != nil {
		return fmt.Errorf("creating data tree: %w", err)
	}
	fmt.Fprintf(out, "Data tree ready: %s\n", tree.Root())

	log := logger.New(logger.WithWriter(os.Stderr))
	cat, err := catalog.Open(tree.CatalogPath(), log)
	if err != nil {
		return fmt.Errorf("initializing catalog: %w", err)
	}
	defer func() { _ = cat.Close() }()

	fmt.Fprintf(out, "Catalog ready: %s\n", cat.Path())
	return nil
}

// writeConfig creates config.toml with defaults when absent, leaving an
// existing file untouched.
func (c *initCommander) writeConfig(dir string, out io.Writer) (*config.Config, error) {
	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return nil, err
	}

	path := cfger.GetTarget()
	if _, statErr := os.Stat(path); statErr == nil {
		fmt.Fprintf(out, "Config exists: %s\n", path)
		return cfger.LoadConfig()
	}

	cfg := config.NewDefaultConfig()
	if c.dataDir != "" {
		cfg.Storage.DataDir = c.dataDir
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}
	fmt.Fprintf(out, "Wrote default config: %s\n", path)

	return cfg, nil
}
