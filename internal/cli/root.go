// Package cli wires configuration, logging and the catalog source into the
// tcg-kiosk commands.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/banux/tcg-kiosk/internal/backend/fs"
	"github.com/banux/tcg-kiosk/internal/backend/sqlite"
	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/config"
	"github.com/banux/tcg-kiosk/internal/i18n"
	"github.com/banux/tcg-kiosk/internal/images"
	"github.com/banux/tcg-kiosk/internal/logging"
	"github.com/banux/tcg-kiosk/internal/query"
)

// app is the state shared by every command once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	dataDir    string

	cfg config.Config
	log zerolog.Logger
	tr  *i18n.Translator
}

// NewRootCmd returns the tcg-kiosk command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tcg-kiosk",
		Short: "Trading card catalog kiosk",
		Long: `tcg-kiosk browses a tree of trading card JSON files.

COMMANDS:
  serve    Serve the catalog over HTTP (JSON API and browse page)
  scan     Walk the data directory and report what would be loaded
  query    Run one catalog query and print the result
  browse   Browse the catalog in the terminal

EXAMPLES:
  tcg-kiosk serve --data-dir ./data
  tcg-kiosk query --game pokemon --type Fire --page 2
  tcg-kiosk scan --files
`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: $TCG_KIOSK_CONFIG, ./tcg-kiosk.yaml, ~/.config/tcg-kiosk/config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format (json, console, auto)")
	pf.StringVar(&a.dataDir, "data-dir", "", "root of the card tree")

	root.AddCommand(
		newServeCmd(a),
		newScanCmd(a),
		newQueryCmd(a),
		newBrowseCmd(a),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// setup loads the configuration, applies flag overrides and builds the
// logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path := a.configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	a.cfg = cfg
	a.log = logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	a.tr = i18n.New(cfg.Locale)
	if path != "" {
		a.log.Debug().Str("path", path).Msg("config loaded")
	}
	return nil
}

func (a *app) loaderOptions() fs.Options {
	return fs.Options{
		Translator:     a.tr,
		OverlayBaseURL: a.cfg.OverlayBaseURL,
		Logger:         a.log,
	}
}

// openSource returns the configured catalog source and a func releasing it.
func (a *app) openSource() (catalog.Source, func() error, error) {
	switch a.cfg.Backend {
	case "sqlite":
		be, err := sqlite.New(a.cfg.DataDir, a.cfg.CachePath, a.loaderOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("open snapshot cache: %w", err)
		}
		return be, be.Close, nil
	default:
		return fs.New(a.cfg.DataDir, a.loaderOptions()), func() error { return nil }, nil
	}
}

// snapshot opens the configured source and builds its catalog.
func (a *app) snapshot() (*catalog.Catalog, error) {
	src, closeSrc, err := a.openSource()
	if err != nil {
		return nil, err
	}
	defer closeSrc()
	return src.Snapshot()
}

func (a *app) engine() query.Engine {
	mode, err := query.ParseMode(a.cfg.EmptyGameMode)
	if err != nil {
		a.log.Warn().Err(err).Msg("falling back to empty_game_mode none")
	}
	return query.Engine{Mode: mode}
}

func (a *app) imageProxy() images.Proxy {
	return images.Proxy{BaseURL: a.cfg.ImageProxy.BaseURL, Hosts: a.cfg.ImageProxy.Hosts}
}
