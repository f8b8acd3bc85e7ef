// Package common provides shared setup for cooper's commands.
package common

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	infraconfig "github.com/jonesrussell/cooper/infrastructure/config"
	"github.com/jonesrussell/cooper/infrastructure/logger"
	"github.com/jonesrussell/cooper/internal/config"
)

var (
	// ErrLoggerRequired is returned when CommandDeps.Logger is nil.
	ErrLoggerRequired = errors.New("logger is required")
	// ErrConfigRequired is returned when CommandDeps.Config is nil.
	ErrConfigRequired = errors.New("config is required")
)

// Persistent flag names registered on the root command.
const (
	FlagConfig  = "config"
	FlagDebug   = "debug"
	FlagOffline = "offline"
)

// CommandDeps holds the dependencies every command needs.
type CommandDeps struct {
	Logger logger.Logger
	Config *config.Config
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// NewCommandDeps loads the config named by --config (or CONFIG_PATH) and
// builds the logger, applying --debug and --offline.
func NewCommandDeps(cmd *cobra.Command) (CommandDeps, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString(FlagConfig)
	if path == "" {
		path = infraconfig.GetConfigPath(infraconfig.DefaultPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return CommandDeps{}, err
	}

	if debug, _ := flags.GetBool(FlagDebug); debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = logger.FormatConsole
	}
	if offline, _ := flags.GetBool(FlagOffline); offline {
		cfg.Mode = config.ModeOffline
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	deps := CommandDeps{Logger: log, Config: cfg}
	return deps, deps.Validate()
}
