package runtimeinit

import (
	"errors"
	"fmt"
	"log"

	"winshifts/src/clipboard"
	"winshifts/src/config"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// InitClipboard replaces clipboard.Init in tests.
	InitClipboard func() error
}

// Bootstrap loads configuration, sets up logging and prepares the clipboard.
// A clipboard that cannot be initialised is not fatal: every later copy
// reports ErrClipboardUnavailable instead.
func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}
	if cfg.EnvPath != "" {
		log.Printf("Configuration loaded from %s", cfg.EnvPath)
	}

	initClipboard := opts.InitClipboard
	if initClipboard == nil {
		initClipboard = clipboard.Init
	}
	if err := initClipboard(); err != nil {
		if !errors.Is(err, clipboard.ErrClipboardUnavailable) {
			err = fmt.Errorf("%w: %v", clipboard.ErrClipboardUnavailable, err)
		}
		log.Printf("WARNING: %v", err)
	}

	return cfg, nil
}
