// Package duel parses duel command flags and plays a single combat.
package duel

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/okuden/duelsim/internal/combat/engine"
	"github.com/okuden/duelsim/internal/loader"
	entrypoint "github.com/okuden/duelsim/internal/platform/cmd"
)

// Config holds duel command configuration.
type Config struct {
	SetupPath string `env:"DUELSIM_DUEL_SETUP"`
	Seed      int64  `env:"DUELSIM_DUEL_SEED"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.SetupPath, "setup", cfg.SetupPath, "Path to the YAML combat setup")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Override the setup seed")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run plays the configured combat and prints its transcript.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.CommandDuel, func(context.Context) error {
		if cfg.SetupPath == "" {
			return fmt.Errorf("combat setup path is required (-setup)")
		}
		setup, err := loader.LoadSetup(cfg.SetupPath)
		if err != nil {
			return err
		}
		if cfg.Seed != 0 {
			setup.Seed = cfg.Seed
		}

		eng, err := engine.New(setup)
		if err != nil {
			return err
		}
		result, err := eng.Run()
		if err != nil {
			return err
		}
		return WriteTranscript(os.Stdout, result)
	})
}
