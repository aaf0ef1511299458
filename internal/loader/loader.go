// Package loader reads combat setups and simulation batches from YAML
// files into validated in-memory definitions.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okuden/duelsim/internal/combat/engine"
	perrors "github.com/okuden/duelsim/internal/platform/errors"
	"github.com/okuden/duelsim/internal/sim"
)

// ParseBatch decodes and validates a batch definition.
func ParseBatch(data []byte) (sim.Batch, error) {
	var batch sim.Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return sim.Batch{}, perrors.Wrap(perrors.CodeLoaderInvalid, "decode batch", err)
	}
	if err := batch.Validate(); err != nil {
		return sim.Batch{}, perrors.Wrap(perrors.CodeLoaderInvalid, "validate batch", err)
	}
	for _, matchup := range batch.Matchups {
		if err := validateFighters(matchup.Fighters); err != nil {
			return sim.Batch{}, perrors.Wrap(perrors.CodeLoaderInvalid,
				fmt.Sprintf("matchup %q", matchup.Name), err)
		}
	}
	return batch, nil
}

// LoadBatch reads a batch definition from a YAML file.
func LoadBatch(path string) (sim.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.Batch{}, perrors.Wrap(perrors.CodeLoaderInvalid, "read batch file", err)
	}
	return ParseBatch(data)
}

// ParseSetup decodes and validates a single-combat setup.
func ParseSetup(data []byte) (engine.Setup, error) {
	var setup engine.Setup
	if err := yaml.Unmarshal(data, &setup); err != nil {
		return engine.Setup{}, perrors.Wrap(perrors.CodeLoaderInvalid, "decode setup", err)
	}
	if err := validateFighters(setup.Fighters); err != nil {
		return engine.Setup{}, perrors.Wrap(perrors.CodeLoaderInvalid, "validate setup", err)
	}
	return setup, nil
}

// LoadSetup reads a single-combat setup from a YAML file.
func LoadSetup(path string) (engine.Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Setup{}, perrors.Wrap(perrors.CodeLoaderInvalid, "read setup file", err)
	}
	return ParseSetup(data)
}

// validateFighters fails fast on definitions and policies the engine
// would reject on every run.
func validateFighters(fighters []engine.Fighter) error {
	for _, fighter := range fighters {
		if err := fighter.Definition.Validate(); err != nil {
			return err
		}
		if fighter.Policy.Name == "" {
			return fmt.Errorf("fighter %q has no policy", fighter.Definition.ID)
		}
	}
	return nil
}
