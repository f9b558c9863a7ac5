package handlers

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/imamik/orchestrator/internal/config"
)

// ShowConfig handles the config command. It prints the effective
// configuration as YAML with credentials redacted.
func ShowConfig(g GlobalOptions, out io.Writer) error {
	cfg, err := loadConfig(config.LoadOptions{File: g.ConfigFile, Overrides: g.Overrides})
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = out.Write(data)
	return err
}
