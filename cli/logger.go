package cli

import (
	"github.com/devflow/devflow/config"
	"github.com/devflow/devflow/logging"
)

// ConfigureLogging applies the `logging` section of cfg and the command
// line flags to every devflow logger.
func ConfigureLogging(cfg *config.Config, opts CommandOptions) error {
	logCfg := logging.CurrentConfig()
	if cfg != nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			return err
		}
	}
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	if opts.JSONOutput {
		logCfg.Format.Preset = "json"
	}
	logging.Configure(logCfg)
	return nil
}
