package config

import "flag"

// Overrides holds command-line values that take priority over the file.
type Overrides struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	StorePath  string
}

// RegisterFlags adds the shared flags to a subcommand's flag set.
func RegisterFlags(fs *flag.FlagSet) *Overrides {
	o := &Overrides{}
	fs.StringVar(&o.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.LogFile, "log-file", "", "Write logs to this file")
	fs.StringVar(&o.StorePath, "db", "", "Seed database path")
	return o
}

// Apply applies the overrides to cfg.
func (o *Overrides) Apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.StorePath != "" {
		cfg.Store.Path = o.StorePath
	}
}

// LoadWithOverrides loads the config named by the overrides and applies them.
func LoadWithOverrides(o *Overrides) (*Config, error) {
	cfg, err := Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	o.Apply(cfg)
	return cfg, nil
}
