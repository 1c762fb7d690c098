package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration in three layers: built-in defaults, an optional
// config file (explicit path, working directory, or ~/.config/inferbatch),
// and INFERBATCH_* environment variables. Command flags are overlaid by the
// calling command after Load returns.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("rpm", 60)
	v.SetDefault("max_workers", DefaultMaxWorkers)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("inferbatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/inferbatch")
	}

	v.SetEnvPrefix("INFERBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}
