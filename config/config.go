package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/diskdump/diskdump/dump"
)

// Config is the full on-disk configuration. Every key has a default, so a
// missing config file is not an error.
type Config struct {
	Transfer Transfer
	Progress Progress
	Safety   Safety
	Debug    bool
}

func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("DISKDUMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Only a present-but-unreadable file is fatal.
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("transfer.block_size", "4MiB")
	v.SetDefault("transfer.compression_level", dump.DefaultLevel)
	v.SetDefault("transfer.sync_each_write", true)
	v.SetDefault("progress.interval", "1s")
	v.SetDefault("safety.allowed_devices", []string{})
}
