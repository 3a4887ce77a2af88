package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type SwanDBConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Workdir  string `mapstructure:"workdir"`
		PoolSize int    `mapstructure:"pool_size"`
	} `mapstructure:"storage"`

	Debug bool `mapstructure:"debug"`
}

func LoadConfig(path string) (*SwanDBConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app_name", "swandb")
	v.SetDefault("storage.workdir", "./data")
	v.SetDefault("storage.pool_size", 128)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg SwanDBConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
