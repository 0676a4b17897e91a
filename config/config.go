package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL" env-default:"postgresql://postgres@localhost:5432/timekeeper"`
	ServerPort  string `env:"SERVER_PORT" env-default:"8080"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
