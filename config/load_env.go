package config

import (
	"log/slog"
	"path/filepath"

	"github.com/subosito/gotenv"
)

const envDir = "config/envs"

// LoadEnv loads config/envs/.env.<env> into the process environment. Variables
// already set in the OS environment win over the file.
func LoadEnv(env string) {
	envFile := filepath.Join(envDir, ".env."+env)
	if err := gotenv.Load(envFile); err != nil {
		slog.Warn("No .env file found, using OS environment", slog.String("file", envFile))
	}
}
