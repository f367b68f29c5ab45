package config

import (
	"os"
	"path/filepath"

	"yamo/treasury/internal/logging"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from a .env file in the working directory or its
// parent, when one exists. Variables already set are not overridden.
func LoadEnv(logger logging.Logger) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			logger.Debug("No .env file found, using environment variables")
			return
		}
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.WithError(err).Warn("Error loading .env file")
		return
	}
	logger.Debug("Loaded environment variables", logging.F(logging.FieldFile, envFile))
}
