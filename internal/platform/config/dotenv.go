package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// LoadDotEnv merges the KEY=VALUE file named by ENV_FILE (default .env) into
// the process environment. Variables already set win. It returns the path it
// loaded, or "" when the file does not exist.
func LoadDotEnv() (string, error) {
	path := getenv("ENV_FILE", defaultEnvFile)
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	return path, nil
}
