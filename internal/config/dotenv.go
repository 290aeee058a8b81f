package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultDotEnvFiles are tried in order by LoadDotEnv when no paths are given.
var DefaultDotEnvFiles = []string{".env.local", ".env"}

// LoadDotEnv loads variables from dotenv files that exist. Variables already
// present in the environment win. It returns the files that were loaded.
func LoadDotEnv(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = DefaultDotEnvFiles
	}
	var loaded []string
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}
