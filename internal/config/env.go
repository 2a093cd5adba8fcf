package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

// envFiles are tried in order; every file found is loaded.
// Existing process environment variables are never overwritten.
var envFiles = []string{".env", ".env.local"}

func loadEnvFile(root string) error {
	for _, name := range envFiles {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "cannot parse environment file").
				Fatal().WithContext("file", path).Build()
		}
	}
	return nil
}
