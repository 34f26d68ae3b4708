package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// RequiredEnvKeys lists the variables the config helper always asks for.
var RequiredEnvKeys = []string{
	"TELEGRAM_API_ID",
	"TELEGRAM_API_HASH",
	"GEMINI_API_KEY",
}

// WriteEnvFile stores values as a dotenv file, replacing any existing file.
// Entries with empty values are dropped.
func WriteEnvFile(path string, values map[string]string) error {
	env := make(map[string]string, len(values))
	for k, v := range values {
		if v != "" {
			env[k] = v
		}
	}

	for _, key := range RequiredEnvKeys {
		if env[key] == "" {
			return &ValidationError{Missing: missingKeys(env)}
		}
	}

	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func missingKeys(env map[string]string) []string {
	var missing []string
	for _, key := range RequiredEnvKeys {
		if env[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
