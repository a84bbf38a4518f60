package config

import "github.com/joho/godotenv"

// LoadEnv loads variables from a .env file in the working directory.
// Variables already present in the environment take precedence.
// The returned error satisfies os.IsNotExist when no .env file exists.
func LoadEnv() error {
	return godotenv.Load()
}
