package config

import (
	"fmt"
	"os"
)

// ConfigurationError reports missing credentials or malformed
// invocation, detected before any network call is made.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Msg }

// ResolveAPIKey returns the credential to use: the positional argument
// when given, otherwise the named environment variable.
func ResolveAPIKey(arg, envName string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if v := os.Getenv(envName); v != "" {
		return v, nil
	}
	return "", &ConfigurationError{
		Msg: fmt.Sprintf("no API key: pass it as an argument or set $%s", envName),
	}
}
