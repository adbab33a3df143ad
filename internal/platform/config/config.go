// Package config loads TOML configuration files into typed structs.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Error wraps a configuration load failure, distinguishing an unreadable file
// from one that fails to parse.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("config: %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Load reads the TOML file at path and decodes it into a value of type T.
func Load[T any](path string) (T, error) {
	var cfg T

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &Error{Op: "read", Err: err}
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, &Error{Op: "parse", Err: err}
	}

	return cfg, nil
}
