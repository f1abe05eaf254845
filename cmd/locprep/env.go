package main

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alnah/go-locprep/internal/config"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, the base configuration and the HTTP client.
type Environment struct {
	Now        func() time.Time
	Stdout     io.Writer
	Stderr     io.Writer
	Config     *config.Config // Used when no --config is given
	HTTPClient *http.Client   // nil = fetch defaults
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: config.DefaultConfig(),
	}
}
