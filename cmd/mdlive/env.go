package main

import (
	"io"
	"os"
	"time"

	"github.com/go-rod/rod/lib/launcher"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time and the browser launcher.
type Environment struct {
	Now         func() time.Time
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	OpenBrowser func(url string)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:         time.Now,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		OpenBrowser: launcher.Open,
	}
}
