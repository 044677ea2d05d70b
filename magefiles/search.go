//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs one search for $QUESTION, using
// credentials from .secrets/ or the environment.
func Search() error {
	mg.Deps(Build)
	question := os.Getenv("QUESTION")
	if question == "" {
		return fmt.Errorf("set QUESTION, e.g. QUESTION=\"heat pump defrost\" mage search")
	}
	return sh.RunV(filepath.Join(binDir, binName), "search", question)
}

// Serve builds the CLI and starts the local web form.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve")
}
