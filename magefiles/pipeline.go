//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Harvest builds the binary and runs the full pipeline with defaults.
func Harvest() error {
	mg.Deps(Build, Init)
	return runBinary("run")
}

// Index builds the binary and rebuilds the catalog index from the table.
func Index() error {
	mg.Deps(Build)
	return runBinary("index", "build")
}

func runBinary(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", binName, args, err)
	}
	return nil
}
