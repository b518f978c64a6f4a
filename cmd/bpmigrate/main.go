// Package main is the entry point for bpmigrate.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/slfconversion/bpmigrate/internal/cmd"
	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var exitErr *oerrors.ExitError
		if errors.As(err, &exitErr) {
			// Only print if the command layer hasn't already printed it
			if !exitErr.Printed {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
