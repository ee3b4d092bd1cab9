package main

import (
	"os"

	"github.com/PabloGalante/prima-scholar/internal/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		observability.Logger().Debug("command failed", "error", err)
		os.Exit(1)
	}
}
