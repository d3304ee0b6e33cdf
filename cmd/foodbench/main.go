// cmd/foodbench/main.go
package main

import (
	"fmt"
	"os"

	"github.com/mwiater/foodbench/internal/appconfig"
	cmd "github.com/mwiater/foodbench/internal/cli"
	"github.com/mwiater/foodbench/internal/logging"
)

// Build metadata injected via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Indirection points so tests can stub process wiring.
var (
	loadConfig     = appconfig.Load
	initLogging    = logging.Init
	closeLogging   = logging.Close
	setVersionInfo = cmd.SetVersionInfo
	executeCmd     = cmd.Execute
)

// main wires logging and version metadata, then delegates to the cobra
// root command. Flag-driven config overrides are applied later by the
// root command's PersistentPreRunE, which re-initializes logging with
// the resolved log path.
func main() {
	cfg, err := loadConfig("")
	if err != nil {
		cfg = appconfig.Config{}
	}

	if err := initLogging(cfg.LogFilePath()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeLogging() }()

	setVersionInfo(version, commit, date)
	executeCmd()
}
