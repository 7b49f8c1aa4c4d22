package main

import (
	"context"

	"github.com/joho/godotenv"

	"teamline/internal/app"
	"teamline/pkg/config"
	"teamline/pkg/logger"
	"teamline/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])
	eff, err := config.LoadEffective(cfgPath)
	if err != nil {
		shutdown.Abort("config load failed", err, "")
	}

	// Explicit flags win over env and config file.
	if setFlags["addr"] {
		eff.Addr = addrVal
		eff.Source = "flags"
	}
	if setFlags["db"] {
		eff.DBPath = dbVal
		eff.Source = "flags"
	}

	logger.InitWithLevel(eff.Config.Logging.Level)

	stateDir := eff.DBPath
	if stateDir == ":memory:" {
		stateDir = "" // crash dumps go to ./crash for a volatile store
	}

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, stateDir)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err, stateDir)
	}
	logger.Info("server_stopped")
}
