package main

import (
	"fmt"
	"os"

	"github.com/Davincible/polyrecover/internal/cli"
	"github.com/Davincible/polyrecover/internal/logger"
	"github.com/Davincible/polyrecover/pkg/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	rootCmd := cli.NewRootCommand(fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit))

	if err := rootCmd.Execute(); err != nil {
		log := logger.NewWithWriter(&config.LoggingConfig{Level: "error", Format: "text"}, os.Stderr)
		log.Errorw("Command execution failed", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}
}
