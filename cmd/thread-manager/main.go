package main

import (
	"fmt"
	"log"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/harsh-khajruia/thread-manager/internal/config"
)

// Build-time variables (injected via -ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
	goVersion = runtime.Version()
	platform  = runtime.GOOS + "/" + runtime.GOARCH

	port       string
	maxWorkers int
	namePrefix string

	cfg *config.Config
)

func getVersionInfo() string {
	commitHash := commit
	if len(commit) > 8 {
		commitHash = commit[:8]
	}
	return fmt.Sprintf("thread-manager %s (%s) built with %s on %s at %s",
		version, commitHash, goVersion, platform, date)
}

var rootCmd = &cobra.Command{
	Use:     "thread-manager",
	Version: version,
	Short:   "Thread pool manager with synchronization primitives",
	Long: `A thread-pool manager: submit units of work, track their lifecycle,
and coordinate groups of workers with barriers, semaphores and countdown
latches. Run the HTTP API for the visualization front-end or the CLI demo.`,
}

func init() {
	cfg = config.Load()

	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "", "Port to run the API server on")
	rootCmd.PersistentFlags().IntVarP(&maxWorkers, "workers", "w", 0, "Maximum number of worker slots (0 = CPU count)")
	rootCmd.PersistentFlags().StringVar(&namePrefix, "prefix", "", "Worker name prefix")
	rootCmd.SetVersionTemplate(getVersionInfo() + "\n")

	rootCmd.AddCommand(apiCmd, demoCmd)
}

// applyFlags lets CLI flags override environment configuration.
func applyFlags() {
	if port != "" {
		cfg.Server.Port = port
	}
	if maxWorkers != 0 {
		cfg.Pool.MaxWorkers = maxWorkers
	}
	if namePrefix != "" {
		cfg.Pool.NamePrefix = namePrefix
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
