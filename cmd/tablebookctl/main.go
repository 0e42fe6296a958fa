package main

import (
	"fmt"
	"os"

	"tablebook/internal/shared/config"
	"tablebook/internal/shared/database"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

type globalFlags struct {
	sqlitePath string
	noRedis    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "tablebookctl",
		Short:        "Support tooling for the table booking engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.sqlitePath, "sqlite", "", "use a local SQLite file instead of Postgres")
	root.PersistentFlags().BoolVar(&flags.noRedis, "no-redis", false, "run without Redis (in-process locks, no cache)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newMigrateCmd(flags))
	root.AddCommand(newSeedCmd(flags))
	root.AddCommand(newAvailabilityCmd(flags))
	root.AddCommand(newDiagnoseCmd(flags))

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tablebookctl %s (%s)\n", Version, GitCommit)
		},
	}
}

// loadConfig reads the environment and applies the global flags on top
func (f *globalFlags) loadConfig() *config.Config {
	_ = godotenv.Load()
	cfg := config.Load()
	if f.sqlitePath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.SQLitePath = f.sqlitePath
	}
	if f.noRedis {
		cfg.Redis.Enabled = false
	}
	// The CLI's own output is the report; keep SQL logging quiet
	cfg.GinMode = "release"
	return cfg
}

// open connects and migrates, so every command works against a fresh SQLite file
func (f *globalFlags) open() (*config.Config, *database.DB, error) {
	cfg := f.loadConfig()
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
