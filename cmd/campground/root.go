package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/example/campground/internal/config"
)

// cli carries state shared by the subcommands.
type cli struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "campground",
		Short:         "Campground availability, assignment and waiting list service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.envFile == "" {
				return nil
			}
			// existing environment variables win over the file
			if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", c.envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file to load before reading CAMPGROUND_* variables")

	root.AddCommand(newServeCmd(c))
	root.AddCommand(newMigrateCmd(c))
	root.AddCommand(newPromoteCmd(c))
	root.AddCommand(newHashTokenCmd())

	return root
}

// load reads the configuration and builds the process logger, which writes
// JSON to w.
func (c *cli) load(w io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, newLogger(w, cfg.LogLevel), nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
