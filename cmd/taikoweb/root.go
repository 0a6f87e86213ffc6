package main

import (
	"sync"

	"taikoweb/config"
	"taikoweb/utils/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type commandContext struct {
	once   sync.Once
	config *config.Config
	log    *zap.Logger
	err    error
}

func (c *commandContext) ensure() (*config.Config, *zap.Logger, error) {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = err
			return
		}
		log, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.Debug)
		if err != nil {
			c.err = err
			return
		}
		c.config = cfg
		c.log = log
	})
	return c.config, c.log, c.err
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "taikoweb",
		Short:         "Song catalog ingestion service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newIngestCommand(ctx))
	rootCmd.AddCommand(newSweepCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))

	return rootCmd
}
