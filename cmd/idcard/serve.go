package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/idcard-tools/internal/card"
	"github.com/ironsheep/idcard-tools/internal/imaging"
	"github.com/ironsheep/idcard-tools/internal/server"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the card tools over MCP on stdin/stdout",
		Long: `serve runs an MCP (Model Context Protocol) server over stdio exposing
template_info, template_detect_regions, template_classify_regions and
card_render. Configure it in your MCP client; logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := opts.newLogger()
			if err != nil {
				return err
			}
			engine, err := card.Build(cfg, nil, card.WithLogger(logger))
			if err != nil {
				return err
			}

			logger.Info("mcp server starting", "version", Version, "commit", GitCommit)
			srv := server.New(engine, imaging.NewImageCache(cfg.PDFDPI), logger, Version)
			return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}
