package main

import (
	"context"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			deps, err := buildDeps(context.Background(), cfg)
			if err != nil {
				return err
			}
			return server.Run(deps)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")
	return cmd
}
