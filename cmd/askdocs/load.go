package main

import (
	"context"
	"fmt"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/docstore"
	"github.com/mosaibah/askdocs/internal/llm"
	"github.com/spf13/cobra"
)

func loadCMD() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "load <dir>",
		Short: "Index every document under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()

			var provider llm.Provider
			if cfg.DocStore.Backend == "chroma" {
				p, err := llm.NewDefaultProvider(cfg.LLM)
				if err != nil {
					return err
				}
				provider = p
			}
			docs, err := docstore.New(cfg.DocStore, provider, cfg.LLM.Routing.Embedding)
			if err != nil {
				return err
			}
			n, err := docstore.LoadDir(ctx, docs, args[0], nil)
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d chunks\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")
	return cmd
}
