package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/orchestrator"
	"github.com/spf13/cobra"
)

func queryCMD() *cobra.Command {
	var cfgPath string
	var mode string
	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Ask a question, or start an interactive session with no arguments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()
			deps, err := buildDeps(ctx, cfg)
			if err != nil {
				return err
			}
			m := orchestrator.Mode(mode)

			if len(args) > 0 {
				return ask(ctx, deps.Orchestrator, strings.Join(args, " "), m)
			}

			scanner := bufio.NewScanner(os.Stdin)
			fmt.Println("Enter a question, or 'exit' to quit.")
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				if err := ask(ctx, deps.Orchestrator, line, m); err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
			}
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "auto", "routing mode: auto, direct or plan")
	return cmd
}

func ask(ctx context.Context, orch *orchestrator.Orchestrator, question string, mode orchestrator.Mode) error {
	answer, err := orch.Respond(ctx, question, mode)
	if err != nil {
		return err
	}
	if answer.PlanText != "" {
		fmt.Println("Plan:")
		fmt.Println(strings.TrimSpace(answer.PlanText))
		fmt.Println()
	}
	for _, step := range answer.Steps {
		fmt.Printf("[%d] %s (%s)\n%s\n\n", step.Index+1, step.Task, step.Assistant.DisplayName(), step.Display)
	}
	if len(answer.Steps) == 0 {
		fmt.Println(answer.Text)
	}
	return nil
}
