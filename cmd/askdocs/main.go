package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "askdocs",
		Short: "Document question answering with plan based task delegation",
	}
	root.AddCommand(serveCMD(), queryCMD(), loadCMD(), migrateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
