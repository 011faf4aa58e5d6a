package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lemonhall/oa-mvp/internal/cli"
)

var rootCmd = &cobra.Command{Use: "oa-server"}

func main() {
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
