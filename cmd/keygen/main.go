package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Key tooling for the portal notification backend",
	}
)

func init() {
	rootCmd.AddCommand(vapidCmd, serviceTokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
