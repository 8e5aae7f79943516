// Package main provides an interactive terminal front end for the resume wizard.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Resume wizard in the terminal",
	Long:  "Walks through the resume wizard steps interactively, checkpointing to the configured session store and generating the scored resume through the configured LLM provider.",
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
