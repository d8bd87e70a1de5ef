// Package cmd implements Angela's command-line surface (§6): `request` for
// a single classified-and-confirmed command, and `rollback` for reversing
// journaled operations and transactions.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "angela",
	Short: "AI-augmented command execution with safety classification and rollback",
	Long: `Angela classifies, confirms, executes, and journals shell commands and
filesystem operations on the user's behalf, so an AI collaborator's
suggestions can be run with reversible, audited side effects.

Available commands:
  request   - classify, confirm, and execute a suggested command
  rollback  - inspect or reverse journaled operations and transactions`,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}
