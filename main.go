/*
Package main provides the entry point for the Angela CLI application.

Angela is an AI-augmented command-line assistant: it proposes shell commands
or multi-step plans, classifies their risk, obtains confirmation where
required, executes them, and can roll them back.
*/
package main

import (
	"fmt"
	"os"

	"github.com/alantheprice/angela/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
