package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alantheprice/angela/pkg/classifier"
	"github.com/alantheprice/angela/pkg/confirm"
	"github.com/alantheprice/angela/pkg/executor"
	"github.com/alantheprice/angela/pkg/journal"
)

// requestCmd implements §6's `request` command. The LLM client and prompt
// assembly that would normally turn natural language into a command
// suggestion are out of this core's scope; the enclosing tool is expected
// to have already resolved <text> into the command to classify and run.
var requestCmd = &cobra.Command{
	Use:   "request <command>",
	Short: "Classify, confirm, and execute a suggested command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suggestOnly, _ := cmd.Flags().GetBool("suggest-only")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		force, _ := cmd.Flags().GetBool("force")

		command := args[0]

		core, err := openCore()
		if err != nil {
			return err
		}
		defer core.Close()

		verdict := core.classifier.Classify(command, classifier.Environment{})
		core.logger.Logf("classified %q as %s: %s", command, verdict.RiskLevel, verdict.Reason)
		fmt.Fprintf(cmd.OutOrStdout(), "risk: %s (%s)\n", verdict.RiskLevel, verdict.Reason)

		if suggestOnly {
			return exitIfRefused(verdict)
		}

		decision := core.gate.Decide(command, verdict, confirm.Flags{Force: force, DryRun: dryRun})
		switch decision {
		case confirm.Deny:
			fmt.Fprintf(cmd.ErrOrStderr(), "refused: %s\n", verdict.Reason)
			os.Exit(1)
		case confirm.PresentOnly:
			fmt.Fprintf(cmd.OutOrStdout(), "dry-run: %s\n", command)
			return nil
		case confirm.Prompt:
			if !core.formatter.Confirm(confirm.PromptRequest{Command: command, Result: verdict}) {
				fmt.Fprintln(cmd.ErrOrStderr(), "not confirmed")
				os.Exit(1)
			}
		case confirm.Allow:
			// fall through to execution
		}

		return runAndJournal(cmd, core, command)
	},
}

func exitIfRefused(verdict classifier.Result) error {
	if verdict.Refused {
		os.Exit(1)
	}
	return nil
}

func runAndJournal(cmd *cobra.Command, core *core, command string) error {
	ctx := context.Background()
	res, err := core.shell.Run(ctx, executor.Request{
		Command: command,
		OnOutput: func(stream, chunk string) {
			if stream == "stderr" {
				fmt.Fprint(cmd.ErrOrStderr(), chunk)
			} else {
				fmt.Fprint(cmd.OutOrStdout(), chunk)
			}
		},
	})
	if err != nil {
		core.logger.LogError(err)
		return err
	}

	opID, jerr := core.journal.AddOperation(ctx, nil, journal.KindShellCommand, command,
		map[string]string{"command": command}, nil)
	if jerr == nil {
		if res.ExitCode == 0 {
			_ = core.journal.CommitOperation(ctx, opID)
		} else {
			_ = core.journal.FailOperation(ctx, opID, fmt.Errorf("exit %d", res.ExitCode))
		}
	}

	if res.ErrorAnalysis != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "probable cause: %s\n", res.ErrorAnalysis.ProbableCause)
		for _, fix := range res.ErrorAnalysis.FixSuggestions {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", fix)
		}
	}

	if res.ExitCode != 0 {
		os.Exit(res.ExitCode)
	}
	return nil
}

func init() {
	requestCmd.Flags().Bool("suggest-only", false, "classify and print the risk verdict without executing")
	requestCmd.Flags().Bool("dry-run", false, "present what would run without executing it")
	requestCmd.Flags().Bool("force", false, "bypass confirmation for non-refused commands")
	rootCmd.AddCommand(requestCmd)
}
