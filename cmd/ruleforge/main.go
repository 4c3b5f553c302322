package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes. Evaluation failure is distinct from operational errors so
// CI pipelines can gate on it.
const (
	exitCodeError      = 1
	exitCodeEvalFailed = 2
)

// exitError carries an explicit process exit code through cobra's error
// return path.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	root := &cobra.Command{
		Use:           "ruleforge",
		Short:         "Synthesize form-fill rules from requirement logic and evaluate rule sets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var configPath string
	var debug bool
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	root.AddCommand(newSynthesizeCmd(&configPath))
	root.AddCommand(newEvaluateCmd(&configPath))
	root.AddCommand(newSchemasCmd())

	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.err != nil {
				fmt.Fprintln(os.Stderr, ee.err)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeError)
	}
}
