package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/choropleth/internal/cli"
	"github.com/matzehuels/choropleth/pkg/errors"
)

// Exit codes. Bad input and bad configuration exit with 2 so scripts can
// tell them apart from I/O failures.
const (
	exitFailure     = 1
	exitInvalid     = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRoot().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(report(err))
	}
}

func newRoot() *cobra.Command {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true

	verbose := root.PersistentFlags().BoolP("verbose", "v", false, "log derivation details")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		if *verbose {
			c.SetLogLevel(cli.LogDebug)
		}
	}
	return root
}

// report prints err and returns the process exit code.
func report(err error) int {
	if stderrors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	fmt.Fprintln(os.Stderr, "choropleth:", err)
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidPalette,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return exitInvalid
	}
	return exitFailure
}
