package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/apicompat/core/cli"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var global cli.GlobalOptions
	a := newApp(os.Stdout, os.Stderr, &global)

	root := cli.NewRootCmd(version, &global)
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		a.initLogging()
	}
	root.AddCommand(cli.NewCompareCmd(a.runCompare))
	root.AddCommand(cli.NewGoCmd(a.runGo))
	root.AddCommand(cli.NewExtractCmd(a.runExtract))
	configCmd := cli.NewConfigCmd()
	configCmd.AddCommand(cli.NewConfigValidateCmd(a.runConfigValidate))
	root.AddCommand(configCmd)

	err := root.ExecuteContext(ctx)
	code := cli.ExitCodeOf(err)
	if code == cli.ExitError {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	stop()
	os.Exit(code)
}
