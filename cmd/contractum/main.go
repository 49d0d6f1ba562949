// Command contractum compiles, checks and registers contract interfaces.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/contractum/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := cli.NewRootCommand()
	root.SetArgs(args)
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "contractum: %v\n", err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
