package main

import (
	"fmt"
	"os"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own error output; Execute's error carries
		// only the exit code.
		code := cli.GetExitCode(err)
		if code == 0 {
			code = cli.ExitFailure
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}
