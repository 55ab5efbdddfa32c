// Command varq queries process variants by structural pattern.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/varq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
