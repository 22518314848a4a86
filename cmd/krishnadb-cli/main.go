// Command krishnadb-cli runs one KrishnaDB command per invocation.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/cli/command"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/client"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		// Error replies were already printed with the result.
		var cmdErr *client.CommandError
		if !errors.As(err, &cmdErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
