package command

import (
	"github.com/urfave/cli/v2"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/cli/output"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show client build information",
		Action: func(c *cli.Context) error {
			flags, err := ParseGlobalFlags(c)
			if err != nil {
				return err
			}
			return output.NewFormatter(flags.Output).Format(c.App.Writer, buildinfo.Get())
		},
	}
}
