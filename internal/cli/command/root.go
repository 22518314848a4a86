package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/cli/config"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/cli/output"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/infra/buildinfo"
)

// Defaults for the global flags.
const (
	DefaultServer  = "127.0.0.1:6666"
	DefaultAdmin   = "127.0.0.1:6667"
	DefaultTimeout = 30 * time.Second
)

// App creates the CLI application.
func App() *cli.App {
	commands := kvCommands()
	commands = append(commands, HealthCommand(), DumpCommand(), VersionCommand())

	return &cli.App{
		Name:                 "krishnadb-cli",
		Usage:                "KrishnaDB command-line client",
		Version:              buildinfo.Get().Version,
		Flags:                globalFlags(),
		Commands:             commands,
		Before:               applyConfigFile,
		EnableBashCompletion: true,
	}
}

// applyConfigFile fills global flags that were not set on the command line
// or in the environment from the CLI config file.
func applyConfigFile(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	for name, value := range cfg.Flags() {
		if c.IsSet(name) {
			continue
		}
		if err := c.Set(name, value); err != nil {
			return fmt.Errorf("cli config %s: %w", name, err)
		}
	}
	return nil
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI defaults file",
			EnvVars: []string{"KRISHNADB_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "KrishnaDB server address (host:port)",
			EnvVars: []string{"KRISHNADB_SERVER"},
			Value:   DefaultServer,
		},
		&cli.StringFlag{
			Name:    "admin",
			Usage:   "Admin HTTP address for the health command",
			EnvVars: []string{"KRISHNADB_ADMIN"},
			Value:   DefaultAdmin,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Deadline for connecting and the round trip",
			EnvVars: []string{"KRISHNADB_TIMEOUT"},
			Value:   DefaultTimeout,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Admin   string
	Output  output.Format
	Timeout time.Duration
}

// ParseGlobalFlags extracts and validates global flags from context.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	timeout := c.Duration("timeout")
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}
	return &GlobalFlags{
		Server:  c.String("server"),
		Admin:   c.String("admin"),
		Output:  format,
		Timeout: timeout,
	}, nil
}
