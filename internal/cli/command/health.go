package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/cli/connection"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/cli/output"
)

// HealthCommand queries the admin HTTP endpoint.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server health through the admin endpoint",
		Action: healthAction,
	}
}

type healthResult struct {
	Status  string `json:"status" yaml:"status"`
	Ready   bool   `json:"ready" yaml:"ready"`
	Keys    int    `json:"keys" yaml:"keys"`
	Version string `json:"version" yaml:"version"`
	Admin   string `json:"admin" yaml:"admin"`
}

func healthAction(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	hc := connection.NewHTTPClient(flags.Admin, flags.Timeout)
	h, err := hc.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check %s: %w", hc.BaseURL(), err)
	}
	ready, err := hc.Ready(ctx)
	if err != nil {
		return fmt.Errorf("readiness check %s: %w", hc.BaseURL(), err)
	}

	return output.NewFormatter(flags.Output).Format(c.App.Writer, healthResult{
		Status:  h.Status,
		Ready:   ready,
		Keys:    h.Keys,
		Version: h.Version,
		Admin:   hc.BaseURL(),
	})
}
