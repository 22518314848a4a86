package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/cli/output"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/client"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

const variadic = -1

// kvAction sends one request over cl.
type kvAction func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error)

type kvSpec struct {
	name      string
	usage     string
	argsUsage string
	minArgs   int
	maxArgs   int
	action    kvAction
	// human adds a readable size next to a "size" field in table output.
	human bool
}

func kvCommands() []*cli.Command {
	specs := []kvSpec{
		{
			name: "ping", usage: "Check the server is alive", argsUsage: "[MESSAGE]",
			minArgs: 0, maxArgs: 1,
			action: func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error) {
				return cl.Ping(ctx, args...)
			},
		},
		{
			name: "get", usage: "Fetch a key", argsUsage: "KEY",
			minArgs: 1, maxArgs: 1,
			action: func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error) {
				return cl.Get(ctx, args[0])
			},
		},
		{
			name: "set", usage: "Store a value; words are joined and the type is inferred", argsUsage: "KEY VALUE...",
			minArgs: 1, maxArgs: variadic, human: true,
			action: func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error) {
				return cl.Execute(ctx, "SET", args...)
			},
		},
		{
			name: "delete", usage: "Remove a key", argsUsage: "KEY",
			minArgs: 1, maxArgs: 1,
			action: func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error) {
				return cl.Delete(ctx, args[0])
			},
		},
		{
			name: "flush", usage: "Remove every key",
			minArgs: 0, maxArgs: 0,
			action: func(ctx context.Context, cl *client.Client, _ []string) (resp.Value, time.Duration, error) {
				return cl.Flush(ctx)
			},
		},
		{
			name: "mget", usage: "Fetch several keys", argsUsage: "KEY...",
			minArgs: 0, maxArgs: variadic,
			action: func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error) {
				return cl.MGet(ctx, args...)
			},
		},
		{
			name: "mset", usage: "Store several raw string values", argsUsage: "KEY VALUE [KEY VALUE...]",
			minArgs: 0, maxArgs: variadic,
			action: func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error) {
				return cl.MSet(ctx, args...)
			},
		},
		{
			name: "edit", usage: "Overwrite an existing key", argsUsage: "KEY VALUE...",
			minArgs: 1, maxArgs: variadic, human: true,
			action: func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error) {
				return cl.Execute(ctx, "EDIT", args...)
			},
		},
		{
			name: "setfile", usage: "Store a file the server can read", argsUsage: "KEY PATH",
			minArgs: 2, maxArgs: 2, human: true,
			action: func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error) {
				path, err := filepath.Abs(args[1])
				if err != nil {
					path = args[1]
				}
				return cl.SetFile(ctx, args[0], path)
			},
		},
		{
			name: "getsize", usage: "Show the stored size of a key", argsUsage: "KEY",
			minArgs: 1, maxArgs: 1, human: true,
			action: func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error) {
				return cl.GetSize(ctx, args[0])
			},
		},
		{
			name: "testinsert", usage: "Store SIZE_KB kilobytes of random data", argsUsage: "KEY SIZE_KB",
			minArgs: 2, maxArgs: 2, human: true,
			action: func(ctx context.Context, cl *client.Client, args []string) (resp.Value, time.Duration, error) {
				kb, err := strconv.Atoi(args[1])
				if err != nil {
					// The server owns the error message.
					return cl.Execute(ctx, "TESTINSERT", args...)
				}
				return cl.TestInsert(ctx, args[0], kb)
			},
		},
	}

	cmds := make([]*cli.Command, 0, len(specs))
	for _, s := range specs {
		cmds = append(cmds, s.command())
	}
	return cmds
}

func (s kvSpec) command() *cli.Command {
	return &cli.Command{
		Name:      s.name,
		Usage:     s.usage,
		ArgsUsage: s.argsUsage,
		Action: func(c *cli.Context) error {
			n := c.NArg()
			if n < s.minArgs || (s.maxArgs != variadic && n > s.maxArgs) {
				return fmt.Errorf("usage: %s %s %s", c.App.Name, s.name, s.argsUsage)
			}
			return runKV(c, s)
		},
	}
}

// runKV dials, runs one request and prints the reply. A server error reply
// is printed like any other reply and returned as *client.CommandError.
func runKV(c *cli.Context, s kvSpec) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	cl, err := client.Dial(ctx, flags.Server)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", flags.Server, err)
	}
	defer cl.Close()

	reply, latency, err := s.action(ctx, cl, c.Args().Slice())
	var cmdErr *client.CommandError
	if err != nil && !errors.As(err, &cmdErr) {
		return err
	}

	if s.human && flags.Output == output.FormatTable {
		reply = output.WithHumanSize(reply)
	}
	if perr := printReply(c.App.Writer, c.App.ErrWriter, flags.Output, reply, latency); perr != nil {
		return perr
	}
	if cmdErr != nil {
		return cmdErr
	}
	return nil
}

// printReply writes the reply to w. The latency line goes to w for tables
// and to errW for json and yaml so the document stays parseable.
func printReply(w, errW io.Writer, format output.Format, reply resp.Value, latency time.Duration) error {
	if err := output.NewFormatter(format).Format(w, reply); err != nil {
		return err
	}
	if format != output.FormatTable {
		w = errW
	}
	_, err := fmt.Fprintln(w, output.FormatLatency(latency))
	return err
}
