package command

import (
	"fmt"
	"sort"

	"github.com/docker/go-units"
	"github.com/urfave/cli/v2"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/cli/output"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/storage/snapshot"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// DumpCommand reads a snapshot file directly, without a server.
func DumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Print the contents of a snapshot file",
		ArgsUsage: "[KEY...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Snapshot file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "encryption-key",
				Usage:   "Passphrase of an encrypted snapshot",
				EnvVars: []string{"KRISHNADB_STORAGE_ENCRYPTION_KEY"},
			},
		},
		Action: dumpAction,
	}
}

func dumpAction(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	mgr, err := snapshot.NewManager(snapshot.Config{
		Path:          c.String("file"),
		EncryptionKey: []byte(c.String("encryption-key")),
	})
	if err != nil {
		return err
	}
	data, info, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	keys := c.Args().Slice()
	if len(keys) == 0 {
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	pairs := make([]resp.Pair, 0, len(keys))
	for _, k := range keys {
		v, ok := data[k]
		if !ok {
			v = resp.Null()
		}
		pairs = append(pairs, resp.Pair{Key: resp.String(k), Value: v})
	}

	fmt.Fprintf(c.App.ErrWriter, "%s: %d keys, %s, encrypted=%t\n",
		info.Path, info.KeyCount, units.HumanSize(float64(info.Size)), info.Encrypted)

	return output.NewFormatter(flags.Output).Format(c.App.Writer, resp.Map(pairs...))
}
