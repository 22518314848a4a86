package kvserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/core/domain"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/core/service"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/telemetry/logger"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/telemetry/metric"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// Command names.
const (
	CmdPing       = "PING"
	CmdGet        = "GET"
	CmdSet        = "SET"
	CmdDelete     = "DELETE"
	CmdFlush      = "FLUSH"
	CmdMGet       = "MGET"
	CmdMSet       = "MSET"
	CmdEdit       = "EDIT"
	CmdSetFile    = "SETFILE"
	CmdGetSize    = "GETSIZE"
	CmdTestInsert = "TESTINSERT"
)

// variadic marks a command without an upper argument bound.
const variadic = -1

type handlerFunc func(ctx context.Context, args []string) (resp.Value, error)

// command is one entry of the dispatch table. Argument counts exclude
// the command name.
type command struct {
	name    string
	minArgs int
	maxArgs int
	handler handlerFunc
}

func (c command) arityOK(n int) bool {
	if n < c.minArgs {
		return false
	}
	return c.maxArgs == variadic || n <= c.maxArgs
}

// Dispatcher maps a decoded request onto a KVService operation and turns
// every outcome, including a panic, into a single response value.
type Dispatcher struct {
	svc      *service.KVService
	commands map[string]command
	logger   *slog.Logger
	metrics  *metric.Registry
}

// NewDispatcher creates a Dispatcher over svc. A nil logger falls back to
// slog.Default; a nil metrics registry disables instrumentation.
func NewDispatcher(svc *service.KVService, log *slog.Logger, metrics *metric.Registry) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		svc:     svc,
		logger:  log,
		metrics: metrics,
	}
	d.commands = d.table()
	return d
}

func (d *Dispatcher) table() map[string]command {
	cmds := []command{
		{CmdPing, 0, 1, func(ctx context.Context, args []string) (resp.Value, error) {
			return d.svc.Ping(ctx, args...), nil
		}},
		{CmdGet, 1, 1, func(ctx context.Context, args []string) (resp.Value, error) {
			return d.svc.Get(ctx, args[0]), nil
		}},
		{CmdSet, 1, variadic, func(ctx context.Context, args []string) (resp.Value, error) {
			return d.svc.Set(ctx, args[0], args[1:]...), nil
		}},
		{CmdDelete, 1, 1, func(ctx context.Context, args []string) (resp.Value, error) {
			return d.svc.Delete(ctx, args[0]), nil
		}},
		{CmdFlush, 0, 0, func(ctx context.Context, _ []string) (resp.Value, error) {
			return d.svc.Flush(ctx), nil
		}},
		{CmdMGet, 0, variadic, func(ctx context.Context, args []string) (resp.Value, error) {
			return d.svc.MGet(ctx, args...), nil
		}},
		{CmdMSet, 0, variadic, func(ctx context.Context, args []string) (resp.Value, error) {
			return d.svc.MSet(ctx, args...), nil
		}},
		{CmdEdit, 1, variadic, func(ctx context.Context, args []string) (resp.Value, error) {
			return d.svc.Edit(ctx, args[0], args[1:]...), nil
		}},
		{CmdSetFile, 2, 2, func(ctx context.Context, args []string) (resp.Value, error) {
			return d.svc.SetFile(ctx, args[0], args[1])
		}},
		{CmdGetSize, 1, 1, func(ctx context.Context, args []string) (resp.Value, error) {
			return d.svc.GetSize(ctx, args[0]), nil
		}},
		{CmdTestInsert, 2, 2, func(ctx context.Context, args []string) (resp.Value, error) {
			return d.svc.TestInsert(ctx, args[0], args[1])
		}},
	}

	m := make(map[string]command, len(cmds))
	for _, c := range cmds {
		m[c.name] = c
	}
	return m
}

// Commands returns the registered command names.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	return names
}

// Dispatch executes one request. It never returns a Go error: failures
// come back as resp error values so the connection can keep going.
func (d *Dispatcher) Dispatch(ctx context.Context, req resp.Value) resp.Value {
	items, ok := req.AsList()
	if !ok {
		return errorReply(domain.ErrInvalidFormat)
	}
	if len(items) == 0 {
		return errorReply(domain.ErrEmptyCommand)
	}

	rawName, ok := items[0].Text()
	if !ok {
		return errorReply(domain.ErrInvalidArgument)
	}
	name := normalizeCommandName(rawName)

	cmd, ok := d.commands[name]
	if !ok {
		return errorReply(domain.ErrUnknownCommand(name))
	}

	args, err := textArgs(items[1:])
	if err != nil {
		return errorReply(err)
	}
	if !cmd.arityOK(len(args)) {
		return errorReply(domain.ErrWrongArity(name))
	}

	return d.run(ctx, cmd, args)
}

func (d *Dispatcher) run(ctx context.Context, cmd command, args []string) (reply resp.Value) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("command panicked",
				"conn_id", logger.ConnIDFromContext(ctx),
				"command", cmd.name,
				"panic", fmt.Sprint(r),
			)
			reply = errorReply(domain.AsCommandError(fmt.Errorf("panic: %v", r)))
		}
		d.metrics.ObserveCommand(cmd.name, reply.IsError(), time.Since(start))
	}()

	v, err := cmd.handler(ctx, args)
	if err != nil {
		if !domain.IsCommandError(err) {
			d.logger.Warn("command failed",
				"conn_id", logger.ConnIDFromContext(ctx),
				"command", cmd.name,
				"error", err,
			)
		}
		return errorReply(err)
	}
	return v
}

// normalizeCommandName upper-cases a command keyword. A Caser holds state,
// so one is built per call.
func normalizeCommandName(name string) string {
	return cases.Upper(language.Und).String(name)
}

// textArgs accepts text and bytes elements; any other kind fails the command.
func textArgs(items []resp.Value) ([]string, error) {
	args := make([]string, len(items))
	for i, item := range items {
		s, ok := item.Text()
		if !ok {
			return nil, domain.ErrInvalidArgument
		}
		args[i] = s
	}
	return args, nil
}

func errorReply(err error) resp.Value {
	ce := domain.AsCommandError(err)
	return resp.Error(ce.Message, ce.Code)
}
