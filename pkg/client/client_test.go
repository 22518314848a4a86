package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/core/service"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/server/kvserver"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/storage/memory"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

func startServer(t *testing.T) string {
	t.Helper()
	d := kvserver.NewDispatcher(service.NewKVService(memory.New()), nil, nil)
	srv := kvserver.New(kvserver.Config{Addr: "127.0.0.1:0"}, d, nil, nil)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv.Addr().String()
}

// fakeServer hands each decoded request to fn. A nil reply closes the
// connection.
func fakeServer(t *testing.T, fn func(req resp.Value) *resp.Value) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveFake(conn, fn)
		}
	}()
	return ln.Addr().String()
}

func serveFake(conn net.Conn, fn func(req resp.Value) *resp.Value) {
	defer conn.Close()
	r, w := resp.NewReader(conn), resp.NewWriter(conn)
	for {
		req, err := r.Read()
		if err != nil {
			return
		}
		reply := fn(req)
		if reply == nil {
			return
		}
		if err := w.Write(*reply); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Commands(t *testing.T) {
	c := dial(t, startServer(t))
	ctx := context.Background()

	v, latency, err := c.Ping(ctx)
	if err != nil || !v.Equal(resp.String("PONG")) {
		t.Fatalf("Ping() = %v, %v", v, err)
	}
	if latency <= 0 {
		t.Errorf("latency = %v, want > 0", latency)
	}

	if v, _, _ := c.Ping(ctx, "hi"); !v.Equal(resp.String("hi")) {
		t.Errorf("Ping(hi) = %v", v)
	}

	if _, _, err := c.Set(ctx, "name", "krishna"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _, _ := c.Get(ctx, "name"); !v.Equal(resp.String("krishna")) {
		t.Errorf("Get() = %v, want krishna", v)
	}
	if v, _, _ := c.Edit(ctx, "name", "radha"); v.IsError() {
		t.Errorf("Edit() = %v", v)
	}
	if v, _, _ := c.MGet(ctx, "name", "missing"); v.Len() != 2 || !v.Index(1).IsNull() {
		t.Errorf("MGet() = %v", v)
	}
	if _, _, err := c.MSet(ctx, "a", "1", "b", "2"); err != nil {
		t.Errorf("MSet() error = %v", err)
	}
	if v, _, _ := c.Get(ctx, "a"); !v.Equal(resp.String("1")) {
		t.Errorf("Get(a) = %v, want 1", v)
	}
	if _, _, err := c.TestInsert(ctx, "blob", 2); err != nil {
		t.Errorf("TestInsert() error = %v", err)
	}
	if v, _, err := c.GetSize(ctx, "blob"); err != nil || v.IsNull() {
		t.Errorf("GetSize() = %v, %v", v, err)
	}
	if v, _, _ := c.Delete(ctx, "a"); !v.Equal(resp.String("OK")) {
		t.Errorf("Delete() = %v", v)
	}
	if _, _, err := c.Flush(ctx); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
	if v, _, _ := c.Get(ctx, "name"); !v.IsNull() {
		t.Errorf("Get() after Flush = %v", v)
	}
}

func TestClient_CommandError(t *testing.T) {
	c := dial(t, startServer(t))
	ctx := context.Background()

	_, _, err := c.Execute(ctx, "NOPE")
	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("Execute(NOPE) error = %v, want *CommandError", err)
	}
	if ce.Message != "Unknown command NOPE" || ce.Code != 500 {
		t.Errorf("CommandError = %+v", ce)
	}

	if _, _, err := c.Ping(ctx); err != nil {
		t.Errorf("Ping() after command error = %v", err)
	}
}

func TestClient_TransportErrorBreaksClient(t *testing.T) {
	addr := fakeServer(t, func(resp.Value) *resp.Value { return nil })
	c := dial(t, addr)
	ctx := context.Background()

	_, _, err := c.Ping(ctx)
	if !IsTransportError(err) {
		t.Fatalf("Ping() error = %v, want TransportError", err)
	}

	_, _, err = c.Ping(ctx)
	if !IsTransportError(err) {
		t.Errorf("second Ping() error = %v, want TransportError", err)
	}
}

func TestClient_ContextDeadline(t *testing.T) {
	addr := fakeServer(t, func(resp.Value) *resp.Value {
		time.Sleep(500 * time.Millisecond)
		v := resp.String("late")
		return &v
	})
	c := dial(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := c.Ping(ctx)
	if !IsTransportError(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Ping() error = %v, want deadline TransportError", err)
	}
}

func TestClient_CancelAfterReplyKeepsClientUsable(t *testing.T) {
	cancels := make(chan context.CancelFunc, 1)
	addr := fakeServer(t, func(resp.Value) *resp.Value {
		select {
		case cancel := <-cancels:
			cancel()
		default:
		}
		v := resp.String("PONG")
		return &v
	})

	for i := 0; i < 100; i++ {
		c := dial(t, addr)
		ctx, cancel := context.WithCancel(context.Background())
		cancels <- cancel
		_, _, err := c.Ping(ctx)
		cancel()
		select {
		case <-cancels:
		default:
		}
		if err != nil {
			// Cancellation beat the reply; the client is broken as documented.
			continue
		}

		if _, _, err := c.Ping(context.Background()); err != nil {
			t.Fatalf("iteration %d: Ping() after a completed call = %v", i, err)
		}
	}
}

func TestClient_Close(t *testing.T) {
	c := dial(t, startServer(t))

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, _, err := c.Ping(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after Close = %v, want ErrClosed", err)
	}
}

func TestDial_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Dial(context.Background(), addr, WithDialTimeout(time.Second)); !IsTransportError(err) {
		t.Errorf("Dial() error = %v, want TransportError", err)
	}
}
