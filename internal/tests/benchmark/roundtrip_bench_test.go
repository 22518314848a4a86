package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/core/service"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/server/kvserver"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/storage/memory"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/client"
)

// ValueSizes are the SET payload sizes in bytes.
var ValueSizes = []int{16, 1024, 64 * 1024}

func startServer(b *testing.B, maxClients int) string {
	b.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := kvserver.NewDispatcher(service.NewKVService(memory.New()), log, nil)
	srv := kvserver.New(kvserver.Config{Addr: "127.0.0.1:0", MaxClients: maxClients}, d, log, nil)
	if err := srv.Start(context.Background()); err != nil {
		b.Fatalf("Start() error = %v", err)
	}
	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv.Addr().String()
}

func dial(b *testing.B, addr string) *client.Client {
	b.Helper()
	c, err := client.Dial(context.Background(), addr)
	if err != nil {
		b.Fatalf("Dial() error = %v", err)
	}
	b.Cleanup(func() { c.Close() })
	return c
}

func BenchmarkPing(b *testing.B) {
	c := dial(b, startServer(b, 1))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := c.Ping(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSetGet(b *testing.B) {
	for _, size := range ValueSizes {
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			c := dial(b, startServer(b, 1))
			ctx := context.Background()
			value := strings.Repeat("v", size)

			b.SetBytes(int64(size))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				key := fmt.Sprintf("key-%d", i%1024)
				if _, _, err := c.Set(ctx, key, value); err != nil {
					b.Fatal(err)
				}
				if _, _, err := c.Get(ctx, key); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkParallelClients(b *testing.B) {
	addr := startServer(b, 64)

	b.RunParallel(func(pb *testing.PB) {
		c, err := client.Dial(context.Background(), addr)
		if err != nil {
			b.Error(err)
			return
		}
		defer c.Close()

		ctx := context.Background()
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("p-%d", i%256)
			if _, _, err := c.Set(ctx, key, "42"); err != nil {
				b.Error(err)
				return
			}
			i++
		}
	})
}
