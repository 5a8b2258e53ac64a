package server_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"go-gin-gorm-users/internal/core/server"
)

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "pong") })
	srv := server.BuildServer(ln.Addr().String(), h, time.Second, time.Second, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, srv, ln, zap.NewNop(), time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("body = %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	srv := server.BuildServer(ln.Addr().String(), http.NotFoundHandler(), time.Second, time.Second, time.Second, nil)
	if err := server.Run(context.Background(), srv, zap.NewNop(), time.Second); err == nil {
		t.Fatal("expected listen error on a busy port")
	}
}

func TestAddr(t *testing.T) {
	if got := server.Addr("0.0.0.0", 8080); got != "0.0.0.0:8080" {
		t.Fatalf("Addr = %q", got)
	}
}
