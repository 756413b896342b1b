package bus

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/loqalabs/courtcall/internal/config"
	"github.com/loqalabs/courtcall/internal/natsserver"
	"github.com/nats-io/nats.go"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestConnectRequiresServers(t *testing.T) {
	if _, err := Connect(context.Background(), config.BusConfig{}, "test", newLogger()); err == nil {
		t.Fatal("expected error without servers")
	}
}

func TestExternalBusSkipsEmbeddedServer(t *testing.T) {
	srv, err := natsserver.Start(config.BusConfig{Embedded: false}, newLogger())
	if err != nil || srv != nil {
		t.Fatalf("expected no embedded server, got %v %v", srv, err)
	}
	if srv.ClientURL() != "" {
		t.Fatal("nil server should have no client url")
	}
	srv.Shutdown()
}

func TestRequestJSON(t *testing.T) {
	log := newLogger()
	srv, err := natsserver.Start(config.BusConfig{Embedded: true, Port: -1}, log)
	if err != nil {
		t.Fatalf("start nats: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	client, err := Connect(context.Background(), config.BusConfig{Servers: []string{srv.ClientURL()}, ConnectTimeout: 2000, RequestTimeout: 1000}, "bus-test", log)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(client.Close)
	if !client.Healthy() {
		t.Fatal("expected healthy client")
	}

	type echo struct {
		Court string `json:"court"`
	}
	_, err = client.Conn().Subscribe("echo", func(msg *nats.Msg) {
		_ = msg.Respond(msg.Data)
	})
	if err != nil {
		t.Fatal(err)
	}

	var resp echo
	if err := client.RequestJSON(context.Background(), "echo", echo{Court: "center"}, &resp); err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.Court != "center" {
		t.Fatalf("unexpected reply %+v", resp)
	}

	if err := client.RequestJSON(context.Background(), "nobody.home", echo{}, &resp); err == nil {
		t.Fatal("expected error without responders")
	}
}
