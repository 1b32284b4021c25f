package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestOpen_SelectsDBAndAuthenticates(t *testing.T) {
	s := miniredis.RunT(t)
	s.RequireAuth("s3cret")

	c, err := Open(context.Background(), Options{Addr: s.Addr(), Password: "s3cret", DB: 2})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if got := c.Options().DB; got != 2 {
		t.Fatalf("client DB = %d, want 2", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Set(ctx, "lending:probe", "v", 0).Err(); err != nil {
		t.Fatalf("SET err: %v", err)
	}
	if got, _ := s.DB(2).Get("lending:probe"); got != "v" {
		t.Fatalf("value in db 2 = %q, want %q", got, "v")
	}
}

func TestOpen_WrongPassword(t *testing.T) {
	s := miniredis.RunT(t)
	s.RequireAuth("s3cret")

	if _, err := Open(context.Background(), Options{Addr: s.Addr(), Password: "nope"}); err == nil {
		t.Fatal("expected auth error, got nil")
	}
}

func TestOpen_Unreachable(t *testing.T) {
	if _, err := Open(context.Background(), Options{Addr: "not-a-real-host:6379"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestPing_ReportsOutage(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := Open(context.Background(), Options{Addr: s.Addr()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	probe := Ping(c)
	if err := probe(context.Background()); err != nil {
		t.Fatalf("healthy probe: %v", err)
	}
	s.Close()
	if err := probe(context.Background()); err == nil {
		t.Fatal("expected probe error after redis went away")
	}
}
