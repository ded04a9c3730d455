package daemonserver

import (
	"path/filepath"
	"testing"

	"sagachat/go-backend/internal/config"
)

func TestIsLoopbackAddr(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:8787": true,
		"localhost:8787": true,
		"[::1]:8787":     true,
		"0.0.0.0:8787":   false,
		":8787":          false,
		"10.1.2.3:8787":  false,
		"garbage":        false,
	}
	for addr, want := range cases {
		if got := isLoopbackAddr(addr); got != want {
			t.Fatalf("isLoopbackAddr(%q)=%v want %v", addr, got, want)
		}
	}
}

func TestPublicBindRequiresToken(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.RPC.Addr = "0.0.0.0:0"
	cfg.RPC.Token = ""
	if _, _, err := NewRPCServerWithOptions(cfg, nil, "test"); err == nil {
		t.Fatal("expected token requirement for a public bind address")
	}

	cfg.RPC.Token = "secret"
	srv, closer, err := NewRPCServerWithOptions(cfg, nil, "test")
	if err != nil {
		t.Fatalf("build server failed: %v", err)
	}
	defer closer()
	if srv.Addr() != "0.0.0.0:0" {
		t.Fatalf("unexpected addr %q", srv.Addr())
	}
}
