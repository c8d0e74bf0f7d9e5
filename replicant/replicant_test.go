package replicant

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"quarzo.network/launcher/identity"
	"quarzo.network/launcher/storage"
)

func originServer(t *testing.T, bootstrap []byte, visa string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/bootstrap", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bootstrap)
	})
	mux.HandleFunc("/api/v1/visa", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, visa)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchBootstrap(t *testing.T) {
	payload := []byte("genesis artifact bytes")
	srv := originServer(t, payload, `{}`)

	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	var c Client
	art, err := c.FetchBootstrap(context.Background(), srv.URL, store)
	if err != nil {
		t.Fatalf("FetchBootstrap: %v", err)
	}
	if art.Identity != identity.DeriveBytes(payload) {
		t.Fatalf("identity %s does not match payload derivation", art.Identity)
	}
	if !bytes.Equal(art.Bytes, payload) {
		t.Fatalf("artifact bytes %q, want %q", art.Bytes, payload)
	}

	stored, err := store.Get(art.Identity)
	if err != nil {
		t.Fatalf("Get stored artifact: %v", err)
	}
	if !bytes.Equal(stored, payload) {
		t.Fatal("stored artifact differs from fetched bytes")
	}
}

func TestFetchBootstrap_OriginDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	var c Client
	if _, err := c.FetchBootstrap(context.Background(), srv.URL, store); err == nil {
		t.Fatal("expected error for unavailable origin")
	}
}

func TestVisa(t *testing.T) {
	srv := originServer(t, nil, `{"node_version":"1.4.0","core_version":"0.9.2"}`)

	var c Client
	v, err := c.Visa(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Visa: %v", err)
	}
	if v.NodeVersion != "1.4.0" || v.CoreVersion != "0.9.2" {
		t.Fatalf("unexpected visa %+v", v)
	}
}

func TestVisa_Malformed(t *testing.T) {
	srv := originServer(t, nil, `not json`)

	var c Client
	if _, err := c.Visa(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for malformed visa")
	}
}

type capturingHandler struct {
	slog.Handler
	records *[]slog.Record
}

func (h capturingHandler) Handle(ctx context.Context, r slog.Record) error {
	*h.records = append(*h.records, r)
	return nil
}

func TestCheckVersions(t *testing.T) {
	var records []slog.Record
	log := slog.New(capturingHandler{
		Handler: slog.NewTextHandler(io.Discard, nil),
		records: &records,
	})

	CheckVersions(log, "1.2.0", "0.9.0", &Visa{NodeVersion: "1.2.0", CoreVersion: "0.9.0"})
	if len(records) != 0 {
		t.Fatalf("equal versions produced %d warnings", len(records))
	}

	CheckVersions(log, "1.1.0", "0.9.5", &Visa{NodeVersion: "1.2.0", CoreVersion: "0.9.0"})
	if len(records) != 2 {
		t.Fatalf("skewed versions produced %d warnings, want 2", len(records))
	}
}
