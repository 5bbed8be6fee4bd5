package main

import (
	"io"
	"log"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"craftbench.ai/internal/sim/bench"
	"craftbench.ai/internal/sim/catalogs"
	"craftbench.ai/internal/sim/tuning"
	"craftbench.ai/internal/transport/ws"
)

type countingLogger struct{ n int }

func (c *countingLogger) WriteEvent(bench.LogEntry) error {
	c.n++
	return nil
}

func TestMultiEventLogger_FansOut(t *testing.T) {
	a, b := &countingLogger{}, &countingLogger{}
	m := multiEventLogger{a: a, b: b}
	if err := m.WriteEvent(bench.LogEntry{Seq: 1}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if a.n != 1 || b.n != 1 {
		t.Fatalf("fan-out: a=%d b=%d", a.n, b.n)
	}
	if err := (multiEventLogger{a: a}).WriteEvent(bench.LogEntry{}); err != nil {
		t.Fatalf("nil second logger: %v", err)
	}
}

func TestOpenRuntimeIndex_Backends(t *testing.T) {
	dir := t.TempDir()

	idx, err := openRuntimeIndex(dir, true)
	if err != nil || idx != nil {
		t.Fatalf("disable_db: idx=%v err=%v", idx, err)
	}

	t.Setenv("CB_INDEX_BACKEND", "none")
	idx, err = openRuntimeIndex(dir, false)
	if err != nil || idx != nil {
		t.Fatalf("none: idx=%v err=%v", idx, err)
	}

	t.Setenv("CB_INDEX_BACKEND", "postgres")
	if _, err := openRuntimeIndex(dir, false); err == nil {
		t.Fatalf("expected unsupported backend error")
	}

	t.Setenv("CB_INDEX_BACKEND", "sqlite")
	idx, err = openRuntimeIndex(dir, false)
	if err != nil || idx == nil {
		t.Fatalf("sqlite: idx=%v err=%v", idx, err)
	}
	_ = idx.Close()
}

func TestMux_HealthzAndMetrics(t *testing.T) {
	cats, err := catalogs.Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tune := tuning.Defaults()
	wsSrv, err := ws.NewServer(ws.Config{
		Catalogs:     cats,
		Tuning:       tune,
		TuningDigest: tuningDigest(tune),
	}, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv := httptest.NewServer(newMux(wsSrv, nil))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != 200 || string(body) != "ok" {
		t.Fatalf("healthz: status=%d body=%q", resp.StatusCode, body)
	}

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "craftbench_active_sessions 0") {
		t.Fatalf("metrics body: %q", body)
	}
	if strings.Contains(string(body), "craftbench_index_") {
		t.Fatalf("index metrics without index: %q", body)
	}
}

func TestTuningDigest_StableAndSensitive(t *testing.T) {
	a := tuning.Defaults()
	b := tuning.Defaults()
	if tuningDigest(a) != tuningDigest(b) {
		t.Fatalf("digest not stable")
	}
	b.UIScale = 4
	if tuningDigest(a) == tuningDigest(b) {
		t.Fatalf("digest ignores ui_scale")
	}
}
