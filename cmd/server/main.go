package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "craftbench.ai/internal/persistence/log"
	"craftbench.ai/internal/sim/bench"
	"craftbench.ai/internal/sim/catalogs"
	"craftbench.ai/internal/sim/tuning"
	"craftbench.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable indexing (sessions/events/matches + catalogs)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	logger.Printf("catalogs: items=%d recipes=%d", cats.Items.Catalog.Len(), cats.Recipes.Book.Len())

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	eventLog := persistlog.NewEventLogger(*dataDir)
	defer eventLog.Close()

	cfg := ws.Config{
		Catalogs:     cats,
		Tuning:       tune,
		TuningDigest: tuningDigest(tune),
		DataDir:      *dataDir,
		Events:       multiEventLogger{a: eventLog},
	}
	if idx != nil {
		cfg.Events = multiEventLogger{a: eventLog, b: idx}
		cfg.Index = idx
	}
	wsSrv, err := ws.NewServer(cfg, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds))
	if err != nil {
		logger.Fatalf("ws server: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(wsSrv, idx),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
		// Hijacked websocket conns are not covered by srv.Shutdown.
		if err := wsSrv.Shutdown(ctx2); err != nil {
			logger.Printf("ws shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	<-stopped
}

func newMux(wsSrv *ws.Server, idx runtimeIndex) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "craftbench_active_sessions %d\n", wsSrv.ActiveSessions())
		if idx != nil {
			st := idx.Stats()
			fmt.Fprintf(rw, "craftbench_index_queue_depth %d\n", st.QueueDepth)
			fmt.Fprintf(rw, "craftbench_index_queue_capacity %d\n", st.QueueCapacity)
			fmt.Fprintf(rw, "craftbench_index_drop_event_total %d\n", st.DropEventTotal)
			fmt.Fprintf(rw, "craftbench_index_drop_session_total %d\n", st.DropSessionTotal)
			fmt.Fprintf(rw, "craftbench_index_drop_snapshot_total %d\n", st.DropSnapshotTotal)
		}
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	return mux
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func tuningDigest(t tuning.Tuning) string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

type multiEventLogger struct {
	a bench.EventLogger
	b bench.EventLogger
}

func (m multiEventLogger) WriteEvent(entry bench.LogEntry) error {
	if m.a != nil {
		_ = m.a.WriteEvent(entry)
	}
	if m.b != nil {
		_ = m.b.WriteEvent(entry)
	}
	return nil
}
