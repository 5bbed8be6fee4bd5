package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"craftbench.ai/internal/persistence/snapshot"
	"craftbench.ai/internal/sim/bench"
	"craftbench.ai/internal/sim/catalogs"
	"craftbench.ai/internal/sim/tuning"
)

// SQLiteIndex is a secondary read model. The JSONL event logs remain the
// source of truth; writes are queued and dropped when the writer falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// sendMu guards ch against sends racing with Close.
	sendMu sync.RWMutex
	closed bool

	dropEvent    atomic.Uint64
	dropSession  atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqEvent reqKind = iota + 1
	reqSession
	reqSnapshot
)

type req struct {
	kind reqKind

	event    bench.LogEntry
	session  sessionRow
	snapshot snapshotRow
}

type sessionRow struct {
	SessionID  string
	ClientName string
	Resumed    bool
	StartedAt  string
}

type snapshotRow struct {
	SessionID string
	Seq       uint64
	Path      string
	Digest    string
}

type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropEventTotal    uint64 `json:"drop_event_total"`
	DropSessionTotal  uint64 `json:"drop_session_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			client_name TEXT NOT NULL,
			resumed INTEGER NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			changed INTEGER NOT NULL,
			evaluated INTEGER NOT NULL,
			digest TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS matches (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			recipe_id TEXT NOT NULL,
			output TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_matches_recipe ON matches(recipe_id);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.sendMu.Lock()
		s.closed = true
		close(s.ch)
		s.sendMu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropEventTotal:    s.dropEvent.Load(),
		DropSessionTotal:  s.dropSession.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

func (s *SQLiteIndex) WriteEvent(entry bench.LogEntry) error {
	if s == nil {
		return nil
	}
	if !s.enqueue(req{kind: reqEvent, event: entry}) {
		s.dropEvent.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSession(sessionID, clientName string, resumed bool) {
	if s == nil {
		return
	}
	r := sessionRow{
		SessionID:  sessionID,
		ClientName: clientName,
		Resumed:    resumed,
		StartedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if !s.enqueue(req{kind: reqSession, session: r}) {
		s.dropSession.Add(1)
	}
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SessionV1, digest string) {
	if s == nil {
		return
	}
	r := snapshotRow{
		SessionID: snap.Header.SessionID,
		Seq:       snap.Header.Seq,
		Path:      path,
		Digest:    digest,
	}
	if !s.enqueue(req{kind: reqSnapshot, snapshot: r}) {
		s.dropSnapshot.Add(1)
	}
}

// enqueue never blocks. It reports false when the queue is full. After
// Close it silently discards and reports true.
func (s *SQLiteIndex) enqueue(r req) bool {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- r:
		return true
	default:
		return false
	}
}

// UpsertCatalogs stores the raw catalogs and the effective tuning. It runs
// synchronously at startup.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	read := func(name, file, digest string) {
		if configDir == "" {
			return
		}
		b, err := os.ReadFile(filepath.Join(configDir, file))
		if err != nil {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	read("items", "items.json", cats.Items.Digest)
	read("recipes", "recipes.json", cats.Recipes.Digest)

	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO events(session_id,seq,kind,changed,evaluated,digest,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertMatch, _ := s.db.Prepare(`INSERT OR REPLACE INTO matches(session_id,seq,recipe_id,output,count) VALUES(?,?,?,?,?)`)
	insertSession, _ := s.db.Prepare(`INSERT OR REPLACE INTO sessions(session_id,client_name,resumed,started_at) VALUES(?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(session_id,seq,path,digest) VALUES(?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertEvent, insertMatch, insertSession, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil {
			return true
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqEvent:
			e := r.event
			raw, _ := json.Marshal(e)
			if !exec(insertEvent, e.SessionID, int64(e.Seq), string(e.Event.Kind), e.Changed, e.Evaluated, e.Digest, string(raw)) {
				continue
			}
			if e.Evaluated && e.RecipeID != "" {
				if !exec(insertMatch, e.SessionID, int64(e.Seq), e.RecipeID, e.Output, e.Count) {
					continue
				}
			}

		case reqSession:
			se := r.session
			if !exec(insertSession, se.SessionID, se.ClientName, se.Resumed, se.StartedAt) {
				continue
			}

		case reqSnapshot:
			sn := r.snapshot
			if !exec(insertSnapshot, sn.SessionID, int64(sn.Seq), sn.Path, sn.Digest) {
				continue
			}
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
