package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"craftbench.ai/internal/persistence/snapshot"
	"craftbench.ai/internal/protocol"
	"craftbench.ai/internal/sim/bench"
	"craftbench.ai/internal/sim/catalogs"
	"craftbench.ai/internal/sim/crafting"
	"craftbench.ai/internal/sim/tuning"
)

// SessionIndex receives session lifecycle records. *indexdb.SQLiteIndex
// satisfies it.
type SessionIndex interface {
	RecordSession(sessionID, clientName string, resumed bool)
	RecordSnapshot(path string, snap snapshot.SessionV1, digest string)
}

type Config struct {
	Catalogs     *catalogs.Catalogs
	Tuning       tuning.Tuning
	TuningDigest string
	DataDir      string
	Events       bench.EventLogger
	Index        SessionIndex
}

type Server struct {
	cfg       Config
	inventory []crafting.ItemID
	log       *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	active  map[string]struct{}
	conns   map[*websocket.Conn]struct{}
	closing bool
	wg      sync.WaitGroup
}

func NewServer(cfg Config, logger *log.Logger) (*Server, error) {
	inv, err := cfg.Catalogs.CheckInventory(cfg.Tuning.StarterInventory)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:       cfg,
		inventory: inv,
		log:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		active: map[string]struct{}{},
		conns:  map[*websocket.Conn]struct{}{},
	}
	return s, nil
}

// ActiveSessions is the number of connected sessions.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if !s.track(conn) {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		defer s.untrack(conn)

		b, token, name := s.handshake(conn)
		if b == nil {
			return
		}
		defer s.leave(b, token, name)

		idle := time.Duration(s.cfg.Tuning.IdleTimeoutSec) * time.Second
		// Each message is applied, evaluated and answered before the next read,
		// so a session has exactly one writer.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(idle))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			reply := s.handle(b, msg)
			if err := writeJSON(conn, reply); err != nil {
				return
			}
		}
	}
}

func (s *Server) handle(b *bench.Bench, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewError(protocol.ErrProtoBadRequest, "malformed json")
	}
	if base.ProtocolVersion != protocol.Version {
		return protocol.NewError(protocol.ErrProtoBadRequest, "bad protocol_version")
	}

	var ev bench.Event
	switch base.Type {
	case protocol.TypeSelect:
		var m protocol.SelectMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return protocol.NewError(protocol.ErrProtoBadRequest, "bad SELECT")
		}
		ev = bench.Event{Kind: bench.EventSelect, Slot: m.Slot}
	case protocol.TypeInteract:
		var m protocol.InteractMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return protocol.NewError(protocol.ErrProtoBadRequest, "bad INTERACT")
		}
		ev = bench.Event{Kind: bench.EventInteract, Cell: m.Cell, Button: strings.ToUpper(m.Button)}
	case protocol.TypeClick:
		var m protocol.ClickMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return protocol.NewError(protocol.ErrProtoBadRequest, "bad CLICK")
		}
		ev = bench.Event{Kind: bench.EventClick, Widget: m.Widget, Button: strings.ToUpper(m.Button)}
	default:
		return protocol.NewError(protocol.ErrBadRequest, "unsupported message type")
	}

	entry, err := b.Apply(ev)
	if err != nil {
		if errors.Is(err, bench.ErrInvalidTarget) {
			return protocol.NewError(protocol.ErrInvalidTarget, err.Error())
		}
		return protocol.NewError(protocol.ErrBadRequest, err.Error())
	}
	return viewMsg(b, entry.Seq, entry.Digest)
}

func viewMsg(b *bench.Bench, seq uint64, digest string) protocol.ViewMsg {
	m := protocol.ViewMsg{
		Type:            protocol.TypeView,
		ProtocolVersion: protocol.Version,
		Seq:             seq,
		Digest:          digest,
		View:            b.View(),
	}
	if res, ok := b.Session().Result(); ok {
		m.RecipeID = res.Recipe.ID
	}
	return m
}

func (s *Server) handshake(conn *websocket.Conn) (*bench.Bench, string, string) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, "", ""
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil, "", ""
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil, "", ""
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil, "", ""
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	var (
		b       *bench.Bench
		token   = strings.TrimSpace(hello.ResumeToken)
		resumed bool
	)
	if token != "" {
		if _, err := uuid.Parse(token); err != nil {
			_ = writeJSON(conn, protocol.NewError(protocol.ErrProtoBadRequest, "bad resume_token"))
			return nil, "", ""
		}
		if !s.claim(token) {
			_ = writeJSON(conn, protocol.NewError(protocol.ErrSessionBusy, "session already connected"))
			return nil, "", ""
		}
		b, err = s.resume(token)
		if err != nil {
			s.release(token)
			if !os.IsNotExist(err) {
				s.log.Printf("resume %s: %v", token, err)
			}
			_ = writeJSON(conn, protocol.NewError(protocol.ErrSessionNotFound, "cannot resume session"))
			return nil, "", ""
		}
		resumed = true
	} else {
		token = uuid.NewString()
		s.claim(token)
		sess := crafting.NewSession(s.cfg.Catalogs.Recipes.Book, s.inventory, s.cfg.Tuning.InitialSelection)
		b = bench.New(uuid.NewString(), s.cfg.Catalogs, sess)
	}
	if s.cfg.Events != nil {
		b.SetEventLogger(s.cfg.Events)
	}
	if s.cfg.Index != nil {
		s.cfg.Index.RecordSession(b.ID(), hello.ClientName, resumed)
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       b.ID(),
		ResumeToken:     token,
		Resumed:         resumed,
		UIScale:         s.cfg.Tuning.UIScale,
		Catalogs: protocol.CatalogDigests{
			ItemsDigest:   s.cfg.Catalogs.Items.Digest,
			RecipesDigest: s.cfg.Catalogs.Recipes.Digest,
			TuningDigest:  s.cfg.TuningDigest,
		},
		Widgets: b.Layout().Handles(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		s.release(token)
		return nil, "", ""
	}
	if err := writeJSON(conn, viewMsg(b, b.Seq(), b.Session().Digest())); err != nil {
		s.release(token)
		return nil, "", ""
	}
	s.log.Printf("session %s joined client=%s resumed=%v", b.ID(), hello.ClientName, resumed)
	return b, token, hello.ClientName
}

// Shutdown closes every live connection and waits until their sessions have
// left, so snapshots are on disk before the caller closes loggers and the
// index. New connections are refused once Shutdown starts.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	for conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) resume(token string) (*bench.Bench, error) {
	if s.cfg.DataDir == "" {
		return nil, os.ErrNotExist
	}
	snap, err := snapshot.ReadSnapshot(snapshot.PathFor(s.cfg.DataDir, token))
	if err != nil {
		return nil, err
	}
	if snap.ItemsDigest != s.cfg.Catalogs.Items.Digest || snap.RecipesDigest != s.cfg.Catalogs.Recipes.Digest {
		s.log.Printf("resume %s: snapshot catalogs digest differs from loaded catalogs (items=%v recipes=%v)", token,
			snap.ItemsDigest != s.cfg.Catalogs.Items.Digest, snap.RecipesDigest != s.cfg.Catalogs.Recipes.Digest)
	}
	for i, it := range snap.State.Inventory {
		if !s.cfg.Catalogs.Items.Catalog.Known(it) {
			return nil, fmt.Errorf("snapshot inventory slot %d: %w: %s", i, crafting.ErrUnknownItem, it)
		}
	}
	for _, it := range snap.State.Grid {
		if it != crafting.Empty && !s.cfg.Catalogs.Items.Catalog.Known(it) {
			return nil, fmt.Errorf("snapshot grid: %w: %s", crafting.ErrUnknownItem, it)
		}
	}
	sess := crafting.NewSession(s.cfg.Catalogs.Recipes.Book, nil, crafting.NoSelection)
	if err := sess.Restore(snap.State); err != nil {
		return nil, err
	}
	b := bench.New(snap.Header.SessionID, s.cfg.Catalogs, sess)
	b.SetSeq(snap.Header.Seq)
	return b, nil
}

// leave snapshots the session, then frees its token for resume.
func (s *Server) leave(b *bench.Bench, token, name string) {
	s.log.Printf("session %s left seq=%d", b.ID(), b.Seq())
	path, snap, ok := s.writeSnapshot(b, token, name)
	s.release(token)
	if ok && s.cfg.Index != nil {
		s.cfg.Index.RecordSnapshot(path, snap, b.Session().Digest())
	}
}

func (s *Server) writeSnapshot(b *bench.Bench, token, name string) (string, snapshot.SessionV1, bool) {
	if !s.cfg.Tuning.SnapshotOnLeave || s.cfg.DataDir == "" {
		return "", snapshot.SessionV1{}, false
	}
	snap := snapshot.SessionV1{
		Header:        snapshot.Header{Version: snapshot.Version, SessionID: b.ID(), Seq: b.Seq()},
		ClientName:    name,
		ItemsDigest:   s.cfg.Catalogs.Items.Digest,
		RecipesDigest: s.cfg.Catalogs.Recipes.Digest,
		State:         b.Session().State(),
	}
	path := snapshot.PathFor(s.cfg.DataDir, token)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		s.log.Printf("snapshot write: %v", err)
		return "", snapshot.SessionV1{}, false
	}
	return path, snap, true
}

func (s *Server) claim(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[token]; busy {
		return false
	}
	s.active[token] = struct{}{}
	return true
}

func (s *Server) release(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, token)
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
