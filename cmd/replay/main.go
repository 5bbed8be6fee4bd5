package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "craftbench.ai/internal/persistence/log"
	"craftbench.ai/internal/persistence/snapshot"
	"craftbench.ai/internal/sim/bench"
	"craftbench.ai/internal/sim/catalogs"
	"craftbench.ai/internal/sim/crafting"
	"craftbench.ai/internal/sim/tuning"
)

func main() {
	var (
		eventsDir  = flag.String("events", "./data/events", "events dir containing events-*.jsonl.zst")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		snapPath   = flag.String("snapshot", "", "start the snapshot's session from this .snap.zst (optional)")
		sessionID  = flag.String("session", "", "only verify this session id (optional)")
	)
	flag.Parse()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}

	var snap *snapshot.SessionV1
	if *snapPath != "" {
		s, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		if s.RecipesDigest != cats.Recipes.Digest {
			fmt.Fprintln(os.Stderr, "warning: snapshot recipes digest differs from configs")
		}
		fmt.Printf("snapshot v%d session=%s seq=%d\n", s.Header.Version, s.Header.SessionID, s.Header.Seq)
		snap = &s
		if *sessionID == "" {
			*sessionID = s.Header.SessionID
		}
	}

	files, err := persistlog.ListEventFiles(*eventsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	sessions, err := loadSessions(files, *sessionID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read events:", err)
		os.Exit(1)
	}

	r := replayer{cats: cats, tune: tune}
	ids := make([]string, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var checked uint64
	for _, id := range ids {
		var from *snapshot.SessionV1
		if snap != nil && snap.Header.SessionID == id {
			from = snap
		}
		n, err := r.replay(id, sessions[id], from)
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		checked += n
	}
	fmt.Printf("replay ok: sessions=%d checked=%d events\n", len(ids), checked)
}

// loadSessions groups entries by session id in file order. An empty only
// keeps every session.
func loadSessions(files []string, only string) (map[string][]bench.LogEntry, error) {
	out := map[string][]bench.LogEntry{}
	for _, path := range files {
		err := persistlog.ReadEventFile(path, func(e bench.LogEntry) error {
			if only != "" && e.SessionID != only {
				return nil
			}
			out[e.SessionID] = append(out[e.SessionID], e)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	for _, entries := range out {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	}
	return out, nil
}

type replayer struct {
	cats *catalogs.Catalogs
	tune tuning.Tuning
}

// replay re-applies entries to a fresh bench (or one restored from snap) and
// compares each resulting digest with the logged one.
func (r replayer) replay(id string, entries []bench.LogEntry, snap *snapshot.SessionV1) (uint64, error) {
	b, err := r.start(id, snap)
	if err != nil {
		return 0, err
	}

	var checked uint64
	for _, e := range entries {
		if e.Seq <= b.Seq() {
			continue
		}
		if e.Seq != b.Seq()+1 {
			return checked, fmt.Errorf("session %s: seq gap: want=%d got=%d", id, b.Seq()+1, e.Seq)
		}
		got, err := b.Apply(e.Event)
		if err != nil {
			return checked, fmt.Errorf("session %s seq %d: %w", id, e.Seq, err)
		}
		if got.Digest != e.Digest {
			return checked, fmt.Errorf("session %s: digest mismatch at seq %d: got=%s want=%s", id, e.Seq, got.Digest, e.Digest)
		}
		if got.RecipeID != e.RecipeID {
			return checked, fmt.Errorf("session %s: recipe mismatch at seq %d: got=%q want=%q", id, e.Seq, got.RecipeID, e.RecipeID)
		}
		checked++
	}
	return checked, nil
}

func (r replayer) start(id string, snap *snapshot.SessionV1) (*bench.Bench, error) {
	if snap != nil {
		sess := crafting.NewSession(r.cats.Recipes.Book, nil, crafting.NoSelection)
		if err := sess.Restore(snap.State); err != nil {
			return nil, fmt.Errorf("restore snapshot: %w", err)
		}
		b := bench.New(id, r.cats, sess)
		b.SetSeq(snap.Header.Seq)
		return b, nil
	}
	inv, err := r.cats.CheckInventory(r.tune.StarterInventory)
	if err != nil {
		return nil, err
	}
	return bench.New(id, r.cats, crafting.NewSession(r.cats.Recipes.Book, inv, r.tune.InitialSelection)), nil
}
