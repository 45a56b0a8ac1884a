// Package redis implements the vault.Store contract on a Redis server. Each
// collection is one JSON array value and each id counter is one integer key,
// so a vault is four data keys plus four counters under a common prefix.
//
// Unlike the SQL backends there is no engine to enforce referential rules, so
// field validation, link uniqueness, and the cascade / set-null behaviors are
// applied in Go before writing. The store assumes a single writer.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ideavault/internal/vault"
)

var counterNames = []string{"problems", "ideas", "notes", "links"}

// Store wraps a Redis client holding the four vault collections.
type Store struct {
	rdb    *goredis.Client
	prefix string
	log    *zap.Logger
}

var _ vault.Store = (*Store)(nil)

// Open connects to the Redis server at addr and verifies the connection.
// All keys are namespaced under prefix.
func Open(addr, password string, db int, prefix string, log *zap.Logger) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	log.Debug("redis store opened", zap.String("addr", addr), zap.String("prefix", prefix))
	return &Store{rdb: rdb, prefix: prefix, log: log}, nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) counterKey(name string) string {
	return s.prefix + "counter:" + name
}

// nextID allocates the next id for a collection. INCR keeps ids monotonic
// even after deletes.
func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	id, err := s.rdb.Incr(ctx, s.counterKey(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing %s counter: %w", name, err)
	}
	return id, nil
}

func (s *Store) readCounter(ctx context.Context, name string) (int64, error) {
	val, err := s.rdb.Get(ctx, s.counterKey(name)).Result()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s counter: %w", name, err)
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s counter %q: %w", name, val, err)
	}
	return n, nil
}

// load unmarshals one collection key into dest. A missing key is an empty
// collection.
func (s *Store) load(ctx context.Context, name string, dest any) error {
	val, err := s.rdb.Get(ctx, s.key(name)).Result()
	if err == goredis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := s.rdb.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s *Store) loadProblems(ctx context.Context) ([]vault.Problem, error) {
	problems := make([]vault.Problem, 0)
	if err := s.load(ctx, "problems", &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func (s *Store) loadIdeas(ctx context.Context) ([]vault.Idea, error) {
	ideas := make([]vault.Idea, 0)
	if err := s.load(ctx, "ideas", &ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

func (s *Store) loadNotes(ctx context.Context) ([]vault.Note, error) {
	notes := make([]vault.Note, 0)
	if err := s.load(ctx, "notes", &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *Store) loadLinks(ctx context.Context) ([]vault.Link, error) {
	links := make([]vault.Link, 0)
	if err := s.load(ctx, "links", &links); err != nil {
		return nil, err
	}
	return links, nil
}

// --- Whole-store operations ---

// ExportAll returns every record from all four collections, in insertion
// order, plus the id counters.
func (s *Store) ExportAll(ctx context.Context) (*vault.Snapshot, error) {
	problems, err := s.loadProblems(ctx)
	if err != nil {
		return nil, err
	}
	ideas, err := s.loadIdeas(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.loadNotes(ctx)
	if err != nil {
		return nil, err
	}
	links, err := s.loadLinks(ctx)
	if err != nil {
		return nil, err
	}

	// Imports may have stored records out of order.
	sort.Slice(problems, func(i, j int) bool { return problems[i].ID < problems[j].ID })
	sort.Slice(ideas, func(i, j int) bool { return ideas[i].ID < ideas[j].ID })
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })

	counters := make(map[string]int64, len(counterNames))
	for _, name := range counterNames {
		n, err := s.readCounter(ctx, name)
		if err != nil {
			return nil, err
		}
		counters[name] = n
	}

	return &vault.Snapshot{
		Problems: problems,
		Ideas:    ideas,
		Notes:    notes,
		Links:    links,
		Counters: counters,
	}, nil
}

// ImportAll replaces the collections present in snap (nil slices leave the
// corresponding collection untouched). The merged post-import state is
// validated before anything is written; an invalid snapshot returns
// (false, nil) with the store unchanged.
func (s *Store) ImportAll(ctx context.Context, snap *vault.Snapshot) (bool, error) {
	if snap == nil {
		return false, nil
	}

	current, err := s.ExportAll(ctx)
	if err != nil {
		return false, err
	}

	merged := mergeSnapshot(current, snap)
	if err := vault.ValidateState(merged.Problems, merged.Ideas, merged.Notes, merged.Links); err != nil {
		s.log.Debug("rejecting snapshot", zap.Error(err))
		return false, nil
	}
	if err := vault.ValidateCounters(snap.Counters, merged.Problems, merged.Ideas, merged.Notes, merged.Links); err != nil {
		s.log.Debug("rejecting snapshot", zap.Error(err))
		return false, nil
	}

	// Provided counters are authoritative; otherwise keep the larger of the
	// previous counter and the highest imported id so new ids stay unique.
	maxIDs := map[string]int64{
		"problems": maxProblemID(merged.Problems),
		"ideas":    maxIdeaID(merged.Ideas),
		"notes":    maxNoteID(merged.Notes),
		"links":    maxLinkID(merged.Links),
	}
	counters := make(map[string]int64, len(counterNames))
	for _, name := range counterNames {
		desired, provided := snap.Counters[name]
		if !provided {
			desired = current.Counters[name]
			if maxIDs[name] > desired {
				desired = maxIDs[name]
			}
		}
		counters[name] = desired
	}

	payload := make(map[string][]byte, 4)
	for name, v := range map[string]any{
		"problems": merged.Problems,
		"ideas":    merged.Ideas,
		"notes":    merged.Notes,
		"links":    merged.Links,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return false, fmt.Errorf("encoding %s: %w", name, err)
		}
		payload[name] = data
	}

	// MULTI/EXEC so the eight keys change together.
	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for name, data := range payload {
			pipe.Set(ctx, s.key(name), data, 0)
		}
		for name, n := range counters {
			pipe.Set(ctx, s.counterKey(name), n, 0)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("writing snapshot: %w", err)
	}

	s.log.Debug("imported snapshot",
		zap.Int("problems", len(merged.Problems)),
		zap.Int("ideas", len(merged.Ideas)),
		zap.Int("notes", len(merged.Notes)),
		zap.Int("links", len(merged.Links)))
	return true, nil
}

// ClearAll empties every collection and resets the id counters to zero.
func (s *Store) ClearAll(ctx context.Context) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, name := range counterNames {
			pipe.Set(ctx, s.key(name), "[]", 0)
			pipe.Set(ctx, s.counterKey(name), 0, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clearing collections: %w", err)
	}
	return nil
}

// mergeSnapshot overlays the collections present in snap onto current.
func mergeSnapshot(current, snap *vault.Snapshot) *vault.Snapshot {
	merged := &vault.Snapshot{
		Problems: current.Problems,
		Ideas:    current.Ideas,
		Notes:    current.Notes,
		Links:    current.Links,
	}
	if snap.Problems != nil {
		merged.Problems = snap.Problems
	}
	if snap.Ideas != nil {
		merged.Ideas = snap.Ideas
	}
	if snap.Notes != nil {
		merged.Notes = snap.Notes
	}
	if snap.Links != nil {
		merged.Links = snap.Links
	}
	return merged
}

func maxProblemID(ps []vault.Problem) int64 {
	var m int64
	for _, p := range ps {
		if p.ID > m {
			m = p.ID
		}
	}
	return m
}

func maxIdeaID(is []vault.Idea) int64 {
	var m int64
	for _, i := range is {
		if i.ID > m {
			m = i.ID
		}
	}
	return m
}

func maxNoteID(ns []vault.Note) int64 {
	var m int64
	for _, n := range ns {
		if n.ID > m {
			m = n.ID
		}
	}
	return m
}

func maxLinkID(ls []vault.Link) int64 {
	var m int64
	for _, l := range ls {
		if l.ID > m {
			m = l.ID
		}
	}
	return m
}
