package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/agora/internal/codec"
	"github.com/roach88/agora/internal/query"
	"github.com/roach88/agora/internal/schema"
	"github.com/roach88/agora/internal/store"
)

// Table is the name of the sessions table.
const Table = "sessions"

// Columns is the sessions table definition.
var Columns = []schema.Column{
	schema.Col("session_id", schema.Text),
	schema.Col("data", schema.Text),
	schema.Col("expires", schema.Integer),
}

// Defaults applied by New for zero Config fields.
const (
	DefaultTTL           = 24 * time.Hour
	DefaultSweepInterval = 24 * time.Hour
)

// ErrNotFound is returned by Get and Lookup for unknown and expired
// sessions.
var ErrNotFound = errors.New("session not found")

// Config holds the session lifetime settings.
type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// Payload is the JSON data attached to a session.
type Payload []byte

// Decode parses the payload into dst.
func (p Payload) Decode(dst any) error {
	return codec.Decode(string(p), dst)
}

func (p Payload) String() string { return string(p) }

// Store creates, reads and expires sessions.
type Store struct {
	db      *store.Store
	cfg     Config
	now     func() time.Time
	newID   func() string
	metrics *Metrics
}

// Option configures New.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) { s.newID = next }
}

// WithMetrics records session counts in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New returns a session store over db. The sessions table must exist; see
// EnsureTable.
func New(db *store.Store, cfg Config, opts ...Option) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	s := &Store{
		db:    db,
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

// Config returns the effective configuration.
func (s *Store) Config() Config { return s.cfg }

// EnsureTable creates the sessions table if it does not exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	exists, err := s.db.TableExists(ctx, Table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.db.CreateTable(ctx, Table, Columns)
}

// Create stores payload under a new session id and returns the id.
func (s *Store) Create(ctx context.Context, payload any) (string, error) {
	data, err := codec.Encode(payload)
	if err != nil {
		return "", fmt.Errorf("encode session payload: %w", err)
	}

	id := s.newID()
	expires := s.now().Add(s.cfg.TTL).UnixMilli()

	if _, err := s.db.Insert(ctx, Table, store.Values{
		"session_id": id,
		"data":       data,
		"expires":    expires,
	}); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	s.metrics.Created.Inc()
	slog.Debug("session created", "expires", time.UnixMilli(expires).UTC())
	return id, nil
}

// Get returns the payload of an active session. Unknown and expired ids
// both yield ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Payload, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	rec, err := s.db.Find(ctx, Table, query.Where("session_id", id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	expires, ok := rec.Int64("expires")
	if !ok || expires <= s.now().UnixMilli() {
		return nil, ErrNotFound
	}
	return Payload(rec.String("data")), nil
}

// Lookup decodes the payload of an active session into dst.
func (s *Store) Lookup(ctx context.Context, id string, dst any) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := p.Decode(dst); err != nil {
		return fmt.Errorf("decode session payload: %w", err)
	}
	return nil
}

// Destroy removes a session. Destroying an unknown id is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	n, err := s.db.Delete(ctx, Table, query.Where("session_id", id))
	if err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	s.metrics.Destroyed.Add(float64(n))
	return nil
}

// Sweep deletes every session whose expiry time has passed and returns how
// many were removed. The scan and the deletes run in one transaction.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	now := s.now().UnixMilli()
	removed := 0

	err := s.db.WithTx(ctx, func(tx *store.Store) error {
		removed = 0
		recs, err := tx.All(ctx, Table)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			expires, ok := rec.Int64("expires")
			if ok && expires > now {
				continue
			}
			// Raw values so a NULL id or expiry compiles to IS NULL.
			id, _ := rec.Get("session_id")
			at, _ := rec.Get("expires")
			n, err := tx.Delete(ctx, Table, query.Where("session_id", id).And("expires", at))
			if err != nil {
				return err
			}
			removed += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}

	s.metrics.Swept.Add(float64(removed))
	if removed > 0 {
		slog.Info("expired sessions removed", "count", removed)
	}
	return removed, nil
}
