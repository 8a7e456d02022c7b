package hashtag

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/roach88/agora/internal/query"
	"github.com/roach88/agora/internal/schema"
	"github.com/roach88/agora/internal/store"
)

// Table is the name of the post/hashtag association table.
const Table = "hashtags"

// Columns is the association table definition.
var Columns = []schema.Column{
	schema.Col("hashtag_id", schema.Text),
	schema.Col("post_id", schema.Text),
	schema.Col("hashtag_text", schema.Text),
	schema.Col("created_at", schema.Text),
}

// Reconciler applies tag diffs to the association table.
type Reconciler struct {
	db    *store.Store
	max   int
	now   func() time.Time
	newID func(time.Time) string
}

// Option configures NewReconciler.
type Option func(*Reconciler)

// WithMaxTags sets the per-post tag limit.
func WithMaxTags(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.max = n
		}
	}
}

// WithClock replaces time.Now for created_at and id timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithIDGenerator replaces the ULID generator.
func WithIDGenerator(next func() string) Option {
	return func(r *Reconciler) { r.newID = func(time.Time) string { return next() } }
}

// NewReconciler returns a reconciler over db, the store holding the
// association table.
func NewReconciler(db *store.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		db:  db,
		max: DefaultMaxTags,
		now: time.Now,
		newID: func(t time.Time) string {
			return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxTags returns the per-post tag limit.
func (r *Reconciler) MaxTags() int { return r.max }

// EnsureTable creates the association table if it does not exist.
func (r *Reconciler) EnsureTable(ctx context.Context) error {
	exists, err := r.db.TableExists(ctx, Table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return r.db.CreateTable(ctx, Table, Columns)
}

// Stored returns the tags of postID, oldest first.
func (r *Reconciler) Stored(ctx context.Context, postID string) ([]string, error) {
	return stored(ctx, r.db, postID)
}

// Reconcile brings the rows of postID in line with requested, given the
// stored set the caller last read. All changes run in one transaction.
// The returned Diff lists the tags actually inserted and deleted.
func (r *Reconciler) Reconcile(ctx context.Context, postID string, requested, stored []string) (Diff, error) {
	plan := Plan(requested, stored, r.max)
	var applied Diff
	err := r.db.WithTx(ctx, func(tx *store.Store) error {
		var err error
		applied, err = r.apply(ctx, tx, postID, plan)
		return err
	})
	if err != nil {
		return Diff{}, fmt.Errorf("reconcile hashtags of %q: %w", postID, err)
	}
	return applied, nil
}

// Sync reads the stored tags of postID and reconciles them with requested
// in a single transaction.
func (r *Reconciler) Sync(ctx context.Context, postID string, requested []string) (Diff, error) {
	var applied Diff
	err := r.db.WithTx(ctx, func(tx *store.Store) error {
		current, err := stored(ctx, tx, postID)
		if err != nil {
			return err
		}
		applied, err = r.apply(ctx, tx, postID, Plan(requested, current, r.max))
		return err
	})
	if err != nil {
		return Diff{}, fmt.Errorf("sync hashtags of %q: %w", postID, err)
	}
	return applied, nil
}

func (r *Reconciler) apply(ctx context.Context, tx *store.Store, postID string, plan Diff) (Diff, error) {
	applied := Diff{Insert: []string{}, Delete: []string{}}

	for _, tag := range plan.Delete {
		n, err := tx.Delete(ctx, Table, query.Where("post_id", postID).And("hashtag_text", tag))
		if err != nil {
			return Diff{}, err
		}
		if n > 0 {
			applied.Delete = append(applied.Delete, tag)
		}
	}

	for _, tag := range plan.Insert {
		n, err := tx.Count(ctx, Table, query.Where("post_id", postID).And("hashtag_text", tag))
		if err != nil {
			return Diff{}, err
		}
		if n > 0 {
			continue
		}
		now := r.now().UTC()
		if _, err := tx.Insert(ctx, Table, store.Values{
			"hashtag_id":   r.newID(now),
			"post_id":      postID,
			"hashtag_text": tag,
			"created_at":   now.Format(time.RFC3339),
		}); err != nil {
			return Diff{}, err
		}
		applied.Insert = append(applied.Insert, tag)
	}

	total, err := tx.Count(ctx, Table, query.Where("post_id", postID))
	if err != nil {
		return Diff{}, err
	}
	if total > int64(r.max) {
		return Diff{}, fmt.Errorf("post would have %d hashtags, limit is %d", total, r.max)
	}

	if !applied.IsEmpty() {
		slog.Debug("hashtags reconciled", "post_id", postID,
			"inserted", len(applied.Insert), "deleted", len(applied.Delete))
	}
	return applied, nil
}

func stored(ctx context.Context, db *store.Store, postID string) ([]string, error) {
	recs, err := db.FindAll(ctx, Table, query.Where("post_id", postID))
	if err != nil {
		return nil, fmt.Errorf("load hashtags of %q: %w", postID, err)
	}
	tags := make([]string, 0, len(recs))
	for _, rec := range recs {
		tags = append(tags, rec.String("hashtag_text"))
	}
	// FindAll is newest first.
	slices.Reverse(tags)
	return tags, nil
}
