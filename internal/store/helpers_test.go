package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/roach88/agora/internal/schema"
)

var postColumns = []schema.Column{
	schema.Col("post_id", schema.Text),
	schema.Col("user_id", schema.Integer),
	schema.Col("post_text", schema.Text),
	schema.Col("hashtags", schema.Text),
	schema.Col("score", schema.Real),
	schema.Col("pinned", schema.Boolean),
	schema.Col("thumbnail", schema.Blob),
}

// createTestStore opens a fresh store in a temp dir with a posts table.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posts.db")
	s, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.CreateTable(context.Background(), "posts", postColumns))
	return s
}

// statements returns the number of statements s has executed for op.
func statements(s *Store, op string) float64 {
	return testutil.ToFloat64(s.Metrics().Statements.WithLabelValues(s.Name(), op))
}

func insertPost(t *testing.T, s *Store, postID string, userID int64) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), "posts", Values{
		"post_id":   postID,
		"user_id":   userID,
		"post_text": "text of " + postID,
	})
	require.NoError(t, err)
	return id
}
