package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/agora/internal/query"
	"github.com/roach88/agora/internal/store"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// initDataDir bootstraps the forum layout in a temp dir.
func initDataDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	_, err := execute(t, context.Background(), "init", "--data-dir", dir)
	require.NoError(t, err)
	return dir
}

func decodeData(t *testing.T, out string, dst any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func openForTest(t *testing.T, dir, name string) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(dir, name+".db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInit_CreatesThenSkips(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	out, err := execute(t, ctx, "init", "--data-dir", dir, "--format", "json")
	require.NoError(t, err)
	var first initResult
	decodeData(t, out, &first)
	assert.Equal(t, 16, first.Created)
	assert.Len(t, first.Stores, 4)

	out, err = execute(t, ctx, "init", "--data-dir", dir, "--format", "json")
	require.NoError(t, err)
	var second initResult
	decodeData(t, out, &second)
	assert.Zero(t, second.Created)
}

func TestInit_BadLayout(t *testing.T) {
	_, err := execute(t, context.Background(), "init", "--data-dir", t.TempDir(),
		"--layout", filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, context.Background(), "tables", "--format", "xml")
	assert.Error(t, err)
}

func TestInvalidDriverFlag(t *testing.T) {
	_, err := execute(t, context.Background(), "tables", "--driver", "postgres")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidConfig_ReportedOnceAsJSON(t *testing.T) {
	out, err := execute(t, context.Background(), "tables", "--driver", "postgres", "--format", "json")
	require.Error(t, err)
	assert.True(t, Reported(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
}

func TestTables(t *testing.T) {
	ctx := context.Background()
	dir := initDataDir(t)

	s := openForTest(t, dir, "posts")
	_, err := s.Insert(ctx, "posts", store.Values{"post_id": "p1"})
	require.NoError(t, err)

	out, err := execute(t, ctx, "tables", "posts", "--data-dir", dir, "--format", "json")
	require.NoError(t, err)

	var result []storeInfo
	decodeData(t, out, &result)
	require.Len(t, result, 1)
	assert.Len(t, result[0].Tables, 7)
	for _, tbl := range result[0].Tables {
		assert.True(t, tbl.Declared)
		if tbl.Table == "posts" {
			assert.Equal(t, int64(1), tbl.Rows)
		}
	}
}

func TestTables_MissingStoreFile(t *testing.T) {
	out, err := execute(t, context.Background(), "tables", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "users (")
	assert.Contains(t, out, "missing")
}

func TestTables_UnknownStore(t *testing.T) {
	_, err := execute(t, context.Background(), "tables", "nope", "--data-dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRows_Paginates(t *testing.T) {
	ctx := context.Background()
	dir := initDataDir(t)

	s := openForTest(t, dir, "posts")
	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := s.Insert(ctx, "posts", store.Values{"post_id": id, "hashtags": []string{"go"}})
		require.NoError(t, err)
	}

	out, err := execute(t, ctx, "rows", "posts", "posts", "--limit", "2", "--data-dir", dir, "--format", "json")
	require.NoError(t, err)
	var page struct {
		Total int64            `json:"total"`
		Rows  []map[string]any `json:"rows"`
	}
	decodeData(t, out, &page)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "p3", page.Rows[0]["post_id"])
	assert.Equal(t, `["go"]`, page.Rows[0]["hashtags"])

	out, err = execute(t, ctx, "rows", "posts", "posts", "--offset", "3", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 3 rows")

	out, err = execute(t, ctx, "rows", "posts", "posts", "--limit", "1", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `post_id="p3"`)
	assert.Contains(t, out, "post_text=NULL")
}

func TestRows_UnknownTable(t *testing.T) {
	dir := initDataDir(t)

	_, err := execute(t, context.Background(), "rows", "posts", "ghosts", "--data-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRows_StoreNotInitialized(t *testing.T) {
	_, err := execute(t, context.Background(), "rows", "posts", "posts", "--data-dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCount_WithCriteria(t *testing.T) {
	ctx := context.Background()
	dir := initDataDir(t)

	s := openForTest(t, dir, "posts")
	for _, row := range []store.Values{
		{"post_id": "p1", "hashtag_text": "go"},
		{"post_id": "p1", "hashtag_text": "db"},
		{"post_id": "p2", "hashtag_text": "go"},
	} {
		_, err := s.Insert(ctx, "hashtags", row)
		require.NoError(t, err)
	}

	out, err := execute(t, ctx, "count", "posts", "hashtags", "post_id=p1", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = execute(t, ctx, "count", "posts", "hashtags", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	_, err = execute(t, ctx, "count", "posts", "hashtags", "nope=1", "--data-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCount_IntegerColumnMatchesTextArgument(t *testing.T) {
	ctx := context.Background()
	dir := initDataDir(t)

	s := openForTest(t, dir, "posts")
	_, err := s.Insert(ctx, "posts", store.Values{"post_id": "p1", "user_id": 42})
	require.NoError(t, err)

	out, err := execute(t, ctx, "count", "posts", "posts", "user_id=42", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestSchema_AddAndDropColumn(t *testing.T) {
	ctx := context.Background()
	dir := initDataDir(t)

	_, err := execute(t, ctx, "schema", "add-column", "posts", "posts", "pinned", "BOOLEAN", "--data-dir", dir)
	require.NoError(t, err)

	s := openForTest(t, dir, "posts")
	cols, err := s.Columns(ctx, "posts")
	require.NoError(t, err)
	assert.Contains(t, cols, "pinned")
	require.NoError(t, s.Close())

	_, err = execute(t, ctx, "schema", "add-column", "posts", "posts", "pinned", "TEXT", "--data-dir", dir)
	require.Error(t, err, "duplicate column")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, ctx, "schema", "add-column", "posts", "posts", "x", "VARCHAR", "--data-dir", dir)
	require.Error(t, err)

	_, err = execute(t, ctx, "schema", "drop-column", "posts", "posts", "pinned", "--data-dir", dir)
	require.NoError(t, err)

	_, err = execute(t, ctx, "schema", "drop-column", "posts", "posts", "pinned", "--data-dir", dir)
	require.Error(t, err)
}

func TestSchema_DropTable(t *testing.T) {
	ctx := context.Background()
	dir := initDataDir(t)

	out, err := execute(t, ctx, "schema", "drop-table", "posts", "views", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "table dropped: posts.views")

	_, err = execute(t, ctx, "schema", "drop-table", "posts", "views", "--data-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	// init restores the declared table.
	out, err = execute(t, ctx, "init", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "+ views")
}

func insertSession(t *testing.T, s *store.Store, id string, expires time.Time) {
	t.Helper()
	_, err := s.Insert(context.Background(), "sessions", store.Values{
		"session_id": id,
		"data":       `{}`,
		"expires":    expires.UnixMilli(),
	})
	require.NoError(t, err)
}

func TestSweep_Once(t *testing.T) {
	ctx := context.Background()
	dir := initDataDir(t)

	s := openForTest(t, dir, "users")
	insertSession(t, s, "old", time.Now().Add(-time.Hour))
	insertSession(t, s, "new", time.Now().Add(time.Hour))

	out, err := execute(t, ctx, "sweep", "--data-dir", dir, "--format", "json")
	require.NoError(t, err)
	var result sweepResult
	decodeData(t, out, &result)
	assert.Equal(t, "users", result.Store)
	assert.Equal(t, 1, result.Removed)

	_, err = s.Find(ctx, "sessions", query.Where("session_id", "new"))
	assert.NoError(t, err)
}

func TestSweep_EveryUntilCancelled(t *testing.T) {
	dir := initDataDir(t)

	s := openForTest(t, dir, "users")
	insertSession(t, s, "old", time.Now().Add(-time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, err := execute(t, ctx, "sweep", "--every", "--interval", "10ms", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Sweeping users every 10ms")

	n, err := s.Count(context.Background(), "sessions", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweep_NoSessionsTable(t *testing.T) {
	layoutPath := filepath.Join(t.TempDir(), "layout.cue")
	require.NoError(t, writeFile(layoutPath, `stores: s: { file: "s.db", tables: t: { c: "TEXT" } }`))

	_, err := execute(t, context.Background(), "sweep", "--data-dir", t.TempDir(), "--layout", layoutPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o644)
}
