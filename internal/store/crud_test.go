package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/agora/internal/query"
	"github.com/roach88/agora/internal/schema"
)

func TestInsert_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	id, err := s.Insert(ctx, "posts", Values{
		"post_id":   "p1",
		"user_id":   int64(42),
		"post_text": "hello",
		"hashtags":  []string{"go", "sqlite"},
		"score":     1.5,
		"pinned":    true,
		"thumbnail": []byte{0x89, 0x50, 0x4e, 0x47},
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	rec, err := s.Find(ctx, "posts", query.Where("post_id", "p1"))
	require.NoError(t, err)

	assert.Equal(t, id, rec.RowID)
	assert.Equal(t, []string{"post_id", "user_id", "post_text", "hashtags", "score", "pinned", "thumbnail"}, rec.Columns())
	assert.Equal(t, "hello", rec.String("post_text"))

	userID, ok := rec.Int64("user_id")
	require.True(t, ok)
	assert.Equal(t, int64(42), userID)

	score, ok := rec.Float64("score")
	require.True(t, ok)
	assert.Equal(t, 1.5, score)

	pinned, ok := rec.Bool("pinned")
	require.True(t, ok)
	assert.True(t, pinned)

	var tags []string
	require.NoError(t, rec.Decode("hashtags", &tags))
	assert.Equal(t, []string{"go", "sqlite"}, tags)
	assert.Equal(t, `["go","sqlite"]`, rec.String("hashtags"))

	raw, _ := rec.Get("thumbnail")
	assert.IsType(t, []byte(nil), raw)
	text, _ := rec.Get("post_text")
	assert.IsType(t, "", text)
}

func TestInsert_MapStoredCanonically(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.Insert(ctx, "posts", Values{
		"post_id":  "p1",
		"hashtags": map[string]any{"b": 1, "a": "<x>"},
	})
	require.NoError(t, err)

	rec, err := s.Find(ctx, "posts", query.Where("post_id", "p1"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<x>","b":1}`, rec.String("hashtags"))
}

func TestInsert_NilIsNull(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.Insert(ctx, "posts", Values{"post_id": "p1", "hashtags": nil})
	require.NoError(t, err)

	rec, err := s.Find(ctx, "posts", query.Where("hashtags", nil))
	require.NoError(t, err)
	assert.True(t, rec.IsNull("hashtags"))
	assert.Error(t, rec.Decode("hashtags", new([]string)))
}

func TestInsert_UnknownColumnExecutesNothing(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.Insert(ctx, "posts", Values{"post_id": "p1", "nope": 1})
	var uce *query.UnknownColumnError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, "nope", uce.Column)
	assert.Zero(t, statements(s, opInsert))

	n, err := s.Count(ctx, "posts", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInsert_MissingTable(t *testing.T) {
	s := createTestStore(t)

	id, err := s.Insert(context.Background(), "ghosts", Values{"x": 1})
	assert.Zero(t, id)
	assert.True(t, schema.IsKind(err, schema.KindMissingTable))
	assert.True(t, IsSoft(err))
	assert.Zero(t, statements(s, opInsert))
}

func TestFind_OldestMatch(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	first := insertPost(t, s, "p1", 1)
	insertPost(t, s, "p2", 1)

	rec, err := s.Find(ctx, "posts", query.Where("user_id", 1))
	require.NoError(t, err)
	assert.Equal(t, first, rec.RowID)
}

func TestFind_NotFound(t *testing.T) {
	s := createTestStore(t)

	rec, err := s.Find(context.Background(), "posts", query.Where("post_id", "missing"))
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, query.ErrUnknownColumn)
}

func TestFind_UnknownColumnIsNotNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Find(context.Background(), "posts", query.Where("nope", 1))
	assert.ErrorIs(t, err, query.ErrUnknownColumn)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Zero(t, statements(s, opFind))
}

func TestFind_EmptyCriteria(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Find(context.Background(), "posts", nil)
	assert.ErrorIs(t, err, ErrEmptyCriteria)
}

func TestFindAll_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	insertPost(t, s, "p1", 1)
	insertPost(t, s, "p2", 2)
	insertPost(t, s, "p3", 1)

	recs, err := s.FindAll(ctx, "posts", query.Where("user_id", 1))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "p3", recs[0].String("post_id"))
	assert.Equal(t, "p1", recs[1].String("post_id"))

	all, err := s.All(ctx, "posts")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFindAll_NeverNil(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	recs, err := s.FindAll(ctx, "posts", query.Where("post_id", "none"))
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	recs, err = s.FindAll(ctx, "ghosts", nil)
	assert.Error(t, err)
	assert.NotNil(t, recs)
}

func TestFindAll_MultipleCriteria(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	insertPost(t, s, "p1", 1)
	insertPost(t, s, "p2", 1)

	recs, err := s.FindAll(ctx, "posts", query.Where("user_id", 1).And("post_id", "p2"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "p2", recs[0].String("post_id"))
}

func TestUpdate_Bulk(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	insertPost(t, s, "p1", 1)
	insertPost(t, s, "p2", 1)
	insertPost(t, s, "p3", 2)

	changed, err := s.Update(ctx, "posts", query.Where("user_id", 1), Values{"post_text": "edited"})
	require.NoError(t, err)
	assert.True(t, changed)

	n, err := s.Count(ctx, "posts", query.Where("post_text", "edited"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUpdate_MissingRowIsFalseWithoutError(t *testing.T) {
	s := createTestStore(t)

	changed, err := s.Update(context.Background(), "posts", query.Where("post_id", "missing"), Values{"post_text": "x"})
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdate_UnknownColumnExecutesNothing(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	insertPost(t, s, "p1", 1)

	before := statements(s, opUpdate)

	changed, err := s.Update(ctx, "posts", query.Where("post_id", "p1"), Values{"post_text": "x", "nope": 1})
	assert.False(t, changed)
	assert.ErrorIs(t, err, query.ErrUnknownColumn)

	changed, err = s.Update(ctx, "posts", query.Where("nope", 1), Values{"post_text": "x"})
	assert.False(t, changed)
	assert.ErrorIs(t, err, query.ErrUnknownColumn)

	assert.Equal(t, before, statements(s, opUpdate))

	rec, err := s.Find(ctx, "posts", query.Where("post_id", "p1"))
	require.NoError(t, err)
	assert.Equal(t, "text of p1", rec.String("post_text"))
}

func TestUpdate_EmptyPatch(t *testing.T) {
	s := createTestStore(t)

	changed, err := s.Update(context.Background(), "posts", query.Where("post_id", "p1"), Values{})
	assert.False(t, changed)
	assert.ErrorIs(t, err, ErrEmptyPatch)
	assert.Zero(t, statements(s, opUpdate))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	insertPost(t, s, "p1", 1)
	insertPost(t, s, "p2", 1)
	insertPost(t, s, "p3", 2)

	n, err := s.Delete(ctx, "posts", query.Where("user_id", 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.Delete(ctx, "posts", query.Where("user_id", 1))
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Delete(ctx, "posts", nil)
	assert.ErrorIs(t, err, ErrEmptyCriteria)

	left, err := s.Count(ctx, "posts", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}

func TestDelete_UnknownColumnExecutesNothing(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	insertPost(t, s, "p1", 1)

	n, err := s.Delete(ctx, "posts", query.Where("nope", 1))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, query.ErrUnknownColumn)
	assert.True(t, IsSoft(err))
	assert.Zero(t, statements(s, opDelete))

	left, err := s.Count(ctx, "posts", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}

func TestMixedCaseTableName_DroppedTableIsSoftMissing(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.Columns(ctx, "POSTS")
	require.NoError(t, err)
	require.NoError(t, s.DropTable(ctx, "posts"))

	rec, err := s.Find(ctx, "POSTS", query.Where("post_id", "p1"))
	assert.Nil(t, rec)
	assert.True(t, schema.IsKind(err, schema.KindMissingTable), "got %v", err)
	assert.True(t, IsSoft(err))
	assert.Zero(t, statements(s, opFind))

	err = s.CreateTable(ctx, "posts", postColumns)
	require.NoError(t, err)
	err = s.CreateTable(ctx, "POSTS", postColumns)
	assert.True(t, schema.IsKind(err, schema.KindDuplicateTable), "got %v", err)
}

func TestCount_GuardsReturnZero(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	insertPost(t, s, "p1", 1)

	n, err := s.Count(ctx, "posts", query.Where("nope", 1))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, query.ErrUnknownColumn)

	n, err = s.Count(ctx, "ghosts", nil)
	assert.Zero(t, n)
	assert.True(t, IsSoft(err))
}

func TestPaginate_Totals(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	const total = 25
	for i := 0; i < total; i++ {
		insertPost(t, s, string(rune('a'+i)), int64(i))
	}

	seen := map[int64]bool{}
	var sizes []int
	var prev int64 = 1 << 62
	for offset := 0; offset < total; offset += 10 {
		page, err := s.Paginate(ctx, "posts", 10, offset)
		require.NoError(t, err)
		sizes = append(sizes, len(page))
		for _, rec := range page {
			assert.Less(t, rec.RowID, prev, "pages are newest first")
			prev = rec.RowID
			seen[rec.RowID] = true
		}
	}
	assert.Equal(t, []int{10, 10, 5}, sizes)
	assert.Len(t, seen, total)
}

func TestPaginate_Edges(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	insertPost(t, s, "p1", 1)
	insertPost(t, s, "p2", 1)

	page, err := s.Paginate(ctx, "posts", 10, 2)
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)

	page, err = s.Paginate(ctx, "posts", 10, 99)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = s.Paginate(ctx, "posts", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = s.Paginate(ctx, "posts", 1, -5)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "p2", page[0].String("post_id"))

	_, err = s.Paginate(ctx, "ghosts", 10, 0)
	assert.True(t, schema.IsKind(err, schema.KindMissingTable))
}

func TestStructuralPassThrough(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.AddColumn(ctx, "posts", schema.Col("category", schema.Text)))
	_, err := s.Insert(ctx, "posts", Values{"post_id": "p1", "category": "news"})
	require.NoError(t, err)

	require.NoError(t, s.DropColumn(ctx, "posts", "category"))
	_, err = s.Insert(ctx, "posts", Values{"post_id": "p2", "category": "news"})
	assert.ErrorIs(t, err, query.ErrUnknownColumn)

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts"}, tables)

	require.NoError(t, s.DropTable(ctx, "posts"))
	exists, err := s.TableExists(ctx, "posts")
	require.NoError(t, err)
	assert.False(t, exists)
}
