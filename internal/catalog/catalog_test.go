// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/science-digest/pkg/types"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func article(id, subject, title, content string) types.Article {
	return types.Article{
		ID:              id,
		Meta:            types.Paper{Title: title, Subject: subject},
		Content:         content,
		ProcessedAt:     "2026-01-01 10:00:00",
		SubjectCategory: subject,
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	c1, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, c1.Close())

	c2, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, c2.Close())
}

func TestLedger(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	p := types.Paper{Title: "T", URL: "https://pubmed.ncbi.nlm.nih.gov/1/", Subject: "biology", Source: types.SourcePubMed}

	seen, err := c.Seen(ctx, p.URL)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, c.MarkSeen(ctx, p))
	require.NoError(t, c.MarkSeen(ctx, p))

	seen, err = c.Seen(ctx, p.URL)
	require.NoError(t, err)
	assert.True(t, seen)

	papers, _, err := c.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, papers)
}

func TestIndexAndSearch(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	require.NoError(t, c.IndexArticle(ctx, article("20260101_a", "physics", "Superconductors",
		"超導體在低溫下電阻為零。\n===QUIZ_JSON===\n{\"question\":\"magnetism\"}")))
	require.NoError(t, c.IndexArticle(ctx, article("20260102_b", "biology", "CRISPR",
		"基因編輯工具 CRISPR 可以修改DNA。")))

	ids, err := c.Search(ctx, "超導體", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101_a"}, ids)

	ids, err = c.Search(ctx, "crispr", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260102_b"}, ids)

	ids, err = c.Search(ctx, "magnetism", 10)
	require.NoError(t, err)
	assert.Empty(t, ids, "quiz JSON is not indexed")

	ids, err = c.Search(ctx, `bad "syntax* OR`, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = c.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestIndexArticleUpserts(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	require.NoError(t, c.IndexArticle(ctx, article("id1", "physics", "Old title", "old words here")))
	require.NoError(t, c.IndexArticle(ctx, article("id1", "physics", "New title", "fresh words here")))

	ids, err := c.Search(ctx, "old words", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = c.Search(ctx, "fresh", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"id1"}, ids)

	_, articles, err := c.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, articles)
}

func TestReindex(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	require.NoError(t, c.IndexArticle(ctx, article("stale", "physics", "Stale", "stale entry")))

	var out bytes.Buffer
	summary, err := c.Reindex(ctx, []types.Article{
		article("a", "physics", "Laser", "laser light"),
		article("b", "chemistry", "Buffer", "buffer solution"),
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, IndexSummary{Indexed: 2}, summary)
	assert.Equal(t, 2, summary.Total())
	assert.Contains(t, out.String(), "indexed a")
	assert.Contains(t, out.String(), "indexed: 2, failed: 0")

	ids, err := c.Search(ctx, "stale", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = c.Search(ctx, "buffer", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestIndexedIDs(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	ids, err := c.IndexedIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, c.IndexArticle(ctx, article("a", "physics", "量子點", "量子點發光")))
	require.NoError(t, c.IndexArticle(ctx, article("b", "biology", "細胞", "細胞分裂")))

	ids, err = c.IndexedIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, ids)
}

func TestSearchShortTermMatchesNothing(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	require.NoError(t, c.IndexArticle(ctx, article("a", "physics", "量子點", "量子點發光")))

	ids, err := c.Search(ctx, "量子", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = c.Search(ctx, "量子點", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"laser" "light"`, ftsQuery(" laser  light "))
	assert.Equal(t, `"a""b"`, ftsQuery(`a"b`))
	assert.Equal(t, "", ftsQuery(""))
}
