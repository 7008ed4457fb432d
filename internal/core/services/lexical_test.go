package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
)

func lexicalOver(chunks ...domain.Chunk) *LexicalEngine {
	return NewLexicalEngine(&fakeCorpus{chunks: chunks}, DefaultLexicalConfig())
}

func chunkWith(id, filename string, page int, text string) domain.Chunk {
	return domain.Chunk{ID: id, Filename: filename, Page: page, TotalPages: page, ChunkIndex: 0, Text: text}
}

func TestLexicalExactMatchOutranksOverlap(t *testing.T) {
	engine := lexicalOver(
		chunkWith("c1", "essays.txt", 1, "An essay about something else entirely, 288 words long."),
		chunkWith("c2", "essays.txt", 4, "The piece Essay#288 discusses citation styles in depth."),
	)

	results, err := engine.Search(context.Background(), "Essay#288")
	require.NoError(t, err)
	require.Len(t, results, 1, "exact match suppresses word-overlap results")

	assert.True(t, results[0].ExactMatch)
	assert.Equal(t, "essays.txt", results[0].Filename)
	assert.Equal(t, 4, results[0].Page)
	assert.Equal(t, domain.SourceLexical, results[0].Source)
	assert.Contains(t, results[0].Content, "Essay#288")
}

func TestLexicalWordOverlapScore(t *testing.T) {
	engine := lexicalOver(
		chunkWith("c1", "guide.txt", 1, "To reset your account password, open the settings page."),
		chunkWith("c2", "guide.txt", 2, "The password policy requires twelve characters."),
	)

	// "my" is too short to be a token; "reset" and "password" remain.
	results, err := engine.Search(context.Background(), "reset my password")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, float64(2), results[0].Score, "both tokens match the first chunk")
	assert.Equal(t, 1, results[0].Page)
	assert.Equal(t, float64(1), results[1].Score)
	assert.False(t, results[0].ExactMatch)
}

func TestLexicalExactScoreIncludesBonus(t *testing.T) {
	engine := lexicalOver(
		chunkWith("c1", "faq.txt", 1, "Our refund policy covers thirty days."),
	)

	results, err := engine.Search(context.Background(), "refund policy")
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Two token matches plus the exact-phrase bonus.
	assert.True(t, results[0].ExactMatch)
	assert.Equal(t, float64(12), results[0].Score)
}

func TestLexicalExactSnippetWindow(t *testing.T) {
	padding := strings.Repeat("x", 500)
	text := padding + " refund policy " + padding
	engine := lexicalOver(chunkWith("c1", "faq.txt", 1, text))

	results, err := engine.Search(context.Background(), "refund policy")
	require.NoError(t, err)
	require.Len(t, results, 1)

	snippet := results[0].Content
	assert.True(t, strings.HasPrefix(snippet, "..."), "clamped left edge gets an ellipsis")
	assert.True(t, strings.HasSuffix(snippet, "..."), "clamped right edge gets an ellipsis")
	assert.Contains(t, snippet, "refund policy")
	// Window is 200 before + 400 after plus the ellipses.
	assert.LessOrEqual(t, len(snippet), 200+400+6)
}

func TestLexicalExactCap(t *testing.T) {
	var chunks []domain.Chunk
	for i := 0; i < 7; i++ {
		chunks = append(chunks, chunkWith(
			fmt.Sprintf("c%d", i), "faq.txt", i+1,
			fmt.Sprintf("Mention %d of the refund policy.", i)))
	}
	engine := lexicalOver(chunks...)

	results, err := engine.Search(context.Background(), "refund policy")
	require.NoError(t, err)
	assert.Len(t, results, 5, "exact citations are capped")
	for _, r := range results {
		assert.True(t, r.ExactMatch)
	}
}

func TestLexicalOverlapCap(t *testing.T) {
	var chunks []domain.Chunk
	for i := 0; i < 4; i++ {
		chunks = append(chunks, chunkWith(
			fmt.Sprintf("c%d", i), "guide.txt", i+1,
			fmt.Sprintf("Page %d mentions password management.", i)))
	}
	engine := lexicalOver(chunks...)

	results, err := engine.Search(context.Background(), "reset password")
	require.NoError(t, err)
	assert.Len(t, results, 3, "word-overlap results are capped")
}

func TestLexicalNoUsableTokens(t *testing.T) {
	engine := lexicalOver(chunkWith("c1", "guide.txt", 1, "it is an od"))

	results, err := engine.Search(context.Background(), "it is an")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLexicalNoMatches(t *testing.T) {
	engine := lexicalOver(chunkWith("c1", "guide.txt", 1, "Completely unrelated text."))

	results, err := engine.Search(context.Background(), "quantum entanglement")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLexicalBestParagraphSelection(t *testing.T) {
	text := "Billing happens monthly.\n\nTo reset a forgotten password, use the reset link on the login page.\n\nContact support for anything else."
	engine := lexicalOver(chunkWith("c1", "guide.txt", 1, text))

	results, err := engine.Search(context.Background(), "forgotten password reset")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "To reset a forgotten password, use the reset link on the login page.", results[0].Content)
}

func TestLexicalParagraphTruncation(t *testing.T) {
	long := "password " + strings.Repeat("details ", 100) // well over the cap
	engine := lexicalOver(chunkWith("c1", "guide.txt", 1, long))

	results, err := engine.Search(context.Background(), "reset password")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, strings.HasSuffix(results[0].Content, "..."))
	assert.LessOrEqual(t, len(results[0].Content), 600+3)
}

func TestLexicalSnippetSafeOnMultiByteText(t *testing.T) {
	cfg := DefaultLexicalConfig()
	cfg.SnippetBefore = 5
	cfg.SnippetAfter = 16
	text := strings.Repeat("é", 20) + "refund policy" + strings.Repeat("é", 20)
	engine := NewLexicalEngine(&fakeCorpus{chunks: []domain.Chunk{
		chunkWith("c1", "faq.txt", 1, text),
	}}, cfg)

	results, err := engine.Search(context.Background(), "refund policy")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, utf8.ValidString(results[0].Content), "window edges must not split runes")
	assert.Contains(t, results[0].Content, "refund policy")
	assert.True(t, strings.HasPrefix(results[0].Content, "..."))
	assert.True(t, strings.HasSuffix(results[0].Content, "..."))
}

func TestLexicalSnippetSafeWhenLoweringGrowsText(t *testing.T) {
	// Turkish dotted capital I lowers to two runes, so offsets found in
	// the lowercased text can run past the end of the original.
	text := strings.Repeat("İ", 50) + " refund policy details"
	engine := lexicalOver(chunkWith("c1", "faq.txt", 1, text))

	results, err := engine.Search(context.Background(), "refund policy")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, utf8.ValidString(results[0].Content))
}

func TestLexicalParagraphTruncationSafeOnMultiByteText(t *testing.T) {
	cfg := DefaultLexicalConfig()
	cfg.ParagraphMax = 11
	engine := NewLexicalEngine(&fakeCorpus{chunks: []domain.Chunk{
		chunkWith("c1", "notes.txt", 1, strings.Repeat("résumé ", 20)),
	}}, cfg)

	// Word overlap only: "report" never appears, so no exact match.
	results, err := engine.Search(context.Background(), "résumé report")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, utf8.ValidString(results[0].Content), "truncation must not split runes")
	assert.True(t, strings.HasSuffix(results[0].Content, "..."))
}

func TestLexicalCaseInsensitive(t *testing.T) {
	engine := lexicalOver(chunkWith("c1", "faq.txt", 2, "REFUND POLICY: see section four."))

	results, err := engine.Search(context.Background(), "Refund Policy")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].ExactMatch)
}
