package similarity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/domain/similarity"
)

func articleAt(title, content, hash string, published time.Time) *entity.Article {
	return &entity.Article{
		Title:       title,
		Content:     content,
		ContentHash: hash,
		PublishedAt: published,
	}
}

func TestScore_ContentHashShortCircuit(t *testing.T) {
	now := time.Now()
	a := articleAt("Fed raises rates", "body one", "samehash", now)
	b := articleAt("Completely different title", "body two", "samehash", now.Add(-48*time.Hour))

	result := similarity.Score(a, b, similarity.DefaultConfig())

	assert.Equal(t, entity.MethodContentHash, result.Method)
	assert.Equal(t, 1.0, result.Breakdown.Overall)
	assert.True(t, result.IsMatch)
}

func TestScore_NearIdenticalTitlesSelectsTitleMethod(t *testing.T) {
	now := time.Now()
	a := articleAt("Fed raises interest rates by quarter point", "story body text here", "hash-a", now)
	b := articleAt("Fed raises interest rates by a quarter point", "different wording entirely used", "hash-b", now)

	result := similarity.Score(a, b, similarity.DefaultConfig())

	require.GreaterOrEqual(t, result.Breakdown.TitleSim, 0.9)
	assert.Equal(t, entity.MethodTitleSimilarity, result.Method)
}

func TestScore_EntitySimilarityFallsBackToContentMethod(t *testing.T) {
	now := time.Now()
	a := articleAt("Markets react to earnings", "quarterly results beat expectations across the board", "hash-a", now)
	b := articleAt("Stocks move after quarterly report", "quarterly results beat expectations across the board today", "hash-b", now)

	cfg := similarity.DefaultConfig()
	result := similarity.Score(a, b, cfg)

	assert.Less(t, result.Breakdown.TitleSim, 0.9)
	assert.Equal(t, entity.MethodContentSimilarity, result.Method)
}

func TestScore_UnrelatedArticlesScoreLow(t *testing.T) {
	now := time.Now()
	a := articleAt("Local weather forecast for the weekend", "rain expected on saturday with clearing skies sunday", "hash-a", now)
	b := articleAt("New restaurant opens downtown", "chef announces seasonal menu changes for autumn", "hash-b", now.Add(-10*24*time.Hour))

	result := similarity.Score(a, b, similarity.DefaultConfig())

	assert.Less(t, result.Breakdown.Overall, 0.3)
	assert.False(t, result.IsMatch)
}

func TestWeights_Validate(t *testing.T) {
	valid := similarity.Weights{Title: 0.4, Content: 0.4, Entity: 0.2}
	assert.NoError(t, valid.Validate())

	invalid := similarity.Weights{Title: 0.5, Content: 0.5, Entity: 0.5}
	assert.Error(t, invalid.Validate())
}

func TestCheapDiscard(t *testing.T) {
	now := time.Now()
	a := articleAt("Local weather forecast for the weekend", "rain expected saturday", "hash-a", now)
	b := articleAt("New restaurant opens downtown", "chef announces seasonal menu", "hash-b", now.Add(-30*24*time.Hour))

	assert.True(t, similarity.CheapDiscard(a, b, similarity.DefaultConfig()))

	c := articleAt("Fed raises interest rates today", "rates up by quarter point announced", "hash-c", now)
	d := articleAt("Fed raises interest rates today", "rates up by quarter point announced", "hash-d", now)
	assert.False(t, similarity.CheapDiscard(c, d, similarity.DefaultConfig()))
}

func TestTitleSim_EmptyInputsScoreZero(t *testing.T) {
	assert.Equal(t, 0.0, similarity.TitleSim("", "something"))
	assert.Equal(t, 0.0, similarity.TitleSim("something", ""))
}

func TestTemporalProx_DecaysToZeroPastWindow(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 1.0, similarity.TemporalProx(now, now))
	assert.Equal(t, 0.0, similarity.TemporalProx(now, now.Add(-72*time.Hour)))
}

func TestSourceAlign_MatchesSourceCategoryAndTags(t *testing.T) {
	a := &entity.Article{Source: "reuters", Category: "markets", Tags: []string{"fed", "rates"}}
	b := &entity.Article{Source: "reuters", Category: "markets", Tags: []string{"fed", "rates"}}
	assert.InDelta(t, 1.0, similarity.SourceAlign(a, b), 0.001)

	c := &entity.Article{Source: "ap", Category: "sports", Tags: []string{"baseball"}}
	assert.Equal(t, 0.0, similarity.SourceAlign(a, c))
}
