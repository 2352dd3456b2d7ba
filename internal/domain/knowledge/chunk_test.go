package knowledge

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{"identical", Vector{1, 2, 3}, Vector{1, 2, 3}, 1},
		{"orthogonal", Vector{1, 0}, Vector{0, 1}, 0},
		{"opposite", Vector{1, 1}, Vector{-1, -1}, -1},
		{"zero norm", Vector{0, 0}, Vector{1, 1}, 0},
		{"empty", Vector{}, Vector{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}

	_, err := CosineSimilarity(Vector{1, 2}, Vector{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestVector_ValueScan(t *testing.T) {
	v := Vector{0.5, -1.25}
	raw, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, "[0.5,-1.25]", raw)

	var out Vector
	require.NoError(t, out.Scan([]byte("[0.5,-1.25]")))
	assert.Equal(t, v, out)

	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)
	assert.Error(t, out.Scan(42))

	raw, err = Vector(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestRankByVector(t *testing.T) {
	doc := uuid.New()
	chunks := []Chunk{
		{DocumentID: doc, Seq: 0, Embedding: Vector{1, 0}},
		{DocumentID: doc, Seq: 1, Embedding: Vector{0.9, 0.1}},
		{DocumentID: doc, Seq: 2, Embedding: Vector{0, 1}},
		{DocumentID: doc, Seq: 3},                       // no embedding
		{DocumentID: doc, Seq: 4, Embedding: Vector{1}}, // wrong dimension
	}

	ranked := RankByVector(Vector{1, 0}, chunks, 5, 0.5)
	require.Len(t, ranked, 2)
	assert.Equal(t, 0, ranked[0].Chunk.Seq)
	assert.Equal(t, 1, ranked[1].Chunk.Seq)
	assert.InDelta(t, 1.0, ranked[0].Score, 1e-6)

	ranked = RankByVector(Vector{1, 0}, chunks, 1, -1)
	require.Len(t, ranked, 1)

	assert.Empty(t, RankByVector(Vector{1, 0}, chunks, 5, 1.5))
}

func TestRankByVector_TiesOrderedBySeq(t *testing.T) {
	doc := uuid.New()
	chunks := []Chunk{
		{DocumentID: doc, Seq: 2, Embedding: Vector{1, 1}},
		{DocumentID: doc, Seq: 1, Embedding: Vector{1, 1}},
	}
	ranked := RankByVector(Vector{1, 1}, chunks, 0, 0)
	require.Len(t, ranked, 2)
	assert.Equal(t, 1, ranked[0].Chunk.Seq)
}

func TestTextScoring(t *testing.T) {
	assert.Equal(t, []string{"refund", "policy"}, Tokenize("What is the refund policy? Refund!"))

	assert.InDelta(t, 1.0, ScoreText("refund policy", "Our Refund Policy allows returns"), 1e-9)
	assert.InDelta(t, 0.5, ScoreText("refund timeline", "refund requests are reviewed"), 1e-9)
	assert.Zero(t, ScoreText("the of and", "anything"))

	chunks := []Chunk{
		{Seq: 0, Content: "Shipping takes five days."},
		{Seq: 1, Content: "Refunds are issued within a week of the return."},
		{Seq: 2, Content: "The refund policy covers damaged goods and late shipping."},
	}
	ranked := RankByText("refund policy", chunks, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, 2, ranked[0].Chunk.Seq)
	assert.InDelta(t, 1.0, ranked[0].Score, 1e-9)
	assert.Equal(t, 1, ranked[1].Chunk.Seq)
	assert.InDelta(t, 0.5, ranked[1].Score, 1e-9)
}

func TestTextScoring_InflectedContent(t *testing.T) {
	assert.InDelta(t, 1.0, ScoreText("refund", "Refunds are processed within seven days"), 1e-9)
	assert.InDelta(t, 1.0, ScoreText("assign lead", "Leads are assigned by territory"), 1e-9)
	assert.Zero(t, ScoreText("refund", "Returns are processed within seven days"))

	ranked := RankByText("refund", []Chunk{
		{Seq: 0, Content: "The refund policy allows returns."},
		{Seq: 1, Content: "Refunds are processed within seven days."},
		{Seq: 2, Content: "Shipping is free."},
	}, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, 0, ranked[0].Chunk.Seq)
	assert.Equal(t, 1, ranked[1].Chunk.Seq)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 2, EstimateTokens("नमस्ते"), "counts runes, not bytes")
}
