package knowledge

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/shared"
)

// ErrDimensionMismatch is returned when comparing vectors of different length
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Vector is an embedding. It is persisted as a JSON array.
type Vector []float32

// Value implements driver.Valuer
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (v *Vector) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		return json.Unmarshal([]byte(s), (*[]float32)(v))
	case []byte:
		return json.Unmarshal(s, (*[]float32)(v))
	default:
		return fmt.Errorf("cannot scan %T into Vector", src)
	}
}

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero-norm vector has similarity 0 with everything.
func CosineSimilarity(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Chunk is a slice of a document's text with its embedding
type Chunk struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	DocumentID uuid.UUID
	Seq        int
	Content    string
	Embedding  Vector
	// EmbeddingModel names the model that produced Embedding
	EmbeddingModel string
	TokenCount     int
}

// NewChunk creates a chunk for a document
func NewChunk(tenantID, documentID uuid.UUID, seq int, content string) Chunk {
	return Chunk{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		DocumentID: documentID,
		Seq:        seq,
		Content:    content,
		TokenCount: EstimateTokens(content),
	}
}

// HasEmbedding reports whether the chunk can take part in vector search
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// EstimateTokens approximates the token count at four characters per token
func EstimateTokens(s string) int {
	n := len([]rune(s))
	return (n + 3) / 4
}
