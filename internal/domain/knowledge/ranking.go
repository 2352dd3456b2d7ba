package knowledge

import (
	"bytes"
	"cmp"
	"slices"
	"strings"
)

// ScoredChunk is a search hit
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RankByVector scores chunks against the query embedding and keeps the topK above minScore.
// Chunks without an embedding or with a different dimension are skipped.
func RankByVector(query Vector, chunks []Chunk, topK int, minScore float64) []ScoredChunk {
	scored := make([]ScoredChunk, 0, len(chunks))
	for _, ch := range chunks {
		if !ch.HasEmbedding() {
			continue
		}
		score, err := CosineSimilarity(query, ch.Embedding)
		if err != nil || score < minScore {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: ch, Score: score})
	}
	return topScored(scored, topK)
}

// RankByText scores chunks by query term overlap and keeps the topK with a positive score
func RankByText(query string, chunks []Chunk, topK int) []ScoredChunk {
	terms := Tokenize(query)
	scored := make([]ScoredChunk, 0, len(chunks))
	for _, ch := range chunks {
		if score := scoreTerms(terms, query, ch.Content); score > 0 {
			scored = append(scored, ScoredChunk{Chunk: ch, Score: score})
		}
	}
	return topScored(scored, topK)
}

// ScoreText returns the fraction of query terms contained in content, matching
// the substring predicate of the text query. A verbatim phrase match scores 1.
func ScoreText(query, content string) float64 {
	return scoreTerms(Tokenize(query), query, content)
}

func scoreTerms(terms []string, query, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lowered := strings.ToLower(content)
	if phrase := strings.ToLower(strings.TrimSpace(query)); len(terms) > 1 && strings.Contains(lowered, phrase) {
		return 1
	}
	hits := 0
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

func topScored(scored []ScoredChunk, topK int) []ScoredChunk {
	slices.SortStableFunc(scored, func(a, b ScoredChunk) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := bytes.Compare(a.Chunk.DocumentID[:], b.Chunk.DocumentID[:]); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.Seq, b.Chunk.Seq)
	})
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "what": true, "how": true, "i": true,
	"my": true, "our": true, "we": true, "can": true, "does": true,
}

// Tokenize lowercases text, trims punctuation and drops stop words.
// Duplicate terms are removed, first occurrence wins.
func Tokenize(text string) []string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}<>/\\*`"))
		if cleaned == "" || stopWords[cleaned] {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}
