package engine

import "github.com/sentiric/knowledge-query-service/internal/vectorstore"

// Payload keys written by the ingestion pipeline.
const (
	payloadKeyContent = "content"
	payloadKeySource  = "source_uri"

	// unknownSource is the fallback when a hit carries no source.
	unknownSource = "unknown"
)

// Result is one retrieved document.
type Result struct {
	// Content is the document text.
	Content string `json:"content"`

	// Score is the similarity score, copied verbatim from the index.
	Score float32 `json:"score"`

	// Source identifies the document's provenance.
	Source string `json:"source"`

	// Metadata is the full stored payload. Content and source are kept in
	// it as well, so the payload round-trips losslessly to callers.
	Metadata map[string]any `json:"metadata"`
}

// resultFromHit maps one index hit to a Result.
func resultFromHit(hit vectorstore.Hit) Result {
	content, _ := hit.Payload[payloadKeyContent].(string)
	source := unknownSource
	if s, ok := hit.Payload[payloadKeySource].(string); ok && s != "" {
		source = s
	}
	return Result{
		Content:  content,
		Score:    hit.Score,
		Source:   source,
		Metadata: hit.Payload,
	}
}
