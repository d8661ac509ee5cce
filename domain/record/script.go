// Package record defines the Script value type, the canonical domain
// entity shared by the repository, analyzer, seeder, and search layers.
package record

import "time"

// Script is an immutable snapshot of a discovered script's metadata and,
// once computed, its embedding. Zero values are obtained only through New
// or a Builder.
type Script struct {
	id            int64
	name          string
	path          string
	category      string
	description   string
	usage         string
	tags          TagSet
	dependencies  []string
	embeddingText string
	embedding     []float64
	tokens        int
	createdAt     time.Time
	updatedAt     time.Time
}

// New constructs a Script from already-validated fields. Most callers
// should prefer Builder, which fills in derived fields incrementally.
func New(
	id int64,
	name, path, category, description, usage string,
	tags TagSet,
	dependencies []string,
	embeddingText string,
	embedding []float64,
	tokens int,
	createdAt, updatedAt time.Time,
) Script {
	return Script{
		id:            id,
		name:          name,
		path:          path,
		category:      category,
		description:   description,
		usage:         usage,
		tags:          tags,
		dependencies:  append([]string(nil), dependencies...),
		embeddingText: embeddingText,
		embedding:     append([]float64(nil), embedding...),
		tokens:        tokens,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (s Script) ID() int64              { return s.id }
func (s Script) Name() string           { return s.name }
func (s Script) Path() string           { return s.path }
func (s Script) Category() string       { return s.category }
func (s Script) Description() string    { return s.description }
func (s Script) Usage() string          { return s.usage }
func (s Script) Tags() TagSet           { return s.tags }
func (s Script) EmbeddingText() string  { return s.embeddingText }
func (s Script) Tokens() int            { return s.tokens }
func (s Script) CreatedAt() time.Time   { return s.createdAt }
func (s Script) UpdatedAt() time.Time   { return s.updatedAt }

// Dependencies returns a defensive copy of the ordered dependency list.
func (s Script) Dependencies() []string {
	return append([]string(nil), s.dependencies...)
}

// Embedding returns a defensive copy of the embedding vector. A nil or
// empty return means the record has not yet been embedded.
func (s Script) Embedding() []float64 {
	return append([]float64(nil), s.embedding...)
}

// HasEmbedding reports whether the record carries a non-empty embedding.
func (s Script) HasEmbedding() bool {
	return len(s.embedding) > 0
}

// WithID returns a copy of s with id set, used by the repository after an
// insert assigns the store-generated identifier.
func (s Script) WithID(id int64) Script {
	s.id = id
	return s
}
