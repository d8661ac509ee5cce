package record

import "time"

// Builder assembles a Script incrementally, mirroring the distinct stages
// that populate it: the Analyzer fills metadata, the Seeder's embedding
// step fills the vector, and the Repository fills store-assigned fields.
type Builder struct {
	s Script
}

// NewBuilder starts a Builder with no fields set.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) ID(id int64) *Builder {
	b.s.id = id
	return b
}

func (b *Builder) Name(name string) *Builder {
	b.s.name = name
	return b
}

func (b *Builder) Path(path string) *Builder {
	b.s.path = path
	return b
}

func (b *Builder) Category(category string) *Builder {
	b.s.category = category
	return b
}

func (b *Builder) Description(description string) *Builder {
	b.s.description = description
	return b
}

func (b *Builder) Usage(usage string) *Builder {
	b.s.usage = usage
	return b
}

func (b *Builder) Tags(tags TagSet) *Builder {
	b.s.tags = tags
	return b
}

func (b *Builder) Dependencies(deps []string) *Builder {
	b.s.dependencies = append([]string(nil), deps...)
	return b
}

func (b *Builder) EmbeddingText(text string) *Builder {
	b.s.embeddingText = text
	return b
}

func (b *Builder) Embedding(vec []float64) *Builder {
	b.s.embedding = append([]float64(nil), vec...)
	return b
}

func (b *Builder) Tokens(tokens int) *Builder {
	b.s.tokens = tokens
	return b
}

func (b *Builder) CreatedAt(t time.Time) *Builder {
	b.s.createdAt = t
	return b
}

func (b *Builder) UpdatedAt(t time.Time) *Builder {
	b.s.updatedAt = t
	return b
}

// Build finalizes the Script.
func (b *Builder) Build() Script {
	return b.s
}
