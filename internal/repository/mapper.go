package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/scriptindex/scriptindex/domain/record"
	"github.com/scriptindex/scriptindex/internal/storage"
)

const selectColumns = `SELECT id, name, path, category, description, usage, tags, dependencies, embedding_text, embedding, tokens, created_at, updated_at`

// scriptRow mirrors the scripts table's column shape, the teacher's
// EntityMapper naming convention applied to a single domain/row pair.
type scriptRow struct {
	id            int64
	name          string
	path          string
	category      string
	description   string
	usage         string
	tags          string
	dependencies  string
	embeddingText string
	embedding     string
	tokens        int
	createdAt     time.Time
	updatedAt     time.Time
}

// scriptToRow serializes a record.Script's tags/dependencies/embedding as
// JSON text, per spec.md §4.4.
func scriptToRow(s record.Script) (scriptRow, error) {
	tagsJSON, err := json.Marshal(s.Tags().Strings())
	if err != nil {
		return scriptRow{}, fmt.Errorf("marshal tags: %w", err)
	}
	depsJSON, err := json.Marshal(s.Dependencies())
	if err != nil {
		return scriptRow{}, fmt.Errorf("marshal dependencies: %w", err)
	}

	vec := storage.NewVector(s.Embedding())
	embeddingVal, err := vec.Value()
	if err != nil {
		return scriptRow{}, fmt.Errorf("marshal embedding: %w", err)
	}

	return scriptRow{
		name:          s.Name(),
		path:          s.Path(),
		category:      s.Category(),
		description:   s.Description(),
		usage:         s.Usage(),
		tags:          string(tagsJSON),
		dependencies:  string(depsJSON),
		embeddingText: s.EmbeddingText(),
		embedding:     embeddingVal.(string),
		tokens:        s.Tokens(),
	}, nil
}

// rowToScript deserializes a storage.Row into a record.Script, recovering
// the exact numeric embedding sequence.
func rowToScript(row storage.Row) (record.Script, error) {
	var tags []string
	if raw := toString(row["tags"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return record.Script{}, fmt.Errorf("unmarshal tags: %w", err)
		}
	}

	var deps []string
	if raw := toString(row["dependencies"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &deps); err != nil {
			return record.Script{}, fmt.Errorf("unmarshal dependencies: %w", err)
		}
	}

	var vec storage.Vector
	if err := vec.Scan(row["embedding"]); err != nil {
		return record.Script{}, fmt.Errorf("unmarshal embedding: %w", err)
	}

	createdAt, _ := toTime(row["created_at"])
	updatedAt, _ := toTime(row["updated_at"])

	b := record.NewBuilder().
		ID(toInt64(row["id"])).
		Name(toString(row["name"])).
		Path(toString(row["path"])).
		Category(toString(row["category"])).
		Description(toString(row["description"])).
		Usage(toString(row["usage"])).
		Tags(record.NewTagSet(tags...)).
		Dependencies(deps).
		EmbeddingText(toString(row["embedding_text"])).
		Embedding(vec.Floats()).
		Tokens(int(toInt64(row["tokens"]))).
		CreatedAt(createdAt).
		UpdatedAt(updatedAt)

	return b.Build(), nil
}

// Partial describes an Update's optionally-set fields.
type Partial struct {
	Name          *string
	Category      *string
	Description   *string
	Usage         *string
	Tags          *record.TagSet
	Dependencies  *[]string
	EmbeddingText *string
	Embedding     *[]float64
	Tokens        *int
}

func (p Partial) assignments() ([]string, []any) {
	var sets []string
	var args []any

	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *p.Category)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Usage != nil {
		sets = append(sets, "usage = ?")
		args = append(args, *p.Usage)
	}
	if p.Tags != nil {
		b, _ := json.Marshal(p.Tags.Strings())
		sets = append(sets, "tags = ?")
		args = append(args, string(b))
	}
	if p.Dependencies != nil {
		b, _ := json.Marshal(*p.Dependencies)
		sets = append(sets, "dependencies = ?")
		args = append(args, string(b))
	}
	if p.EmbeddingText != nil {
		sets = append(sets, "embedding_text = ?")
		args = append(args, *p.EmbeddingText)
	}
	if p.Embedding != nil {
		vec := storage.NewVector(*p.Embedding)
		val, _ := vec.Value()
		sets = append(sets, "embedding = ?")
		args = append(args, val)
	}
	if p.Tokens != nil {
		sets = append(sets, "tokens = ?")
		args = append(args, *p.Tokens)
	}

	return sets, args
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toInt64(v any) int64 {
	switch val := v.(type) {
	case nil:
		return 0
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case int64:
		return float64(val)
	default:
		return 0
	}
}

func toTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		t, err := time.Parse("2006-01-02 15:04:05", val)
		if err != nil {
			t, err = time.Parse(time.RFC3339, val)
			if err != nil {
				return time.Time{}, false
			}
		}
		return t, true
	default:
		return time.Time{}, false
	}
}
