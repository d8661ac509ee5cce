// Package analyzer extracts script metadata from source files by lexical
// scan: a leading doc-comment block, "from" import specifiers, and a fixed
// keyword-to-tag vocabulary. It deliberately does not parse an AST; the
// spec's extraction rules operate on comment text and string literals, not
// language syntax, so a line/regex scan is both simpler and language-agnostic
// across the shell/Python/Lua scripts a script-index ingests.
package analyzer

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/scriptindex/scriptindex/domain/record"
	"github.com/scriptindex/scriptindex/internal/errs"
)

// keywords is the fixed, closed tag vocabulary scanned for in lowercased
// file contents.
var keywords = []string{
	"audio", "video", "gpu", "nvidia", "amd", "drivers", "configuration",
	"config", "setup", "install", "pulseaudio", "pipewire", "alsa",
	"davinci", "obs", "system", "network", "disk", "diagnostic", "monitor",
	"service", "docker", "deployment", "build", "test", "database", "api",
}

// categorySegments lists the path segments checked, in priority order, to
// infer a script's category. Anything else falls back to "other".
var categorySegments = []string{"audio", "system", "dev"}

const categoryOther = "other"

var fromImportRe = regexp.MustCompile(`from\s+["']([^"']+)["']`)

// commentPrefixRe strips a leading comment marker (#, //, one or more
// leading /* asterisks, or a bare *) plus at most one following whitespace
// character from a line. `/\*+` is greedy so it consumes every opening asterisk of a
// JSDoc-style `/**` marker in one match, leaving no stray `*` behind.
var commentPrefixRe = regexp.MustCompile(`^\s*(/\*+|//|#|\*)\s?`)

const singleLineDescriptionPrefix = "description:"
const usageLinePrefix = "usage:"
const usagePrefix = "usage"

// Analyze reads a single source file and emits a Script record without
// embedding fields populated. Failure to read the file surfaces an
// AnalyzerError; the caller (the Seeder) is expected to record it and
// continue with other files.
func Analyze(path string) (record.Script, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return record.Script{}, errs.NewAnalyzerError(path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return record.Script{}, errs.NewAnalyzerError(path, err)
	}

	text := string(contents)
	lines := strings.Split(text, "\n")

	description, usage := extractDescriptionAndUsage(lines)
	deps := extractDependencies(text)
	tags := extractTags(text)
	category := inferCategory(absPath)
	name := scriptName(absPath)

	b := record.NewBuilder().
		Name(name).
		Path(absPath).
		Category(category).
		Description(description).
		Usage(usage).
		Tags(tags).
		Dependencies(deps)

	return b.Build(), nil
}

// extractDescriptionAndUsage locates the leading doc-comment block (skipping
// a shebang line, if present) and splits it into a description and a usage
// section per the usage: marker.
func extractDescriptionAndUsage(lines []string) (string, string) {
	start := 0
	if start < len(lines) && strings.HasPrefix(lines[start], "#!") {
		start++
	}

	var block []string
	for i := start; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" && len(block) == 0 {
			continue
		}
		if isBlockCommentTerminator(trimmed) {
			break
		}
		if !isCommentLine(trimmed) {
			break
		}
		block = append(block, stripCommentPrefix(line))
	}

	if len(block) == 0 {
		return extractSingleLineDescription(lines), ""
	}

	usageIdx := -1
	for i, l := range block {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(l)), usageLinePrefix) {
			usageIdx = i
			break
		}
	}

	var descLines []string
	if usageIdx == -1 {
		descLines = block
	} else {
		descLines = block[:usageIdx]
	}

	var desc []string
	for _, l := range descLines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(strings.ToLower(trimmed), usagePrefix) {
			continue
		}
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(trimmed), singleLineDescriptionPrefix) {
			trimmed = strings.TrimSpace(trimmed[len(singleLineDescriptionPrefix):])
		}
		desc = append(desc, trimmed)
	}

	var usage string
	if usageIdx != -1 {
		usageLines := block[usageIdx:]
		// Drop the "usage:" marker itself, keeping any trailing text on
		// that same line.
		first := strings.TrimLeft(usageLines[0], " \t")
		afterMarker := first[len(usageLinePrefix):]
		usageLines[0] = afterMarker
		usage = strings.TrimRight(strings.Join(usageLines, "\n"), "\n")
		usage = strings.TrimPrefix(usage, "\n")
	}

	return strings.Join(desc, " "), usage
}

// extractSingleLineDescription accepts a single-line "Description: <text>"
// comment on any line of the file, case-insensitively.
func extractSingleLineDescription(lines []string) string {
	for _, line := range lines {
		trimmed := strings.TrimSpace(stripCommentPrefix(line))
		if strings.HasPrefix(strings.ToLower(trimmed), singleLineDescriptionPrefix) {
			return strings.TrimSpace(trimmed[len(singleLineDescriptionPrefix):])
		}
	}
	return ""
}

func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*")
}

func stripCommentPrefix(line string) string {
	return commentPrefixRe.ReplaceAllString(line, "")
}

// isBlockCommentTerminator reports whether trimmed is a bare `*/` closing a
// JSDoc-style block comment. Such a line ends the doc block without
// contributing content.
func isBlockCommentTerminator(trimmed string) bool {
	return trimmed == "*/"
}

// extractDependencies records every `from "<specifier>"` / `from
// '<specifier>'` construct in source order, duplicates allowed.
func extractDependencies(text string) []string {
	matches := fromImportRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	deps := make([]string, 0, len(matches))
	for _, m := range matches {
		deps = append(deps, m[1])
	}
	return deps
}

// extractTags scans lowercased file contents for the fixed keyword
// vocabulary, deduplicated and sorted.
func extractTags(text string) record.TagSet {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	sort.Strings(found)
	return record.NewTagSet(found...)
}

// inferCategory returns the first matching path segment in priority order,
// or "other" if none match.
func inferCategory(path string) string {
	normalized := filepath.ToSlash(path)
	segments := strings.Split(normalized, "/")
	segSet := make(map[string]struct{}, len(segments))
	for _, s := range segments {
		segSet[strings.ToLower(s)] = struct{}{}
	}

	for _, candidate := range categorySegments {
		if _, ok := segSet[candidate]; ok {
			return candidate
		}
	}
	return categoryOther
}

// scriptName returns the basename with its final extension removed.
func scriptName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}
