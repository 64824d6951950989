package frontmatter

import (
	"strconv"
	"strings"
)

// segment is one step of a field path: a mapping key, optionally
// followed by a zero-based list index (`name[2]`).
type segment struct {
	key     string
	index   int
	indexed bool
}

// parseSegment splits an optional `[i]` suffix off a path segment.
// A malformed suffix (negative, non-numeric, unbalanced) leaves the
// segment as a plain key so that lookup simply misses.
func parseSegment(raw string) segment {
	open := strings.IndexByte(raw, '[')
	if open <= 0 || !strings.HasSuffix(raw, "]") {
		return segment{key: raw}
	}
	idx, err := strconv.Atoi(raw[open+1 : len(raw)-1])
	if err != nil || idx < 0 {
		return segment{key: raw}
	}
	return segment{key: raw[:open], index: idx, indexed: true}
}

// GetField resolves a dotted path against a metadata mapping. Each
// segment narrows the current value by one step: a plain segment
// requires a mapping and looks up the key, an indexed segment then
// requires the keyed value to be a list and selects the element. Every
// failure mode — nil root, empty path, missing key, non-mapping step,
// non-list index target, out-of-range index — yields absent rather
// than an error. A final explicit null is also reported as absent; this
// layer does not distinguish no-value from null.
func GetField(doc *Mapping, path string) (Value, bool) {
	if doc == nil || path == "" {
		return Null(), false
	}

	current := Map(doc)
	for _, raw := range strings.Split(path, ".") {
		seg := parseSegment(raw)

		m, ok := current.AsMapping()
		if !ok {
			return Null(), false
		}
		next, ok := m.Get(seg.key)
		if !ok {
			return Null(), false
		}

		if seg.indexed {
			list, ok := next.AsList()
			if !ok {
				return Null(), false
			}
			if seg.index >= len(list) {
				return Null(), false
			}
			next = list[seg.index]
		}
		current = next
	}

	if current.IsNull() {
		return Null(), false
	}
	return current, true
}

// HasField reports whether GetField resolves the path.
func HasField(doc *Mapping, path string) bool {
	_, ok := GetField(doc, path)
	return ok
}

// GetMultiple resolves a batch of paths and returns only the present
// ones, keyed by path.
func GetMultiple(doc *Mapping, paths []string) map[string]Value {
	out := make(map[string]Value)
	for _, path := range paths {
		if v, ok := GetField(doc, path); ok {
			out[path] = v
		}
	}
	return out
}

// SetField assigns a value at a dotted path inside a note's metadata
// block and returns the rewritten note text. When the note has no block
// a fresh one is created in front of the existing content. When the
// note has a block that fails to parse, the original text is returned
// unchanged rather than risking data loss. Intermediate segments that
// are missing or hold non-mappings are replaced with empty mappings;
// replacing a non-mapping discards its value. List-index assignment is
// not supported: segments are treated as literal keys. Everything after
// the block is preserved verbatim.
func SetField(text, path, value string) string {
	return SetFieldValue(text, path, String(value))
}

// SetFieldValue is SetField for an arbitrary metadata value.
func SetFieldValue(text, path string, value Value) string {
	if path == "" {
		return text
	}

	doc := NewMapping()
	rest := text
	if body, after, ok := splitBlock(text); ok {
		parsed, parsedOK := parseBody(body, "")
		if !parsedOK {
			return text
		}
		doc = parsed
		rest = after
	}

	segments := strings.Split(path, ".")
	current := doc
	for _, key := range segments[:len(segments)-1] {
		next, ok := current.Get(key)
		if !ok || !next.IsMapping() {
			child := NewMapping()
			current.Set(key, Map(child))
			current = child
			continue
		}
		child, _ := next.AsMapping()
		current = child
	}
	current.Set(segments[len(segments)-1], value)

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString(Serialize(doc))
	sb.WriteString("---\n")
	sb.WriteString(rest)
	return sb.String()
}

// GetAllPaths enumerates every reachable key path in depth-first
// pre-order, descending into nested mappings but not into lists.
func GetAllPaths(doc *Mapping) []string {
	var out []string
	if doc == nil {
		return out
	}
	collectPaths(doc, "", &out)
	return out
}

func collectPaths(m *Mapping, prefix string, out *[]string) {
	for _, key := range m.Keys() {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		*out = append(*out, path)
		if v, _ := m.Get(key); v.IsMapping() {
			child, _ := v.AsMapping()
			collectPaths(child, path, out)
		}
	}
}
