package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Serialize renders a mapping as a block-style metadata body (without
// the `---` delimiters). It is intentionally a narrow emitter, not a
// general round-trip-safe one: output the emitter itself produces
// re-parses to an equal structure, but arbitrary documents may not
// round-trip byte for byte.
func Serialize(m *Mapping) string {
	var sb strings.Builder
	writeMapping(&sb, m, 0)
	return sb.String()
}

func writeMapping(sb *strings.Builder, m *Mapping, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		switch v.Kind() {
		case KindMapping:
			child, _ := v.AsMapping()
			if child.Len() == 0 {
				sb.WriteString(indent + key + ": {}\n")
				continue
			}
			sb.WriteString(indent + key + ":\n")
			writeMapping(sb, child, depth+1)
		case KindList:
			items, _ := v.AsList()
			if len(items) == 0 {
				sb.WriteString(indent + key + ": []\n")
				continue
			}
			sb.WriteString(indent + key + ":\n")
			writeList(sb, items, depth+1)
		default:
			sb.WriteString(indent + key + ": " + scalarText(v) + "\n")
		}
	}
}

func writeList(sb *strings.Builder, items []Value, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, item := range items {
		switch item.Kind() {
		case KindMapping:
			child, _ := item.AsMapping()
			if child.Len() == 0 {
				sb.WriteString(indent + "- {}\n")
				continue
			}
			// Mapping items go as a nested block under a bare marker.
			sb.WriteString(indent + "-\n")
			writeMapping(sb, child, depth+1)
		case KindList:
			nested, _ := item.AsList()
			if len(nested) == 0 {
				sb.WriteString(indent + "- []\n")
				continue
			}
			sb.WriteString(indent + "-\n")
			writeList(sb, nested, depth+1)
		default:
			sb.WriteString(indent + "- " + scalarText(item) + "\n")
		}
	}
}

// scalarText renders a scalar for emission: booleans as lowercase
// literals, timestamps as calendar text, strings quoted only when the
// bare form would be unsafe or would re-parse as a different type.
func scalarText(v Value) string {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		if needsQuoting(s) {
			return quote(s)
		}
		return s
	default:
		return v.String()
	}
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, ":#\n\r\"") {
		return true
	}
	if s != strings.TrimSpace(s) {
		return true
	}
	if strings.HasPrefix(s, "- ") || s == "-" {
		return true
	}
	return !reparsesAsString(s)
}

// reparsesAsString reports whether the bare form of s survives a YAML
// round trip as the same plain string. Asking the resolver itself keeps
// this exhaustive: booleans, numbers in any base or notation,
// timestamps, nulls, flow collections, and node properties (&, *, !)
// all come back as something other than a matching !!str scalar and get
// quoted instead.
func reparsesAsString(s string) bool {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return false
	}
	root := doc.Content[0]
	return root.Kind == yaml.ScalarNode && root.Tag == "!!str" && root.Value == s
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
