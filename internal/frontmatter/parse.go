package frontmatter

import (
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"notesort/internal/errors"
	"notesort/internal/log"
)

// timestampLayouts covers the calendar forms the YAML resolver tags as
// !!timestamp.
var timestampLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Parse extracts the leading metadata block of a note and decodes it
// into an ordered mapping. The block must open at the very first line
// with `---` and close with a matching `---` line; LF and CRLF endings
// are both accepted. Any failure — no block, malformed YAML, or a
// non-mapping root — yields absent (nil, false). Errors are logged at
// debug level and never propagate.
func Parse(text string) (*Mapping, bool) {
	return ParseDocument("", text)
}

// ParseDocument is Parse for a note read from disk: name identifies the
// note in the failure logs.
func ParseDocument(name, text string) (*Mapping, bool) {
	body, _, ok := splitBlock(text)
	if !ok {
		return nil, false
	}
	return parseBody(body, name)
}

func parseBody(body, name string) (*Mapping, bool) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(body), &doc); err != nil {
		parseErr := errors.NewParseError("malformed metadata block", name, errors.ParseFailed, err)
		log.LogWithError(parseErr).Debug("frontmatter: block ignored")
		return nil, false
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, false
	}
	root := doc.Content[0]
	if root.Kind == yaml.AliasNode && root.Alias != nil {
		root = root.Alias
	}
	if root.Kind != yaml.MappingNode {
		parseErr := errors.NewParseError("metadata root is not a mapping", name, errors.NotAMapping, nil)
		log.LogWithError(parseErr).Debug("frontmatter: block ignored")
		return nil, false
	}
	m, ok := nodeMapping(root)
	if !ok {
		return nil, false
	}
	return m, true
}

// splitBlock locates the delimited block anchored at the start of text.
// It returns the block body (between the delimiter lines) and the rest
// of the text after the closing delimiter, both verbatim.
func splitBlock(text string) (body, rest string, ok bool) {
	nl := strings.IndexByte(text, '\n')
	if nl == -1 {
		return "", "", false
	}
	if strings.TrimRight(text[:nl], "\r") != "---" {
		return "", "", false
	}

	remainder := text[nl+1:]
	offset := 0
	for {
		lineEnd := strings.IndexByte(remainder[offset:], '\n')
		var line string
		var next int
		if lineEnd == -1 {
			line = remainder[offset:]
			next = len(remainder)
		} else {
			line = remainder[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		}
		if strings.TrimRight(line, "\r") == "---" {
			return remainder[:offset], remainder[next:], true
		}
		if lineEnd == -1 {
			return "", "", false
		}
		offset = next
	}
}

func nodeMapping(n *yaml.Node) (*Mapping, bool) {
	m := NewMapping()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if key.Kind == yaml.AliasNode && key.Alias != nil {
			key = key.Alias
		}
		if key.Kind != yaml.ScalarNode {
			return nil, false
		}
		m.Set(key.Value, nodeValue(n.Content[i+1]))
	}
	return m, true
}

// nodeValue converts a YAML node into the tagged variant form. Scalars
// that fail to parse as their resolved tag fall back to strings rather
// than erroring.
func nodeValue(n *yaml.Node) Value {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	switch n.Kind {
	case yaml.MappingNode:
		m, ok := nodeMapping(n)
		if !ok {
			return Null()
		}
		return Map(m)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, item := range n.Content {
			items = append(items, nodeValue(item))
		}
		return List(items...)
	case yaml.ScalarNode:
		return scalarValue(n)
	}
	return Null()
}

func scalarValue(n *yaml.Node) Value {
	switch n.Tag {
	case "!!null":
		return Null()
	case "!!bool":
		b, err := strconv.ParseBool(strings.ToLower(n.Value))
		if err != nil {
			return String(n.Value)
		}
		return Bool(b)
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return String(n.Value)
		}
		return Int(i)
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return String(n.Value)
		}
		return Float(f)
	case "!!timestamp":
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, n.Value); err == nil {
				return Time(t)
			}
		}
		return String(n.Value)
	default:
		return String(n.Value)
	}
}
