package richtext

import (
	"encoding/json"
	"fmt"
)

// Node is one element of a structured document tree. Leaf nodes carry Text,
// container nodes carry Content. Attrs holds primitive attribute values
// (src, href, alt, level, style, caption).
type Node struct {
	Type    string                 `json:"type"`
	Text    string                 `json:"text,omitempty"`
	Content []Node                 `json:"content,omitempty"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
}

// Document is a parsed structured rich-text document, the root of a node
// tree as produced by the admin editor.
type Document struct {
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// ParseDocument decodes serialized structured-document JSON. The root must
// be a "doc" node; anything else is a parse error so callers can fall back
// to the empty document.
func ParseDocument(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Type != "doc" {
		return nil, fmt.Errorf("parse document: unexpected root type %q", doc.Type)
	}
	return &doc, nil
}

// EmptyDocument returns the minimal valid document: a single empty
// paragraph. Used as the last fallback when stored JSON is unparseable.
func EmptyDocument() *Document {
	return &Document{
		Type:    "doc",
		Content: []Node{{Type: NodeParagraph}},
	}
}

// stringAttr returns a string attribute, or "" when absent or of another type.
func (n Node) stringAttr(key string) string {
	s, _ := n.Attrs[key].(string)
	return s
}

// intAttr returns an integer attribute. JSON numbers decode as float64, so
// both forms are accepted.
func (n Node) intAttr(key string, fallback int) int {
	switch v := n.Attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
