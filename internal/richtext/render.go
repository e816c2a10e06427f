package richtext

import (
	"fmt"
	"strings"
)

// Warning reasons attached to render and load results. They surface to
// operators as editor.render.warning events; they are never errors.
const (
	ReasonUnsupportedNode    = "node_type_unsupported"
	ReasonUnsafeImageSrc     = "unsafe_image_src"
	ReasonStoredHTMLInvalid  = "stored_html_invalid"
	ReasonContentJSONInvalid = "content_json_invalid"
)

// Warning records one degradation that occurred while producing output.
type Warning struct {
	Reason   string
	NodeType string
}

// Result is the outcome of rendering a structured document: the produced
// HTML plus the ordered list of degradations. Rendering never fails; corrupt
// or unsupported input degrades to partial output.
type Result struct {
	HTML     string
	Warnings []Warning
}

func (r *Result) warn(reason, nodeType string) {
	for _, w := range r.Warnings {
		if w.Reason == reason && w.NodeType == nodeType {
			return
		}
	}
	r.Warnings = append(r.Warnings, Warning{Reason: reason, NodeType: nodeType})
}

// escaper converts the five HTML metacharacters to entity form. Every text
// and attribute insertion point goes through escape, with no exception for
// supposedly trusted text.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escape(s string) string {
	return escaper.Replace(s)
}

// Escape exposes the shared escaping routine for callers that splice text
// into markup outside the renderer (page titles, attribute values).
func Escape(s string) string {
	return escape(s)
}

// Render converts a structured document into HTML under the given profile.
// Node types outside the profile are elided with a warning. If nothing at
// all survives, the output is a single empty paragraph so downstream
// consumers always receive valid markup.
func Render(doc *Document, profile Profile) *Result {
	res := &Result{}
	if doc == nil {
		res.HTML = "<p></p>"
		return res
	}

	var b strings.Builder
	for _, node := range doc.Content {
		renderNode(&b, node, profile, res)
	}

	res.HTML = b.String()
	if res.HTML == "" {
		res.HTML = "<p></p>"
	}
	return res
}

func renderNode(b *strings.Builder, node Node, profile Profile, res *Result) {
	if !profile.Allows(node.Type) {
		res.warn(ReasonUnsupportedNode, node.Type)
		return
	}

	switch node.Type {
	case NodeHeader:
		renderHeader(b, node)
	case NodeParagraph:
		fmt.Fprintf(b, "<p>%s</p>", escape(nodeText(node)))
	case NodeList:
		renderList(b, node)
	case NodeQuote:
		renderQuote(b, node)
	case NodeCode:
		fmt.Fprintf(b, "<pre><code>%s</code></pre>", escape(nodeText(node)))
	case NodeImage:
		renderImage(b, node, res)
	default:
		// Allow-listed in the profile but not renderable; treat the same
		// as an unsupported type rather than forwarding anything raw.
		res.warn(ReasonUnsupportedNode, node.Type)
	}
}

func renderHeader(b *strings.Builder, node Node) {
	level := node.intAttr("level", 2)
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	fmt.Fprintf(b, "<h%d>%s</h%d>", level, escape(nodeText(node)), level)
}

func renderList(b *strings.Builder, node Node) {
	tag := "ul"
	if node.stringAttr("style") == "ordered" {
		tag = "ol"
	}
	fmt.Fprintf(b, "<%s>", tag)
	for _, item := range node.Content {
		fmt.Fprintf(b, "<li>%s</li>", escape(nodeText(item)))
	}
	fmt.Fprintf(b, "</%s>", tag)
}

func renderQuote(b *strings.Builder, node Node) {
	b.WriteString("<blockquote>")
	fmt.Fprintf(b, "<p>%s</p>", escape(nodeText(node)))
	if caption := node.stringAttr("caption"); caption != "" {
		fmt.Fprintf(b, "<cite>%s</cite>", escape(caption))
	}
	b.WriteString("</blockquote>")
}

func renderImage(b *strings.Builder, node Node, res *Result) {
	src, ok := NormalizeLink(node.Attrs["src"])
	if !ok {
		// Unsafe target drops the whole node, not just the attribute.
		res.warn(ReasonUnsafeImageSrc, node.Type)
		return
	}

	b.WriteString("<figure>")
	fmt.Fprintf(b, `<img src="%s" alt="%s">`, escape(src), escape(node.stringAttr("alt")))
	if caption := node.stringAttr("caption"); caption != "" {
		fmt.Fprintf(b, "<figcaption>%s</figcaption>", escape(caption))
	}
	b.WriteString("</figure>")
}

// nodeText collects the textual content of a node: its own leaf text plus
// the text of any direct child text nodes (the editor emits either form).
func nodeText(node Node) string {
	if node.Text != "" {
		return node.Text
	}
	var b strings.Builder
	for _, child := range node.Content {
		if child.Text != "" {
			b.WriteString(child.Text)
		}
	}
	return b.String()
}
