package richtext

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// elementsFor maps a node type to the HTML elements its rendering may emit.
var elementsFor = map[string][]string{
	NodeHeader:    {"h1", "h2", "h3", "h4", "h5", "h6"},
	NodeParagraph: {"p", "br"},
	NodeList:      {"ul", "ol", "li"},
	NodeQuote:     {"blockquote", "cite"},
	NodeCode:      {"pre", "code"},
	NodeImage:     {"figure", "img", "figcaption"},
}

// ValidateStoredHTML checks persisted rendered markup against the structural
// allow-list of the given profile. It is the read-time defense for HTML that
// may have been corrupted or tampered with since it was rendered: any
// element outside the profile's set, any inline event handler, and any
// href/src that fails NormalizeLink make the markup invalid.
//
// An error here never reaches a caller of the store; it triggers
// regeneration from the structured JSON instead.
func ValidateStoredHTML(html string, profile Profile) error {
	if strings.TrimSpace(html) == "" {
		return fmt.Errorf("stored html is empty")
	}

	allowed := map[string]bool{
		// Inline links may appear in legacy fragments; their targets are
		// checked below like any other.
		"a": true,
	}
	for nodeType, elements := range elementsFor {
		if !profile.Allows(nodeType) {
			continue
		}
		for _, el := range elements {
			allowed[el] = true
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse stored html: %w", err)
	}

	// The fragment parser hoists metadata content (script, style, title)
	// into head, so the walk must cover both trees or a bare <script>
	// fragment would pass unseen.
	var invalid error
	doc.Find("head *, body *").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		node := sel.Get(0)
		tag := strings.ToLower(node.Data)

		if !allowed[tag] {
			invalid = fmt.Errorf("disallowed element <%s>", tag)
			return false
		}

		for _, attr := range node.Attr {
			name := strings.ToLower(attr.Key)
			if strings.HasPrefix(name, "on") {
				invalid = fmt.Errorf("inline event handler %q on <%s>", attr.Key, tag)
				return false
			}
			if name == "href" || name == "src" {
				if _, ok := NormalizeLink(attr.Val); !ok {
					invalid = fmt.Errorf("unsafe %s target on <%s>", name, tag)
					return false
				}
			}
		}
		return true
	})

	return invalid
}
