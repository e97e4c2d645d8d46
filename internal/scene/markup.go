// internal/scene/markup.go
package scene

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ValidateMarkup checks that overlay markup parses to at least one element or
// non-blank text node.
func ValidateMarkup(src string) error {
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("%w: empty markup", ErrMalformedContent)
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	for _, n := range nodes {
		switch n.Type {
		case html.ElementNode:
			return nil
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: markup has no content", ErrMalformedContent)
}
