package steam

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
)

// ErrNoAppName is returned when a store page has no app name element.
var ErrNoAppName = errors.New("steam: app name not found")

const contentIDPrefix = "ReviewContent"

// ParseReviews extracts the reviews of a listing fragment. Every element
// with class review_box yields one record. Polarity comes from the thumb
// element and is left nil when neither thumbsUp nor thumbsDown appears.
// The text is the content element's text. Records without a ReviewContent
// id get one derived from their text.
func ParseReviews(fragment string) ([]ingest.RawReview, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse review html: %w", err)
	}

	var out []ingest.RawReview
	walk(doc, func(n *html.Node) bool {
		if !hasClass(n, "review_box") {
			return true
		}
		out = append(out, parseReviewBox(n))
		return false
	})
	return out, nil
}

func parseReviewBox(box *html.Node) ingest.RawReview {
	var raw ingest.RawReview

	if thumb := findFirst(box, func(n *html.Node) bool { return hasClass(n, "thumb") }); thumb != nil {
		marker := strings.ToLower(render(thumb))
		switch {
		case strings.Contains(marker, "thumbsup"):
			raw.VotedUp = ingest.Bool(true)
		case strings.Contains(marker, "thumbsdown"):
			raw.VotedUp = ingest.Bool(false)
		}
	}

	if content := findFirst(box, func(n *html.Node) bool { return hasClass(n, "content") }); content != nil {
		raw.Text = strings.TrimSpace(textOf(content))
	}

	idNode := findFirst(box, func(n *html.Node) bool {
		return strings.HasPrefix(attr(n, "id"), contentIDPrefix)
	})
	if idNode != nil {
		raw.ID = trailingDigits(attr(idNode, "id"))
	}
	if raw.ID == "" && raw.Text != "" {
		h := fnv.New64a()
		h.Write([]byte(raw.Text))
		raw.ID = fmt.Sprintf("h%016x", h.Sum64())
	}
	return raw
}

// ParseAppName returns the text of the apphub_AppName element.
func ParseAppName(page string) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse store page: %w", err)
	}
	n := findFirst(doc, func(n *html.Node) bool { return hasClass(n, "apphub_AppName") })
	if n == nil {
		return "", ErrNoAppName
	}
	name := strings.Join(strings.Fields(textOf(n)), " ")
	if name == "" {
		return "", ErrNoAppName
	}
	return name, nil
}

// walk visits n and its descendants depth first. Returning false from
// visit skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		switch {
		case c.Type == html.TextNode:
			sb.WriteString(c.Data)
		case c.Type == html.ElementNode && c.Data == "br":
			sb.WriteString("\n")
		}
		return true
	})
	return sb.String()
}

// render returns the serialized markup below n, attributes included.
func render(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String()
}

func trailingDigits(s string) string {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[i:]
}
