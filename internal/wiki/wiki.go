// Package wiki fetches short biographies for discovered personas from
// Wikipedia. It scrapes the article intro and infobox rather than using the
// REST API: the summary endpoint omits the infobox facts the tutor prompts
// want, and the article HTML is stable enough for the few fields we read.
package wiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/curiolabs/curio/internal/logging"
)

const (
	// defaultBaseURL is the English Wikipedia origin.
	defaultBaseURL = "https://en.wikipedia.org"

	// userAgent identifies us per Wikipedia's bot policy.
	userAgent = "curio/1.0 (persona discovery; github.com/curiolabs/curio)"

	// maxBodySize caps how much of an article we read. Intro and infobox
	// always fit well within this.
	maxBodySize = 2 << 20

	// bioTarget is how much paragraph text we accumulate before stopping;
	// bioCap is the hard length limit after citation cleanup.
	bioTarget = 500
	bioCap    = 600

	// minParagraph filters out the empty placeholder paragraphs Wikipedia
	// articles start with.
	minParagraph = 50

	// maxParagraphs bounds the intro scan.
	maxParagraphs = 5

	// factValueCap limits each infobox value.
	factValueCap = 100
)

// factKeys are the infobox rows worth keeping.
var factKeys = map[string]bool{
	"Born":       true,
	"Died":       true,
	"Occupation": true,
	"Known for":  true,
	"Education":  true,
}

var citationPattern = regexp.MustCompile(`\[\d+\]`)

// Bio is the biography bundle for one persona. Found is false when the
// article does not exist; the other fields are then empty except for the
// generated avatar URL.
type Bio struct {
	Name     string            `json:"name"`
	Bio      string            `json:"bio,omitempty"`
	Facts    map[string]string `json:"key_facts,omitempty"`
	ImageURL string            `json:"image_url,omitempty"`
	Source   string            `json:"source,omitempty"`
	Found    bool              `json:"found"`
}

// Client fetches persona biographies.
type Client struct {
	baseURL string
	client  *http.Client
	log     *logging.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the Wikipedia origin. Used in tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(base, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a biography client with a 5 second request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     logging.Global().WithComponent("wiki"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the biography for a persona by article title. A missing
// or inaccessible article yields Found=false with an avatar fallback image,
// not an error; errors are reserved for transport and parse failures.
func (c *Client) Fetch(ctx context.Context, name string) (*Bio, error) {
	pageURL := c.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(name, " ", "_"))
	c.log.Debug("fetching biography: %s", pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", name, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Debug("no article for %s (status %d)", name, resp.StatusCode)
		return &Bio{Name: name, ImageURL: AvatarURL(name)}, nil
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("parsing article for %s: %w", name, err)
	}

	bio := c.extract(doc, name)
	c.log.Debug("biography for %s: %d chars, %d facts", name, len(bio.Bio), len(bio.Facts))
	return bio, nil
}

// extract walks the parsed article and assembles the Bio.
func (c *Client) extract(doc *html.Node, name string) *Bio {
	var paragraphs []*html.Node
	var infobox *html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p":
				if len(paragraphs) < maxParagraphs {
					paragraphs = append(paragraphs, n)
				}
			case "table":
				if infobox == nil && hasClass(n, "infobox") {
					infobox = n
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	bio := &Bio{
		Name:   name,
		Bio:    introText(paragraphs),
		Source: "wikipedia",
		Found:  true,
	}

	if infobox != nil {
		bio.Facts = infoboxFacts(infobox)
		bio.ImageURL = infoboxImage(infobox)
	}
	if bio.ImageURL == "" {
		bio.ImageURL = AvatarURL(name)
	}
	return bio
}

// introText joins the substantial intro paragraphs, strips citation
// markers, and caps the result.
func introText(paragraphs []*html.Node) string {
	var sb strings.Builder
	for _, p := range paragraphs {
		text := strings.TrimSpace(nodeText(p))
		if len(text) <= minParagraph {
			continue
		}
		sb.WriteString(text)
		sb.WriteString(" ")
		if sb.Len() > bioTarget {
			break
		}
	}

	text := citationPattern.ReplaceAllString(sb.String(), "")
	if runes := []rune(text); len(runes) > bioCap {
		text = string(runes[:bioCap])
	}
	return strings.TrimSpace(text)
}

// infoboxFacts pulls the whitelisted header/value rows from the infobox.
func infoboxFacts(table *html.Node) map[string]string {
	facts := make(map[string]string)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			header := findChild(n, "th")
			data := findChild(n, "td")
			if header != nil && data != nil {
				key := strings.TrimSpace(nodeText(header))
				if factKeys[key] {
					value := strings.TrimSpace(nodeText(data))
					if runes := []rune(value); len(runes) > factValueCap {
						value = string(runes[:factValueCap])
					}
					facts[key] = value
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(table)

	if len(facts) == 0 {
		return nil
	}
	return facts
}

// infoboxImage returns the first image URL in the infobox, normalizing
// protocol-relative sources.
func infoboxImage(table *html.Node) string {
	var src string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if src != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "img" {
			src = attr(n, "src")
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(table)

	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

// AvatarURL returns a generated initials avatar for personas without an
// article image.
func AvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random&size=200&bold=true"
}

// nodeText concatenates all text nodes beneath n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// findChild returns the first descendant element with the given tag.
func findChild(n *html.Node, tag string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if found != nil {
			return
		}
		if node != n && node.Type == html.ElementNode && node.Data == tag {
			found = node
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return found
}

// hasClass reports whether the node's class attribute contains the name.
func hasClass(n *html.Node, name string) bool {
	for _, class := range strings.Fields(attr(n, "class")) {
		if class == name {
			return true
		}
	}
	return false
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
