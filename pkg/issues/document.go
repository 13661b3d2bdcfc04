package issues

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Attributes read and written on issue reference elements.
const (
	AttrNumber = "data-number"
	AttrTitle  = "data-title"
	AttrState  = "data-state"
	AttrLabels = "data-labels"
	AttrError  = "data-error"

	// ReferenceClass marks an element as an issue reference.
	ReferenceClass = "issue"
)

// ReferenceSource enumerates the raw issue-number attribute values found
// in a document, in document order.
type ReferenceSource interface {
	IssueReferences() []string
}

// References adapts a plain list of raw values to ReferenceSource.
type References []string

// IssueReferences implements ReferenceSource.
func (r References) IssueReferences() []string {
	return r
}

// ParseIssueNumber reads a reference value the way the document tool
// always has: leading whitespace and an optional sign are skipped and the
// leading run of decimal digits is used ("42abc" is 42). Values without
// digits and values <= 0 are rejected.
func ParseIssueNumber(raw string) (int, bool) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil || negative || n <= 0 {
		return 0, false
	}
	return n, true
}

// IssueNumbers parses every reference from src, dropping invalid and
// duplicate values. First-seen order is kept.
func IssueNumbers(src ReferenceSource) []int {
	if src == nil {
		return nil
	}
	seen := make(map[int]bool)
	var numbers []int
	for _, raw := range src.IssueReferences() {
		n, ok := ParseIssueNumber(raw)
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		numbers = append(numbers, n)
	}
	return numbers
}

// HTMLDocument is a parsed HTML document whose issue references are
// elements with class "issue" and a data-number attribute.
type HTMLDocument struct {
	root       *html.Node
	references []*html.Node
}

// ParseHTML parses an HTML document.
func ParseHTML(r io.Reader) (*HTMLDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &HTMLDocument{root: root}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, ReferenceClass) {
			if _, ok := attr(n, AttrNumber); ok {
				doc.references = append(doc.references, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return doc, nil
}

// IssueReferences implements ReferenceSource.
func (d *HTMLDocument) IssueReferences() []string {
	values := make([]string, 0, len(d.references))
	for _, n := range d.references {
		v, _ := attr(n, AttrNumber)
		values = append(values, v)
	}
	return values
}

// Annotate writes the fetched status onto every reference element that
// has an entry in idx and returns how many elements were updated.
func (d *HTMLDocument) Annotate(idx Index) int {
	updated := 0
	for _, n := range d.references {
		raw, _ := attr(n, AttrNumber)
		number, ok := ParseIssueNumber(raw)
		if !ok {
			continue
		}
		result, ok := idx[number]
		if !ok {
			continue
		}

		if !result.OK() {
			setAttr(n, AttrError, result.Err.Notification())
			updated++
			continue
		}

		issue := result.Issue
		setAttr(n, AttrTitle, issue.Title)
		setAttr(n, AttrState, issue.State)
		if len(issue.Labels) > 0 {
			names := make([]string, 0, len(issue.Labels))
			for _, label := range issue.Labels {
				names = append(names, label.Name)
			}
			setAttr(n, AttrLabels, strings.Join(names, ","))
		}
		if _, hasTitle := attr(n, "title"); !hasTitle && issue.Title != "" {
			setAttr(n, "title", fmt.Sprintf("#%d: %s (%s)", number, issue.Title, issue.State))
		}
		updated++
	}
	return updated
}

// Render writes the (possibly annotated) document to w.
func (d *HTMLDocument) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}
