// Package page extracts structured context from stored HTML pages.
//
// A Document captures the navigable and semantic content of one page: its
// title, meta tags, headings, navigation links, image alt texts, highlighted
// actions, and readable full text. Documents are built per request and never
// cached; they are the grounding source for the voice assistant.
package page

import (
	"fmt"
	"strings"
)

// Document is the structured extraction of one page. Immutable once produced.
type Document struct {
	Title           string
	MetaDescription string
	MetaKeywords    string

	// HeadingsByLevel maps heading level (1-6) to heading texts in
	// document order. Levels without headings are absent.
	HeadingsByLevel map[int][]string

	// MainTopics are the h2/h3 headings inside <main>, the page's primary
	// sections. Empty when the page has no <main>.
	MainTopics []string

	// NavLinks are the unique nav anchor texts in document order; Links
	// maps each text to its href (first occurrence wins).
	NavLinks []string
	Links    map[string]string

	ImageAltTexts []string
	Actions       []string
	FullText      string
}

// ContextString renders the document as the context block handed to the
// language model.
func (d *Document) ContextString() string {
	return fmt.Sprintf(`- Page Title: %q
- Main Topics Covered: %s
- Available Navigation Links: %s
- Potential Actions on Page: %s`,
		d.Title,
		orNA(d.MainTopics),
		orNA(d.NavLinks),
		orNA(d.Actions),
	)
}

func orNA(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, ", ")
}

// NotFoundError reports a page name that does not resolve to a stored page.
type NotFoundError struct {
	Page string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("page: %q not found", e.Page)
}

// ParseError reports a stored page that could not be parsed as markup.
type ParseError struct {
	Page string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("page: parse %q: %v", e.Page, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
