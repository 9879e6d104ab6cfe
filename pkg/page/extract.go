package page

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// UntitledPage is the title substituted when a page has no <title>.
const UntitledPage = "Untitled Page"

// actionClasses mark buttons and links considered page actions.
var actionClasses = []string{"bg-blue-600", "bg-green-600"}

// Extractor resolves page names to Documents from a directory of stored
// HTML files. Extraction is deterministic and makes no network calls.
type Extractor struct {
	// Dir is the directory holding the HTML pages.
	Dir string
}

// Extract builds a Document for the named page.
// Returns *NotFoundError if the page does not exist and *ParseError if it
// cannot be parsed as markup. Page names are reduced to their base name so
// lookups cannot escape Dir.
func (e *Extractor) Extract(name string) (*Document, error) {
	path := filepath.Join(e.Dir, filepath.Base(name))

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Page: name}
		}
		return nil, fmt.Errorf("page: read %q: %w", name, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParseError{Page: name, Err: err}
	}

	d := &Document{
		Title:           UntitledPage,
		MetaDescription: metaContent(doc, "description"),
		MetaKeywords:    metaContent(doc, "keywords"),
		HeadingsByLevel: map[int][]string{},
		Links:           map[string]string{},
	}

	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		d.Title = t
	}

	for level := 1; level <= 6; level++ {
		doc.Find(fmt.Sprintf("h%d", level)).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				d.HeadingsByLevel[level] = append(d.HeadingsByLevel[level], text)
			}
		})
	}

	if main := doc.Find("main").First(); main.Length() > 0 {
		main.Find("h2, h3").Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				d.MainTopics = append(d.MainTopics, text)
			}
		})
	}

	doc.Find("nav a").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		if _, seen := d.Links[text]; seen {
			return
		}
		d.NavLinks = append(d.NavLinks, text)
		d.Links[text] = s.AttrOr("href", "")
	})

	seenAlt := map[string]bool{}
	doc.Find("img[alt]").Each(func(_ int, s *goquery.Selection) {
		alt := strings.TrimSpace(s.AttrOr("alt", ""))
		if alt == "" || seenAlt[alt] {
			return
		}
		seenAlt[alt] = true
		d.ImageAltTexts = append(d.ImageAltTexts, alt)
	})

	doc.Find("button, a").Each(func(_ int, s *goquery.Selection) {
		for _, class := range actionClasses {
			if s.HasClass(class) {
				if text := strings.TrimSpace(s.Text()); text != "" {
					d.Actions = append(d.Actions, text)
				}
				return
			}
		}
	})

	d.FullText = fullText(raw, doc)

	return d, nil
}

// fullText extracts the readable text of the page, falling back to the raw
// body text when readability finds nothing.
func fullText(raw []byte, doc *goquery.Document) string {
	article, err := readability.FromReader(bytes.NewReader(raw), &url.URL{})
	if err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return squashSpace(text)
		}
	}
	return squashSpace(doc.Find("body").Text())
}

func metaContent(doc *goquery.Document, name string) string {
	sel := fmt.Sprintf("meta[name=%q]", name)
	return strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
}

func squashSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
