// Package webster extracts definitions and related phrases from
// Merriam-Webster dictionary pages.
package webster

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sternrassler/dict-crawler/internal/htmlutil"
	"github.com/Sternrassler/dict-crawler/internal/sites"
	"github.com/Sternrassler/dict-crawler/pkg/fetch"
	"github.com/Sternrassler/dict-crawler/pkg/harvest"
)

// Name is the adapter's registry name.
const Name = "webster"

// DefaultBaseURL is the dictionary root an entry is appended to.
const DefaultBaseURL = "https://www.merriam-webster.com/dictionary/"

// Info describes this adapter.
var Info = sites.Info{
	Name:        Name,
	BaseURL:     DefaultBaseURL,
	Description: "Merriam-Webster: definitions with usage examples, related phrases",
}

const (
	definitionsSel = "div.vg"
	senseSel       = "div.vg-sseq-entry-item"
	meaningSel     = "span.dtText"
	exampleSel     = "span.sub-content-thread"
	phrasesSel     = "div.related-phrases-list-container-xs"
)

// Entry is one dictionary word.
type Entry struct {
	Word        string       `json:"word"`
	Definitions []Definition `json:"definitions"`
	Phrases     []string     `json:"phrases,omitempty"`
}

// Definition is one sense with its examples.
type Definition struct {
	Definition string   `json:"definition"`
	Examples   []string `json:"examples,omitempty"`
}

// Adapter fetches and parses Merriam-Webster pages.
type Adapter struct {
	client  sites.Fetcher
	baseURL string
}

// New creates an adapter. An empty baseURL uses DefaultBaseURL.
func New(client sites.Fetcher, baseURL string) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Adapter{client: client, baseURL: baseURL}
}

// Validate rejects entries that cannot become a request target.
func (a *Adapter) Validate(entry string) error {
	_, err := fetch.Target(a.baseURL, entry)
	return err
}

// FetchAndParse implements harvest.Adapter.
func (a *Adapter) FetchAndParse(ctx context.Context, entry string) (Entry, error) {
	target, err := fetch.Target(a.baseURL, entry)
	if err != nil {
		return Entry{}, err
	}
	body, err := a.client.Get(ctx, target)
	if err != nil {
		return Entry{}, harvest.WithEntry(err, entry)
	}
	return Parse(entry, body)
}

// Parse extracts an Entry from a page body. A page without any definition
// is a structural_parse error.
func Parse(word string, body []byte) (Entry, error) {
	doc, err := htmlutil.Parse(body)
	if err != nil {
		return Entry{}, harvest.ParseError(word, "parse html: "+err.Error())
	}

	e := Entry{
		Word:        word,
		Definitions: parseDefinitions(doc),
		Phrases:     parsePhrases(doc),
	}
	if len(e.Definitions) == 0 {
		return Entry{}, harvest.ParseError(word, "definitions block ("+definitionsSel+") not found")
	}
	return e, nil
}

func parseDefinitions(doc *goquery.Document) []Definition {
	var defs []Definition
	doc.Find(definitionsSel).Find(senseSel).Each(func(_ int, item *goquery.Selection) {
		var parts []string
		for _, t := range htmlutil.Texts(item.Find(meaningSel)) {
			if t = strings.TrimSpace(strings.TrimLeft(t, ": ")); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) == 0 {
			return
		}
		meaning := strings.Join(parts, "; ")
		defs = append(defs, Definition{
			Definition: meaning,
			Examples:   htmlutil.Texts(item.Find(exampleSel)),
		})
	})
	return defs
}

func parsePhrases(doc *goquery.Document) []string {
	return htmlutil.Texts(doc.Find(phrasesSel).First().Find("a"))
}
