// Package vocabulary extracts word blurbs and definitions from
// vocabulary.com.
package vocabulary

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sternrassler/dict-crawler/internal/htmlutil"
	"github.com/Sternrassler/dict-crawler/internal/sites"
	"github.com/Sternrassler/dict-crawler/pkg/fetch"
	"github.com/Sternrassler/dict-crawler/pkg/harvest"
)

// Name is the adapter's registry name.
const Name = "vocabulary"

// DefaultBaseURL is the dictionary root an entry is appended to.
const DefaultBaseURL = "https://www.vocabulary.com/dictionary/"

// Info describes this adapter.
var Info = sites.Info{
	Name:        Name,
	BaseURL:     DefaultBaseURL,
	Description: "vocabulary.com: short and long blurbs, definitions with examples and synonyms",
}

const (
	wordAreaSel    = "div.word-area"
	shortSel       = "p.short"
	longSel        = "p.long"
	definitionsSel = "div.word-definitions"
	senseSel       = "li"
	definitionSel  = "div.definition"
	posSel         = ".pos-icon"
	exampleSel     = "div.example"
	synonymSel     = "a.word"
)

// Word is one vocabulary.com entry.
type Word struct {
	Word        string       `json:"word"`
	Short       string       `json:"short,omitempty"`
	Long        string       `json:"long,omitempty"`
	Definitions []Definition `json:"definitions"`
}

// Definition is one sense.
type Definition struct {
	PartOfSpeech string   `json:"part_of_speech,omitempty"`
	Definition   string   `json:"definition"`
	Examples     []string `json:"examples,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
}

// Adapter fetches and parses vocabulary.com pages.
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
func (a *Adapter) FetchAndParse(ctx context.Context, entry string) (Word, error) {
	target, err := fetch.Target(a.baseURL, entry)
	if err != nil {
		return Word{}, err
	}
	body, err := a.client.Get(ctx, target)
	if err != nil {
		return Word{}, harvest.WithEntry(err, entry)
	}
	return Parse(entry, body)
}

// Parse extracts a Word from a page body. Either the word area or at least
// one definition must be present.
func Parse(word string, body []byte) (Word, error) {
	doc, err := htmlutil.Parse(body)
	if err != nil {
		return Word{}, harvest.ParseError(word, "parse html: "+err.Error())
	}

	w := Word{Word: word}

	area := doc.Find(wordAreaSel).First()
	w.Short = htmlutil.Text(area.Find(shortSel).First())
	w.Long = htmlutil.Text(area.Find(longSel).First())

	doc.Find(definitionsSel).First().Find(senseSel).Each(func(_ int, li *goquery.Selection) {
		if def, ok := parseSense(li); ok {
			w.Definitions = append(w.Definitions, def)
		}
	})

	if w.Short == "" && w.Long == "" && len(w.Definitions) == 0 {
		return Word{}, harvest.ParseError(word, "neither word area nor definitions found")
	}
	if w.Definitions == nil {
		w.Definitions = []Definition{}
	}
	return w, nil
}

// parseSense reads one li. The first div.definition is the sense itself;
// later ones belong to synonym instances.
func parseSense(li *goquery.Selection) (Definition, bool) {
	defSel := li.Find(definitionSel).First()
	text := htmlutil.OwnText(defSel, posSel)
	if text == "" {
		return Definition{}, false
	}
	return Definition{
		PartOfSpeech: htmlutil.Text(defSel.Find(posSel).First()),
		Definition:   text,
		Examples:     htmlutil.Texts(li.Find(exampleSel)),
		Synonyms:     htmlutil.Texts(li.Find(synonymSel)),
	}, true
}
