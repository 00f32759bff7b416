// Package handian extracts idiom (chengyu) entries from zdic.net (汉典).
package handian

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
const Name = "handian"

// DefaultBaseURL is the idiom lookup root.
const DefaultBaseURL = "https://www.zdic.net/hans/"

// Info describes this adapter.
var Info = sites.Info{
	Name:        Name,
	BaseURL:     DefaultBaseURL,
	Description: "zdic.net (汉典): idiom pinyin, meaning, source, example, synonyms, antonyms",
}

const (
	pinyinSel      = "span.dicpy"
	definitionsSel = "div.content.definitions.cnr"
)

// Line markers inside the definitions block.
const (
	markerMeaning = "【解释】"
	markerSource  = "【出处】"
	markerExample = "【示例】"
	markerSynonym = "【近义词】"
	markerAntonym = "【反义词】"
	markerGrammar = "【语法】"
)

// Idiom is one chengyu entry.
type Idiom struct {
	Entry   string `json:"entry"`
	Pinyin  string `json:"pinyin"`
	Meaning string `json:"meaning,omitempty"`
	Source  string `json:"source,omitempty"`
	Example string `json:"example,omitempty"`
	Synonym string `json:"synonym,omitempty"`
	Antonym string `json:"antonym,omitempty"`
	Grammar string `json:"grammar,omitempty"`
}

// Adapter fetches and parses zdic.net idiom pages.
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

// Normalize strips the full-width commas input lists often carry; the site
// looks idioms up without them.
func Normalize(entry string) string {
	return strings.ReplaceAll(entry, "，", "")
}

// Validate rejects entries that cannot become a request target.
func (a *Adapter) Validate(entry string) error {
	_, err := fetch.Target(a.baseURL, Normalize(entry))
	return err
}

// FetchAndParse implements harvest.Adapter. The record keeps the entry as given.
func (a *Adapter) FetchAndParse(ctx context.Context, entry string) (Idiom, error) {
	target, err := fetch.Target(a.baseURL, Normalize(entry))
	if err != nil {
		return Idiom{}, err
	}
	body, err := a.client.Get(ctx, target)
	if err != nil {
		return Idiom{}, harvest.WithEntry(err, entry)
	}
	return Parse(entry, body)
}

// Parse extracts an Idiom from a page body. Pinyin and the definitions block
// are required.
func Parse(entry string, body []byte) (Idiom, error) {
	doc, err := htmlutil.Parse(body)
	if err != nil {
		return Idiom{}, harvest.ParseError(entry, "parse html: "+err.Error())
	}

	pinyin := htmlutil.Text(doc.Find(pinyinSel).First())
	if pinyin == "" {
		return Idiom{}, harvest.ParseError(entry, "pinyin item ("+pinyinSel+") not found")
	}

	block := doc.Find(definitionsSel).First()
	if block.Length() == 0 {
		return Idiom{}, harvest.ParseError(entry, "definitions block ("+definitionsSel+") not found")
	}

	idiom := Idiom{Entry: entry, Pinyin: pinyin}
	block.Find("p").Each(func(_ int, p *goquery.Selection) {
		idiom.apply(htmlutil.Text(p))
	})
	return idiom, nil
}

// apply stores line under the field its marker names. Unmarked lines are ignored.
func (i *Idiom) apply(line string) {
	fields := []struct {
		marker string
		dst    *string
	}{
		{markerMeaning, &i.Meaning},
		{markerSource, &i.Source},
		{markerExample, &i.Example},
		{markerSynonym, &i.Synonym},
		{markerAntonym, &i.Antonym},
		{markerGrammar, &i.Grammar},
	}
	for _, f := range fields {
		if _, rest, ok := strings.Cut(line, f.marker); ok {
			*f.dst = strings.TrimSpace(rest)
			return
		}
	}
}
