// Package htmlutil holds the goquery text helpers shared by site adapters.
package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Parse builds a document from a response body.
func Parse(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// GetText concatenates every text node below node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// Clean maps all Unicode whitespace to a single space, drops other
// non-printable runes and trims the result.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch {
		case unicode.IsSpace(c):
			b.WriteRune(' ')
		case unicode.IsPrint(c):
			b.WriteRune(c)
		}
	}
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(b.String(), " "))
}

// Text returns the cleaned text of all nodes in sel.
func Text(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
	}
	return Clean(buffer.String())
}

// Texts returns the cleaned text of each node in sel, skipping empty ones.
func Texts(sel *goquery.Selection) []string {
	var out []string
	for _, n := range sel.Nodes {
		if t := Clean(GetText(n)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// OwnText returns the cleaned text of the first node in sel, excluding text
// inside any child element matching skip.
func OwnText(sel *goquery.Selection, skip string) string {
	if sel.Length() == 0 {
		return ""
	}
	clone := sel.First().Clone()
	clone.Find(skip).Remove()
	return Text(clone)
}
