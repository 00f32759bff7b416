package htmlutil

import (
	"reflect"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trim", "  happy \n", "happy"},
		{"collapse", "a\n\t  b   c", "a b c"},
		{"nbsp becomes space", "give\u00a0up", "give up"},
		{"ideographic space", "一丝\u3000不苟", "一丝 不苟"},
		{"drop zero width", "ha\u200bppy", "happy"},
		{"keep punctuation", "“a happy outcome”", "“a happy outcome”"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextHelpers(t *testing.T) {
	doc, err := Parse([]byte(`<html><body>
		<ul>
			<li> first <b>item</b> </li>
			<li>   </li>
			<li>second</li>
		</ul>
		<div class="definition"><div class="pos-icon">adjective</div> marked by good fortune</div>
	</body></html>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := Text(doc.Find("li").First()); got != "first item" {
		t.Errorf("Text() = %q, want %q", got, "first item")
	}

	if got := Texts(doc.Find("li")); !reflect.DeepEqual(got, []string{"first item", "second"}) {
		t.Errorf("Texts() = %q", got)
	}

	def := doc.Find("div.definition")
	if got := OwnText(def, ".pos-icon"); got != "marked by good fortune" {
		t.Errorf("OwnText() = %q, want %q", got, "marked by good fortune")
	}
	if got := Text(def); got != "adjective marked by good fortune" {
		t.Errorf("Text() after OwnText = %q, original selection modified", got)
	}

	if got := OwnText(doc.Find("table"), "x"); got != "" {
		t.Errorf("OwnText(empty) = %q, want empty", got)
	}
}
