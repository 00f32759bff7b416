package handian

import (
	"context"
	"testing"

	"github.com/Sternrassler/dict-crawler/internal/testutil"
	"github.com/Sternrassler/dict-crawler/pkg/fetch"
	"github.com/Sternrassler/dict-crawler/pkg/harvest"
)

const yuGaiPage = `<html><body>
<div class="entry_title"><span class="dicpy">yù gài mí zhāng</span> <span class="ptr"></span></div>
<div class="content definitions cnr">
  <h3>欲盖弥彰</h3>
  <p>【解释】盖：遮掩；弥：更加；彰：明显。想掩盖坏事的真相，结果反而更明显地暴露出来。</p>
  <p>【出处】《左传·昭公三十一年》：“或求名而不得，或欲盖而名章，惩不义也。”</p>
  <p>【示例】与其～，倒不如自己先认了。 ◎闻一多《画展》</p>
  <p>【近义词】<a href="/hans/此地无银三百两">此地无银三百两</a></p>
  <p>【反义词】相得益彰</p>
  <p>【语法】紧缩式；作谓语、宾语、定语；含贬义</p>
  <div class="div copyright"> © 汉典 </div>
</div>
</body></html>`

func TestParse(t *testing.T) {
	got, err := Parse("欲盖弥彰", []byte(yuGaiPage))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := Idiom{
		Entry:   "欲盖弥彰",
		Pinyin:  "yù gài mí zhāng",
		Meaning: "盖：遮掩；弥：更加；彰：明显。想掩盖坏事的真相，结果反而更明显地暴露出来。",
		Source:  "《左传·昭公三十一年》：“或求名而不得，或欲盖而名章，惩不义也。”",
		Example: "与其～，倒不如自己先认了。 ◎闻一多《画展》",
		Synonym: "此地无银三百两",
		Antonym: "相得益彰",
		Grammar: "紧缩式；作谓语、宾语、定语；含贬义",
	}
	if got != want {
		t.Errorf("Parse() = %+v\nwant %+v", got, want)
	}
}

func TestParse_OptionalFieldsAbsent(t *testing.T) {
	page := `<span class="dicpy">huǒ zhōng qǔ lì</span>
<div class="content definitions cnr"><p>【解释】偷取炉中烤熟的栗子。</p><p>无标记的行</p></div>`

	got, err := Parse("火中取栗", []byte(page))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Meaning != "偷取炉中烤熟的栗子。" {
		t.Errorf("Meaning = %q", got.Meaning)
	}
	if got.Source != "" || got.Example != "" || got.Synonym != "" || got.Antonym != "" {
		t.Errorf("unexpected optional fields: %+v", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"missing pinyin", `<div class="content definitions cnr"><p>【解释】x</p></div>`},
		{"empty pinyin", `<span class="dicpy"> </span><div class="content definitions cnr"></div>`},
		{"missing block", `<span class="dicpy">yī sī bù gǒu</span>`},
		{"partial class", `<span class="dicpy">yī</span><div class="content definitions"><p>【解释】x</p></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("一丝不苟", []byte(tt.page))
			if harvest.KindOf(err) != harvest.KindStructuralParse {
				t.Errorf("KindOf() = %q, want %q", harvest.KindOf(err), harvest.KindStructuralParse)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"欲盖弥彰":      "欲盖弥彰",
		"总而言之，":     "总而言之",
		"一言为定，驷马难追": "一言为定驷马难追",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAdapter_FetchAndParse(t *testing.T) {
	site := testutil.NewMockSite()
	defer site.Close()
	site.SetPage("/hans/欲盖弥彰", yuGaiPage)

	client, err := fetch.New(fetch.DefaultConfig())
	if err != nil {
		t.Fatalf("fetch.New() error = %v", err)
	}
	a := New(client, site.BaseURL("hans"))

	// The entry keeps its comma; the request does not.
	got, err := a.FetchAndParse(context.Background(), "欲盖，弥彰")
	if err != nil {
		t.Fatalf("FetchAndParse() error = %v", err)
	}
	if got.Entry != "欲盖，弥彰" {
		t.Errorf("Entry = %q, want %q", got.Entry, "欲盖，弥彰")
	}
	if got.Pinyin != "yù gài mí zhāng" {
		t.Errorf("Pinyin = %q", got.Pinyin)
	}
	if n := site.PathCount("/hans/欲盖弥彰"); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}

	if err := a.Validate("，"); harvest.KindOf(err) != harvest.KindIdentifierEncoding {
		t.Errorf("Validate(comma only) kind = %q, want %q", harvest.KindOf(err), harvest.KindIdentifierEncoding)
	}
}
