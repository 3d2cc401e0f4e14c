package search

import (
	"errors"
	"strings"
	"testing"
)

// ---------- tiny io.Reader that always errors ----------
type boomReader struct{}

func (boomReader) Read(_ []byte) (int, error) { return 0, errors.New("boom") }

// ---------- Options ----------
func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.minRunes != 12 || def.stopwords != nil || def.maxPassages != 0 || def.fold == nil {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}

	cfg := def
	WithMinRunes(3)(&cfg)
	WithMinRunes(-1)(&cfg) // no-op
	if cfg.minRunes != 3 {
		t.Fatalf("WithMinRunes: %d", cfg.minRunes)
	}
	WithMaxPassages(2)(&cfg)
	WithMaxPassages(0)(&cfg) // no-op
	if cfg.maxPassages != 2 {
		t.Fatalf("WithMaxPassages: %d", cfg.maxPassages)
	}
	WithStopwords([]string{" ve ", ""})(&cfg)
	if _, ok := cfg.stopwords["ve"]; !ok {
		t.Fatalf("WithStopwords: %#v", cfg.stopwords)
	}
	cfg2 := def
	WithStopwords(nil)(&cfg2)
	if cfg2.stopwords != nil {
		t.Fatal("empty stopwords must stay nil")
	}
	WithFold(nil)(&cfg2)
	if cfg2.fold == nil {
		t.Fatal("nil fold must be ignored")
	}
}

// ---------- TopK ----------
func TestTopK_RanksByJaccard(t *testing.T) {
	idx := New([]string{
		"Kakao çekirdeklerimiz Gana ve Ekvador'dan gelir.",
		"Tüm siparişler 1-3 iş günü içinde kargoya verilir.",
		"Kısa",
	})
	if idx.Len() != 2 {
		t.Fatalf("short passages must be dropped, Len=%d", idx.Len())
	}
	hits := idx.TopK("kakao çekirdeklerimiz nereden gelir", 5)
	if len(hits) != 1 || !strings.HasPrefix(hits[0].Text, "Kakao") {
		t.Fatalf("hits = %#v", hits)
	}
	if hits[0].Score <= 0 || hits[0].Score > 1 {
		t.Fatalf("score out of range: %v", hits[0].Score)
	}
	if idx.TopK("   ", 1) != nil || idx.TopK("zzz", 1) != nil {
		t.Fatal("blank or unmatched query yields nil")
	}
}

func TestTopK_FoldAndStopwords(t *testing.T) {
	fold := func(s string) string { return strings.NewReplacer("ç", "c", "Ç", "c").Replace(strings.ToLower(s)) }
	idx := New([]string{"Çikolata atölyemiz İstanbul'da.", "ve ve ve ve ve ve ve ve"},
		WithFold(fold), WithStopwords([]string{"ve"}), WithMinRunes(0))
	if idx.Len() != 1 {
		t.Fatalf("stopword-only passage must be dropped, Len=%d", idx.Len())
	}
	if hits := idx.TopK("CIKOLATA", 1); len(hits) != 1 {
		t.Fatal("folded query must match folded passage")
	}
}

func TestTopK_TiesPreferShorter(t *testing.T) {
	idx := New([]string{"bitter tablet uzun uzun anlatım", "bitter tablet kısa"}, WithMinRunes(0))
	hits := idx.TopK("bitter", 0)
	if len(hits) != 2 {
		t.Fatalf("hits = %#v", hits)
	}
	if hits[0].Score == hits[1].Score && len(hits[0].Text) > len(hits[1].Text) {
		t.Fatalf("tie must prefer the shorter passage: %#v", hits)
	}
}

func TestNew_MaxPassages(t *testing.T) {
	idx := New([]string{"bir iki üç dört", "beş altı yedi sekiz", "dokuz on on bir"}, WithMinRunes(0), WithMaxPassages(2))
	if idx.Len() != 2 {
		t.Fatalf("Len = %d", idx.Len())
	}
}

func TestFromReader(t *testing.T) {
	idx, err := FromReader(strings.NewReader("Birinci paragraf burada yazıyor.\n\n\nİkinci paragraf da burada."))
	if err != nil || idx.Len() != 2 {
		t.Fatalf("FromReader: %v len=%d", err, idx.Len())
	}
	idx, err = FromReader(boomReader{})
	if err == nil || idx == nil || idx.Len() != 0 {
		t.Fatal("reader error must surface with an empty index")
	}
}

func TestRetriever_Best(t *testing.T) {
	r := Retriever{Index: New([]string{"Markamız 1923'te İzmir'de kuruldu."})}
	p, score, ok := r.Best("markamız ne zaman kuruldu")
	if !ok || score <= 0 || !strings.Contains(p, "1923") {
		t.Fatalf("Best = %q %v %v", p, score, ok)
	}
	if _, _, ok := r.Best("alakasız"); ok {
		t.Fatal("no hit")
	}
	if _, _, ok := (Retriever{}).Best("x"); ok {
		t.Fatal("nil index")
	}
}
