package search

import (
	"reflect"
	"strings"
	"testing"
)

func TestMarkdownFacts(t *testing.T) {
	md := `# Hikayemiz

1923'te İzmir'de küçük bir
atölyede başladık.

| Ürün | Kakao |
|:-----|------:|
| Bitter | %85 |

- Elle paketlenir
`
	got, err := MarkdownFacts(strings.NewReader(md))
	if err != nil {
		t.Fatalf("MarkdownFacts: %v", err)
	}
	want := []string{
		"Hikayemiz",
		"1923'te İzmir'de küçük bir atölyede başladık.",
		"Ürün Kakao",
		"Bitter %85",
		"Elle paketlenir",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("facts:\n%#v\nwant:\n%#v", got, want)
	}
}

func TestMarkdownFacts_ReaderError(t *testing.T) {
	if _, err := MarkdownFacts(boomReader{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTableRow(t *testing.T) {
	if tableRow("| --- | :-: |") != "" {
		t.Fatal("separator row")
	}
	if tableRow("|  | x |") != "x" {
		t.Fatal("empty cells are skipped")
	}
}
