package search

import (
	"bufio"
	"io"
	"strings"
)

// MarkdownFacts splits a Markdown document into standalone facts: each prose
// paragraph becomes one fact, each table body row becomes "cell cell ...".
// Heading markers and list bullets are stripped; separator rows are dropped.
func MarkdownFacts(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		out  []string
		para []string
	)
	flush := func() {
		if len(para) > 0 {
			out = append(out, strings.Join(para, " "))
			para = para[:0]
		}
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|"):
			flush()
			if fact := tableRow(line); fact != "" {
				out = append(out, fact)
			}
		case strings.HasPrefix(line, "#"):
			// a heading is its own fact
			flush()
			if h := strings.TrimSpace(strings.TrimLeft(line, "#")); h != "" {
				out = append(out, h)
			}
		default:
			line = strings.TrimSpace(strings.TrimLeft(line, "-*+"))
			if line != "" {
				para = append(para, line)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

// tableRow flattens "| a | b |" to "a b"; separator rows yield "".
func tableRow(line string) string {
	cols := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, 0, len(cols))
	sep := true
	for _, c := range cols {
		cell := strings.TrimSpace(c)
		if cell != "" {
			cells = append(cells, cell)
		}
		if strings.Trim(cell, ":- ") != "" {
			sep = false
		}
	}
	if sep {
		return ""
	}
	return strings.Join(cells, " ")
}
