package report

import (
	"strings"
	"unicode"
)

// Wrap fills text into lines of at most width characters. Whitespace runs
// collapse to one space, lines may break after a hyphen inside a word, and
// words longer than width are split across lines.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	w := &wrapper{width: width}
	for _, word := range strings.Fields(text) {
		for i, chunk := range hyphenChunks([]rune(word)) {
			w.add(chunk, i == 0)
		}
	}
	w.flush()
	return w.lines
}

type wrapper struct {
	width int
	lines []string
	cur   []rune
}

func (w *wrapper) add(chunk []rune, startsWord bool) {
	space := startsWord && len(w.cur) > 0
	need := len(chunk)
	if space {
		need++
	}
	if len(w.cur)+need <= w.width {
		w.put(chunk, space)
		return
	}
	if len(chunk) <= w.width {
		w.flush()
		w.put(chunk, false)
		return
	}
	// oversized chunk: fill the current line first, then whole-width pieces
	if space {
		if len(w.cur)+1 < w.width {
			w.cur = append(w.cur, ' ')
		} else {
			w.flush()
		}
	}
	for len(chunk) > 0 {
		room := w.width - len(w.cur)
		if room <= 0 {
			w.flush()
			room = w.width
		}
		if room > len(chunk) {
			room = len(chunk)
		}
		w.cur = append(w.cur, chunk[:room]...)
		chunk = chunk[room:]
	}
}

func (w *wrapper) put(chunk []rune, space bool) {
	if space {
		w.cur = append(w.cur, ' ')
	}
	w.cur = append(w.cur, chunk...)
}

func (w *wrapper) flush() {
	if len(w.cur) == 0 {
		return
	}
	w.lines = append(w.lines, string(w.cur))
	w.cur = nil
}

// hyphenChunks splits a word after each hyphen that sits between a letter or
// digit and a letter, so "state-of-the-art" yields "state-", "of-", "the-", "art".
func hyphenChunks(word []rune) [][]rune {
	var out [][]rune
	start := 0
	for i := 1; i < len(word)-1; i++ {
		if word[i] != '-' {
			continue
		}
		prev, next := word[i-1], word[i+1]
		if (unicode.IsLetter(prev) || unicode.IsDigit(prev)) && unicode.IsLetter(next) {
			out = append(out, word[start:i+1])
			start = i + 1
		}
	}
	return append(out, word[start:])
}
