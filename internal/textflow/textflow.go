// Package textflow splits text into explicit lines and whitespace-preserving
// tokens and wraps those tokens to a fixed width.
//
// Every space or tab becomes its own Space token, so a run of separators
// survives layout unchanged instead of being collapsed into a single gap.
package textflow

import "strings"

// Kind distinguishes words from separators.
type Kind int

const (
	Word Kind = iota
	Space
)

// Token is a word or a single separator.
type Token struct {
	Kind Kind
	Text string
}

// Line is one output line after wrapping.
type Line struct {
	Tokens []Token
	Width  float64
	// Last is set on the final wrapped line of a source line.
	Last bool
}

// MeasureFunc returns the rendered width of s.
type MeasureFunc func(s string) float64

// String joins the tokens of the line.
func (l Line) String() string {
	var b strings.Builder
	for _, t := range l.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Gaps counts the separators between the first and last word of the line.
func (l Line) Gaps() int {
	first, last := -1, -1
	for i, t := range l.Tokens {
		if t.Kind == Word {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	n := 0
	for i := first + 1; i < last; i++ {
		if l.Tokens[i].Kind == Space {
			n++
		}
	}
	return n
}

// Blank reports whether text has no visible characters.
func Blank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Lines splits text on CRLF, LF and CR. A single terminator at the end of
// text does not start another line.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// Tokenize splits line into words and one Space token per space or tab.
// Tabs are emitted as a single space.
func Tokenize(line string) []Token {
	var (
		toks []Token
		word strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			toks = append(toks, Token{Kind: Word, Text: word.String()})
			word.Reset()
		}
	}
	for _, r := range line {
		if r == ' ' || r == '\t' {
			flush()
			toks = append(toks, Token{Kind: Space, Text: " "})
			continue
		}
		word.WriteRune(r)
	}
	flush()
	return toks
}

// Wrap lays out text into lines no wider than width. Each source line
// starts a new output line. Separators at a wrap point are consumed by the
// break, trailing separators of a source line are kept; a word wider than
// width is split between runes.
func Wrap(text string, width float64, measure MeasureFunc) []Line {
	var out []Line
	for _, src := range Lines(text) {
		lines := wrapTokens(Tokenize(src), width, measure)
		lines[len(lines)-1].Last = true
		out = append(out, lines...)
	}
	return out
}

func wrapTokens(toks []Token, width float64, measure MeasureFunc) []Line {
	var (
		out     []Line
		cur     Line
		pending []Token // separators not yet committed to cur
		pendW   float64
	)
	hasWord := func() bool {
		for _, t := range cur.Tokens {
			if t.Kind == Word {
				return true
			}
		}
		return false
	}
	breakLine := func() {
		out = append(out, cur)
		cur = Line{}
		pending, pendW = nil, 0
	}

	for _, t := range toks {
		w := measure(t.Text)
		if t.Kind == Space {
			pending = append(pending, t)
			pendW += w
			continue
		}
		if cur.Width+pendW+w <= width || (!hasWord() && pendW == 0 && w <= width) {
			cur.Tokens = append(cur.Tokens, pending...)
			cur.Tokens = append(cur.Tokens, t)
			cur.Width += pendW + w
			pending, pendW = nil, 0
			continue
		}
		if hasWord() {
			breakLine()
		} else if len(pending) > 0 && cur.Width+pendW < width {
			// leading separators of a source line stay with the first word
			cur.Tokens = append(cur.Tokens, pending...)
			cur.Width += pendW
			pending, pendW = nil, 0
		}
		for _, piece := range splitWord(t.Text, width-cur.Width, width, measure) {
			pw := measure(piece)
			if cur.Width+pw > width && len(cur.Tokens) > 0 {
				breakLine()
			}
			cur.Tokens = append(cur.Tokens, Token{Kind: Word, Text: piece})
			cur.Width += pw
		}
	}
	// trailing separators stay on the last line as far as they fit
	for _, t := range pending {
		w := measure(t.Text)
		if cur.Width+w > width {
			break
		}
		cur.Tokens = append(cur.Tokens, t)
		cur.Width += w
	}
	out = append(out, cur)
	return out
}

// splitWord cuts word into pieces; the first fits in first, the rest in width.
func splitWord(word string, first, width float64, measure MeasureFunc) []string {
	if measure(word) <= first {
		return []string{word}
	}
	var (
		pieces []string
		cur    []rune
		limit  = first
	)
	for _, r := range word {
		next := append(cur, r)
		if measure(string(next)) > limit && len(cur) > 0 {
			pieces = append(pieces, string(cur))
			cur = []rune{r}
			limit = width
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces
}
