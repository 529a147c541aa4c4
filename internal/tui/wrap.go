package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/wfdrill/internal/grading"
)

type styledToken struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledWords styles each word of answer by whether the reference still
// has an unmatched occurrence of it.
func buildStyledWords(reference, answer string) []styledToken {
	remaining := grading.Count(reference)
	words := strings.Fields(answer)
	out := make([]styledToken, 0, len(words)*2)
	for i, word := range words {
		if i > 0 {
			out = append(out, styledToken{s: " ", width: 1, isSpace: true})
		}
		style := incorrectStyle
		for key := range grading.Count(word) {
			if remaining[key] > 0 {
				remaining[key]--
				style = correctStyle
			}
		}
		out = append(out, styledToken{
			s:     style.Render(word),
			width: runewidth.StringWidth(word),
		})
	}
	return out
}

func renderStyledTokens(tokens []styledToken) string {
	var b strings.Builder
	for _, item := range tokens {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledTokens(tokens []styledToken, width int) string {
	if width <= 0 {
		return renderStyledTokens(tokens)
	}
	var out strings.Builder
	line := make([]styledToken, 0, len(tokens))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(tokens); {
		item := tokens[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledTokens(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledToken{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledTokens(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledTokens(line))
	return out.String()
}

func lineWidthOf(line []styledToken) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledToken) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
