// Package narration bereitet Text für die Sprachausgabe auf und erzeugt Audiodateien.
package narration

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emphasisPattern   = regexp.MustCompile(`\*+`)
	headerPattern     = regexp.MustCompile(`#+\s*`)
	underlinePattern  = regexp.MustCompile(`_+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Zeichen, die falsch ausgesprochen werden
var mispronounced = strings.NewReplacer("'", "", "`", "", "’", "", "‘", "", "´", "",
	"\uFE0F", "", "\uFE0E", "", "\u20E3", "")

const keptPunctuation = `.,!?;:()-"`

// CleanForSpeech entfernt Markdown, Emojis und Apostrophe und schreibt
// indische Zahlen aus. Das Ergebnis ist einzeilig.
func CleanForSpeech(text string) string {
	text = FormatIndianNumbers(text)
	text = strings.ReplaceAll(text, "₹", " rupees ")

	text = emphasisPattern.ReplaceAllString(text, "")
	text = headerPattern.ReplaceAllString(text, "")
	text = underlinePattern.ReplaceAllString(text, "")
	text = mispronounced.Replace(text)

	text = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsNumber(r), unicode.IsSpace(r):
			return r
		case strings.ContainsRune(keptPunctuation, r):
			return r
		default:
			return ' '
		}
	}, text)

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
