package narration

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ReadChunkSize ist die Länge eines Vorleseabschnitts
const ReadChunkSize = 150

// SpeechChunkSize ist die maximale Textlänge pro TTS-Anfrage
const SpeechChunkSize = 100

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	sentenceEnd   = regexp.MustCompile(`[^.!?;:,]+[.!?;:,]*`)
)

// ReadableChunks teilt Absätze in Satzgruppen von höchstens max Zeichen
// (ein einzelner langer Satz bleibt ungeteilt).
func ReadableChunks(content string, max int) []string {
	if max <= 0 {
		max = ReadChunkSize
	}
	var chunks []string

	for _, paragraph := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}

		current := ""
		for _, sentence := range sentenceSplit.Split(paragraph, -1) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}
			if utf8.RuneCountInString(current+sentence) > max {
				if current != "" {
					chunks = append(chunks, strings.TrimSpace(current))
				}
				current = sentence
				continue
			}
			if current == "" {
				current = sentence
			} else {
				current += ". " + sentence
			}
		}
		if current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
		}
	}
	return chunks
}

// SpeechChunks teilt bereinigten Text an Satzzeichen und Wortgrenzen in
// Stücke von höchstens max Zeichen
func SpeechChunks(text string, max int) []string {
	if max <= 0 {
		max = SpeechChunkSize
	}
	var chunks []string
	current := ""

	flush := func() {
		if s := strings.TrimSpace(current); s != "" {
			chunks = append(chunks, s)
		}
		current = ""
	}
	add := func(piece string) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			return
		}
		candidate := piece
		if current != "" {
			candidate = current + " " + piece
		}
		if utf8.RuneCountInString(candidate) <= max {
			current = candidate
			return
		}
		flush()
		current = piece
	}

	for _, sentence := range sentenceEnd.FindAllString(text, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(sentence)) <= max {
			add(sentence)
			continue
		}
		for _, word := range strings.Fields(sentence) {
			for utf8.RuneCountInString(word) > max {
				flush()
				r := []rune(word)
				chunks = append(chunks, string(r[:max]))
				word = string(r[max:])
			}
			add(word)
		}
	}
	flush()
	return chunks
}
