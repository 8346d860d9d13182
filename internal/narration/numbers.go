package narration

import (
	"regexp"
	"strconv"
	"strings"
)

// Indische Gruppierung: 1,50,000 oder ₹12,480 oder Rs. 4,50,000.
// Die Zahl darf nicht Teil einer längeren Ziffernfolge sein ((^|[^\d,]) davor,
// danach weder Ziffer noch ",\d"); RE2 kennt kein Lookahead, das prüft indianMatch.
var indianNumberPattern = regexp.MustCompile(`(^|[^\d,])(₹\s*|Rs\.?\s*)?(\d{1,3}(?:,\d{2})*,\d{3})`)

const (
	crore    = 10000000
	lakh     = 100000
	thousand = 1000
	hundred  = 100
)

var ones = []string{"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen"}

var tens = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}

// FormatIndianNumbers schreibt indisch gruppierte Zahlen als Wörter aus.
// Ein Währungszeichen bleibt als Präfix erhalten ("₹ one lakh fifty thousand").
func FormatIndianNumbers(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range indianNumberPattern.FindAllStringSubmatchIndex(text, -1) {
		numStart, numEnd := m[6], m[7]
		if !indianMatch(text, numEnd) {
			continue
		}
		n, err := strconv.ParseInt(strings.ReplaceAll(text[numStart:numEnd], ",", ""), 10, 64)
		if err != nil {
			continue
		}

		// Präfix (Zeichen vor der Zahl) bleibt stehen
		b.WriteString(text[last:m[3]])
		words := IndianWords(n)
		if m[4] >= 0 {
			if symbol := strings.TrimSpace(text[m[4]:m[5]]); symbol != "" {
				words = symbol + " " + words
			}
		}
		b.WriteString(words)
		last = numEnd
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// indianMatch: nach der Zahl folgt weder eine Ziffer noch ",<Ziffer>"
func indianMatch(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	if isDigit(text[end]) {
		return false
	}
	return !(text[end] == ',' && end+1 < len(text) && isDigit(text[end+1]))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// IndianWords liefert die Zahl in Wörtern nach dem indischen System (crore, lakh, thousand, hundred)
func IndianWords(n int64) string {
	if n == 0 {
		return "zero"
	}
	if n < 0 {
		return "minus " + IndianWords(-n)
	}

	var parts []string
	units := []struct {
		value int64
		name  string
	}{
		{crore, "crore"},
		{lakh, "lakh"},
		{thousand, "thousand"},
		{hundred, "hundred"},
	}
	for _, u := range units {
		if n < u.value {
			continue
		}
		count := n / u.value
		n %= u.value
		if count > 99 {
			// nur bei crore möglich
			parts = append(parts, IndianWords(count)+" "+u.name)
			continue
		}
		parts = append(parts, basicWords(count)+" "+u.name)
	}
	if n > 0 {
		parts = append(parts, basicWords(n))
	}
	return strings.Join(parts, " ")
}

// basicWords: 1-99
func basicWords(n int64) string {
	switch {
	case n <= 0:
		return ""
	case n < 20:
		return ones[n]
	case n < 100:
		if n%10 == 0 {
			return tens[n/10]
		}
		return tens[n/10] + " " + ones[n%10]
	default:
		return strconv.FormatInt(n, 10)
	}
}
