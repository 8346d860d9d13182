// Package subjects bildet jedes Fach auf Sprache und Stimme ab.
// Prompt-Erstellung und Sprachausgabe lesen dieselbe Tabelle.
package subjects

import "strings"

// Profile beschreibt ein Fach
type Profile struct {
	Name         string `json:"name"`
	Language     string `json:"language"`
	LanguageName string `json:"language_name"`
	VoiceLang    string `json:"voice_lang"`
	VoiceTLD     string `json:"voice_tld"`
	// Structured: Antworten mit nummerierten Rechenschritten
	Structured bool `json:"structured"`
}

// Native ist true, wenn das Fach in einer anderen Sprache als Englisch unterrichtet wird
func (p Profile) Native() bool {
	return p.Language != "en"
}

var table = []Profile{
	{Name: "English", Language: "en", LanguageName: "English", VoiceLang: "en", VoiceTLD: "co.in"},
	{Name: "Maths", Language: "en", LanguageName: "English", VoiceLang: "en", VoiceTLD: "co.in", Structured: true},
	{Name: "Science", Language: "en", LanguageName: "English", VoiceLang: "en", VoiceTLD: "co.in"},
	{Name: "Social", Language: "en", LanguageName: "English", VoiceLang: "en", VoiceTLD: "co.in"},
	{Name: "IT-Computers", Language: "en", LanguageName: "English", VoiceLang: "en", VoiceTLD: "co.in"},
	{Name: "GK", Language: "en", LanguageName: "English", VoiceLang: "en", VoiceTLD: "co.in"},
	{Name: "Value Education", Language: "en", LanguageName: "English", VoiceLang: "en", VoiceTLD: "co.in"},
	{Name: "Hindi", Language: "hi", LanguageName: "Hindi", VoiceLang: "hi", VoiceTLD: "co.in"},
	{Name: "Telugu", Language: "te", LanguageName: "Telugu", VoiceLang: "te", VoiceTLD: "co.in"},
}

var aliases = map[string]string{
	"math":        "Maths",
	"mathematics": "Maths",
	"computers":   "IT-Computers",
	"it":          "IT-Computers",
	"evs":         "Science",
}

// All listet die Fächer in Anzeigereihenfolge
func All() []Profile {
	out := make([]Profile, len(table))
	copy(out, table)
	return out
}

// Known prüft, ob ein Fach (oder Alias) in der Tabelle steht
func Known(name string) bool {
	_, ok := find(name)
	return ok
}

// Lookup liefert das Profil; unbekannte Fächer bekommen das englische Profil unter eigenem Namen
func Lookup(name string) Profile {
	if p, ok := find(name); ok {
		return p
	}
	p := table[0]
	if n := strings.TrimSpace(name); n != "" {
		p.Name = n
	}
	return p
}

// Canonical normalisiert Schreibweise und Aliase
func Canonical(name string) string {
	if p, ok := find(name); ok {
		return p.Name
	}
	return strings.TrimSpace(name)
}

func find(name string) (Profile, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = strings.ToLower(alias)
	}
	for _, p := range table {
		if strings.ToLower(p.Name) == key {
			return p, true
		}
	}
	return Profile{}, false
}
