// Package fallback liefert vorbereitete Texte, wenn das Sprachmodell ausfällt.
// Alle Aufrufer (Hinweise, Bewertung, Antworten) nutzen denselben Resolver.
package fallback

import (
	"fmt"
	"regexp"
	"strings"

	"tutionbuddy/internal/subjects"
)

// Bucket gruppiert Fragen nach Schlüsselwörtern
type Bucket string

const (
	BucketArithmetic Bucket = "arithmetic"
	BucketReading    Bucket = "reading"
	BucketScience    Bucket = "science"
	BucketGeneral    Bucket = "general"
)

var bucketKeywords = []struct {
	bucket   Bucket
	keywords []string
}{
	{BucketArithmetic, []string{"add ", "subtract", "multiply", "divide", "sum of", "fraction", "how many", "total", "calculate", "+", "×", "÷"}},
	{BucketReading, []string{"story", "poem", "meaning", "word", "sentence", "character", "author", "read", "paragraph", "grammar"}},
	{BucketScience, []string{"plant", "animal", "water", "energy", "body", "experiment", "why does", "earth", "air", "light"}},
}

// Classify ordnet eine Frage einem Bucket zu
func Classify(question string) Bucket {
	q := strings.ToLower(question)
	if arithmeticPattern.MatchString(q) {
		return BucketArithmetic
	}
	for _, entry := range bucketKeywords {
		for _, k := range entry.keywords {
			if strings.Contains(q, k) {
				return entry.bucket
			}
		}
	}
	return BucketGeneral
}

var arithmeticPattern = regexp.MustCompile(`\d\s*[-+x×÷*/]\s*\d`)

type key struct {
	language string
	bucket   Bucket
}

// Resolver wählt Ersatztexte nach (Sprache des Fachs, Bucket)
type Resolver struct {
	hints       map[key][5]string
	evaluations map[string]string
	answers     map[key]string
}

// NewResolver erstellt den Resolver mit den eingebauten Texten
func NewResolver() *Resolver {
	return &Resolver{
		hints:       hintTexts,
		evaluations: evaluationTexts,
		answers:     answerTexts,
	}
}

// Hint liefert einen Ersatzhinweis passend zu Fach, Stufe und Frage
func (r *Resolver) Hint(subject string, level int, question string) string {
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}
	lang := subjects.Lookup(subject).Language
	bucket := Classify(question)

	if texts, ok := r.hints[key{lang, bucket}]; ok {
		return texts[level-1]
	}
	if texts, ok := r.hints[key{lang, BucketGeneral}]; ok {
		return texts[level-1]
	}
	return r.hints[key{"en", BucketGeneral}][level-1]
}

// Evaluation liefert die ermutigende Rückmeldung ohne Urteil
func (r *Resolver) Evaluation(subject string) string {
	if text, ok := r.evaluations[subjects.Lookup(subject).Language]; ok {
		return text
	}
	return r.evaluations["en"]
}

// Answer liefert eine Ersatzantwort für die Frage-Antwort-Funktion
func (r *Resolver) Answer(subject, question string) string {
	p := subjects.Lookup(subject)
	text, ok := r.answers[key{p.Language, Classify(question)}]
	if !ok {
		text, ok = r.answers[key{p.Language, BucketGeneral}]
	}
	if !ok {
		text = r.answers[key{"en", BucketGeneral}]
	}
	if strings.Contains(text, "%s") {
		text = fmt.Sprintf(text, p.Name)
	}
	return text
}

var hintTexts = map[key][5]string{
	{"en", BucketGeneral}: {
		"Think about what this question is really asking. What key information do you see?",
		"Look back at your lesson. Which idea from the chapter matches this question?",
		"Try it in steps. Step 1: find the important words. Step 2: decide what they tell you. Step 3: write your answer.",
		"Start with the first step: underline the key words in the question and write what each one means.",
		"Let's go through it together. Read the question slowly, find the key facts, connect them to what you learned, and then write the answer in your own words.",
	},
	{"en", BucketArithmetic}: {
		"What numbers do you see in the question? What is the question asking you to find?",
		"Is this an adding, subtracting, multiplying or dividing problem? Look for clue words like 'total' or 'left'.",
		"Step 1: write down the numbers. Step 2: choose the operation. Step 3: work it out and check your answer.",
		"Begin by writing the numbers one below the other, lining up the ones and tens. Now try the first column.",
		"Write the numbers, pick the operation from the clue words, solve one column at a time from the right, and check by doing the opposite operation.",
	},
	{"en", BucketReading}: {
		"Read the question again. Which part of the story or text is it talking about?",
		"Look for the sentence in the text that talks about this. The answer is often close to the key words.",
		"Step 1: find the key words. Step 2: find them in the text. Step 3: read the sentences around them.",
		"Find the key word in the text first. Read the sentence before it and the sentence after it.",
		"Find the key word, read the sentences around it, think about what they mean, and then answer in a full sentence.",
	},
	{"en", BucketScience}: {
		"What do you already know about this from everyday life?",
		"Think about the science idea from your chapter that explains this.",
		"Step 1: name the thing being asked about. Step 2: recall what it needs or does. Step 3: explain the reason.",
		"Start by naming what the question is about and one thing you learned about it in class.",
		"Name the thing, recall what your lesson said about it, explain how it works step by step, and give one example.",
	},
	{"hi", BucketGeneral}: {
		"सोचो, यह प्रश्न असल में क्या पूछ रहा है? इसमें कौन सी मुख्य जानकारी है?",
		"अपना पाठ फिर से देखो। पाठ का कौन सा विचार इस प्रश्न से मेल खाता है?",
		"कदम 1: मुख्य शब्द ढूँढो। कदम 2: उनका अर्थ समझो। कदम 3: अपना उत्तर लिखो।",
		"पहले प्रश्न के मुख्य शब्दों को रेखांकित करो और हर शब्द का अर्थ लिखो।",
		"प्रश्न धीरे से पढ़ो, मुख्य बातें ढूँढो, उन्हें पाठ से जोड़ो और फिर अपने शब्दों में उत्तर लिखो।",
	},
	{"te", BucketGeneral}: {
		"ఈ ప్రశ్న నిజంగా ఏమి అడుగుతోందో ఆలోచించు. ముఖ్యమైన సమాచారం ఏమిటి?",
		"నీ పాఠాన్ని మళ్ళీ చూడు. పాఠంలోని ఏ ఆలోచన ఈ ప్రశ్నకు సరిపోతుంది?",
		"దశ 1: ముఖ్య పదాలను కనుగొను. దశ 2: వాటి అర్థం తెలుసుకో. దశ 3: నీ సమాధానం రాయి.",
		"మొదట ప్రశ్నలోని ముఖ్య పదాల కింద గీత గీసి, ప్రతి పదం అర్థం రాయి.",
		"ప్రశ్నను నెమ్మదిగా చదువు, ముఖ్య విషయాలు కనుగొను, వాటిని పాఠంతో కలుపు, తర్వాత నీ మాటల్లో సమాధానం రాయి.",
	},
}

var evaluationTexts = map[string]string{
	"en": "I'm having trouble checking your answer right now. Great job on attempting the question! Keep going.",
	"hi": "अभी मैं तुम्हारा उत्तर जाँच नहीं पा रहा हूँ। प्रश्न हल करने की कोशिश के लिए शाबाश! आगे बढ़ते रहो।",
	"te": "ఇప్పుడు నీ సమాధానాన్ని తనిఖీ చేయలేకపోతున్నాను. ప్రయత్నించినందుకు శభాష్! ముందుకు సాగు.",
}

var answerTexts = map[key]string{
	{"en", BucketGeneral}:    "I couldn't reach my thinking helper just now. Try reading the %s lesson pages again, and ask me once more in a moment!",
	{"en", BucketArithmetic}: "I couldn't work this out right now. Write down the numbers, decide whether to add, subtract, multiply or divide, and try it step by step. Ask me again in a moment!",
	{"en", BucketReading}:    "I couldn't answer right now. Look for the key words from your question in the lesson text and read the sentences around them. Ask me again in a moment!",
	{"en", BucketScience}:    "I couldn't answer right now. Look at the pictures and bold words in your science lesson, they usually hold the answer. Ask me again in a moment!",
	{"hi", BucketGeneral}:    "अभी मैं उत्तर नहीं दे पा रहा हूँ। अपना पाठ फिर से पढ़ो और थोड़ी देर बाद फिर पूछो!",
	{"te", BucketGeneral}:    "ఇప్పుడు సమాధానం ఇవ్వలేకపోతున్నాను. నీ పాఠం మళ్ళీ చదివి, కాసేపటి తర్వాత మళ్ళీ అడుగు!",
}
