package classifier

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"alert-monitor/internal/models"
)

// A keyword matches at the start of a word. A trailing space makes it a whole word.
var (
	redKeywords       = []string{"червон", "красн", "критич", "над город"}
	orangeKeywords    = []string{"помаранчев", "оранжев"}
	purpleKeywords    = []string{"фіолетов", "фиолетов", "бб ", "баліст"}
	standDownKeywords = []string{"відбій", "отбой", "скасов"}
)

type keywordRule struct {
	keywords   []string
	assessment models.ThreatAssessment
}

// Rules is the deterministic fallback classifier.
type Rules struct {
	variants []string
	others   []string
	rules    []keywordRule
}

// NewRules builds a rule classifier for the given city.
func NewRules(opts CityOptions) *Rules {
	// Variants match by word prefix, so "дніпр" also matches the region
	// ("Дніпропетровщина") and nearby towns ("Дніпрорудне"). The AI prompt
	// is stricter; the fallback errs towards alerting.
	variants := append([]string{opts.City}, opts.Variants...)
	r := &Rules{
		variants: foldAll(variants),
		others:   foldAll(opts.OtherCities),
	}
	// Priority order; first match wins.
	r.rules = []keywordRule{
		{foldAll(redKeywords), models.ThreatAssessment{Level: models.LevelRed, Confidence: 70,
			Reason: "Червоний код для міста (простий аналіз)"}},
		{foldAll(orangeKeywords), models.ThreatAssessment{Level: models.LevelOrange, Confidence: 70,
			Reason: "Помаранчевий код для міста (простий аналіз)"}},
		{foldAll(purpleKeywords), models.ThreatAssessment{Level: models.LevelPurple, Confidence: 70,
			Reason: "Фіолетовий код / ББ для міста (простий аналіз)"}},
		{foldAll(standDownKeywords), models.ThreatAssessment{Level: models.LevelNone, Confidence: 80,
			Reason: "Відбій тривоги"}},
	}
	return r
}

// Name implements Classifier.
func (r *Rules) Name() string { return "rules" }

// Classify implements Classifier.
func (r *Rules) Classify(ctx context.Context, items []models.StreamItem) []models.ThreatAssessment {
	out := make([]models.ThreatAssessment, len(items))
	for i, item := range items {
		out[i] = r.Assess(item.Text)
	}
	return out
}

// Assess classifies a single text.
func (r *Rules) Assess(text string) models.ThreatAssessment {
	padded := " " + fold(StripFooter(text)) + " "

	if !containsAny(padded, r.variants) {
		a := models.ThreatAssessment{Level: models.LevelNone, Confidence: 80, Reason: "Місто не згадується"}
		if other := firstMatch(padded, r.others); other != "" {
			a.Reason = fmt.Sprintf("Згадується інше місто (%s)", other)
		}
		return a.Normalize()
	}

	for _, rule := range r.rules {
		if containsAny(padded, rule.keywords) {
			a := rule.assessment
			a.CityMentioned = true
			return a.Normalize()
		}
	}

	return models.ThreatAssessment{
		Level:         models.LevelYellow,
		Confidence:    60,
		Reason:        "Місто згадується, але загроза неясна (простий аналіз)",
		CityMentioned: true,
	}.Normalize()
}

// fold lowercases s and turns every run of non letters/digits into one space.
// Apostrophes are kept so names like "кам'янське" survive.
func fold(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’' || r == 'ʼ' {
			if r == '’' || r == 'ʼ' {
				r = '\''
			}
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

func foldAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		whole := strings.HasSuffix(w, " ")
		f := fold(w)
		if f == "" {
			continue
		}
		if whole {
			f += " "
		}
		out = append(out, " "+f)
	}
	return out
}

func containsAny(padded string, patterns []string) bool {
	return firstMatch(padded, patterns) != ""
}

func firstMatch(padded string, patterns []string) string {
	for _, p := range patterns {
		if strings.Contains(padded, p) {
			return strings.TrimSpace(p)
		}
	}
	return ""
}
