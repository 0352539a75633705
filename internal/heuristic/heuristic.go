// Package heuristic implements the offline classifier and regex parsers used
// when the completion service is unavailable, unconfigured or ambiguous.
// None of these functions fail: no match yields nil or a zero default.
package heuristic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/travelq/internal/cityname"
	"github.com/kailas-cloud/travelq/internal/domain"
)

var (
	negativeWords = regexp.MustCompile(`\b(bad|annoyed|angry|worst)\b`)
	positiveWords = regexp.MustCompile(`\b(hi|hello|hey|good|great|thanks|thank you)\b`)

	greetingRe = regexp.MustCompile(`\b(hi|hello|hey|good\s*(morning|evening|night))\b`)
	planDayRe  = regexp.MustCompile(`\bplan\b.*\bday`)

	budgetPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:under|upto|up to|budget)\s*₹?\s*([\d,]+)`),
		regexp.MustCompile(`(?i)₹?\s*([\d,]+)\s*(?:budget|per night|a night)`),
		regexp.MustCompile(`₹?\s*([\d,]+)`),
	}

	hoursRe   = regexp.MustCompile(`(\d+)h`)
	minutesRe = regexp.MustCompile(`(\d+)m`)

	cityInRe    = regexp.MustCompile(`(?i)in\s+([a-zA-Z\s]+)`)
	alphaTokens = regexp.MustCompile(`[a-zA-Z]+`)
)

// NormalizeMessage trims surrounding whitespace.
func NormalizeMessage(msg string) string {
	return strings.TrimSpace(msg)
}

// AnalyzeSentiment tags text by keyword; negative keywords take priority.
func AnalyzeSentiment(text string) domain.Sentiment {
	t := strings.ToLower(text)
	switch {
	case negativeWords.MatchString(t):
		return domain.SentimentNegative
	case positiveWords.MatchString(t):
		return domain.SentimentPositive
	default:
		return domain.SentimentNeutral
	}
}

type intentRule struct {
	intent domain.Intent
	match  func(lower string) bool
}

func containsAny(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

// intentRules is a priority cascade: the first matching rule wins.
// Reordering changes the result for ambiguous messages such as "flight itinerary".
var intentRules = []intentRule{
	{domain.IntentGreeting, greetingRe.MatchString},
	{domain.IntentItinerary, func(s string) bool {
		return containsAny("itinerary", "iternary")(s) || planDayRe.MatchString(s)
	}},
	{domain.IntentFlight, containsAny("flight", "airline")},
	{domain.IntentBus, containsAny("bus", "sleeper", "coach")},
	{domain.IntentHotel, containsAny("hotel", "stay", "lodge")},
	{domain.IntentAttractions, containsAny("place", "visit", "things to do")},
}

// DetectIntent classifies text with the ordered keyword rules.
func DetectIntent(text string) domain.Intent {
	t := strings.ToLower(text)
	for _, r := range intentRules {
		if r.match(t) {
			return r.intent
		}
	}
	return domain.IntentUnknown
}

// ParseBudget finds a rupee amount in text. It tries, in order, a keyword-led
// amount ("under 5,000"), a keyword-trailed amount ("2000 per night") and any
// bare number. Commas are stripped. Returns nil when nothing matches.
func ParseBudget(text string) *int {
	return firstAmount(text, budgetPatterns)
}

// ParseBudgetKeyword is ParseBudget without the bare-number pattern, so a day
// count such as "3 day" is never read as an amount.
func ParseBudgetKeyword(text string) *int {
	return firstAmount(text, budgetPatterns[:2])
}

func firstAmount(text string, patterns []*regexp.Regexp) *int {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v, ok := parseDigits(m[1]); ok {
				return &v
			}
		}
	}
	return nil
}

func parseDigits(s string) (int, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDurationMinutes converts strings like "2h 30m" to minutes.
// A missing hour or minute component counts as zero.
func ParseDurationMinutes(s string) int {
	var total int
	if m := hoursRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		total += h * 60
	}
	if m := minutesRe.FindStringSubmatch(s); m != nil {
		mins, _ := strconv.Atoi(m[1])
		total += mins
	}
	return total
}

// ExtractCity returns the words after the first "in", else the last
// alphabetic token title-cased. Returns "" for text without letters.
func ExtractCity(text string) string {
	if m := cityInRe.FindStringSubmatch(text); m != nil {
		if city := strings.TrimSpace(m[1]); city != "" {
			return city
		}
	}
	tokens := alphaTokens.FindAllString(text, -1)
	if len(tokens) == 0 {
		return ""
	}
	return cityname.Canonicalize(tokens[len(tokens)-1])
}
