package domain

import "fmt"

// Intent is the classified purpose of a user message.
type Intent string

// Supported intents. The order of the heuristic cascade lives in package heuristic.
const (
	IntentGreeting    Intent = "greeting"
	IntentItinerary   Intent = "itinerary"
	IntentFlight      Intent = "flight"
	IntentBus         Intent = "bus"
	IntentHotel       Intent = "hotel"
	IntentAttractions Intent = "attractions"
	IntentUnknown     Intent = "unknown"
)

var validIntents = map[Intent]struct{}{
	IntentGreeting:    {},
	IntentItinerary:   {},
	IntentFlight:      {},
	IntentBus:         {},
	IntentHotel:       {},
	IntentAttractions: {},
	IntentUnknown:     {},
}

// IsValid reports whether i is one of the supported labels.
func (i Intent) IsValid() bool {
	_, ok := validIntents[i]
	return ok
}

// ParseIntent validates a raw label.
func ParseIntent(s string) (Intent, error) {
	i := Intent(s)
	if !i.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownIntent, s)
	}
	return i, nil
}

// Sentiment is the coarse tone of a message.
type Sentiment string

// Sentiment values.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)
