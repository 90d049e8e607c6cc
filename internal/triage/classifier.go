package triage

import "strings"

// Classification is the result of triaging one inbound message.
type Classification struct {
	Emergencies     []TopicKey
	Advice          []TopicKey
	WantsEscalation bool
	IsGreeting      bool
	IsThanks        bool
	IsAffirmative   bool
	// IsValid is false for empty or whitespace-only input. Invalid input is
	// answered with a static clarification and never reaches the AI backend.
	IsValid bool
}

// HasEmergency reports whether any emergency topic matched.
func (c Classification) HasEmergency() bool { return len(c.Emergencies) > 0 }

// HasAdvice reports whether any advice topic matched.
func (c Classification) HasAdvice() bool { return len(c.Advice) > 0 }

// Classifier matches free text against the lexicon.
type Classifier struct {
	lex *Lexicon
}

// NewClassifier creates a classifier over the given lexicon.
func NewClassifier(lex *Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Classify triages one message. Emergency and advice matches preserve
// lexicon registration order, so the first-registered topic wins when the
// responder consumes only the first match. Greeting, thanks and affirmative
// are checked only when nothing stronger matched.
func (c *Classifier) Classify(text string) Classification {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Classification{}
	}

	lower := strings.ToLower(trimmed)
	cls := Classification{IsValid: true}

	for _, t := range c.lex.emergencies {
		if matchesTopic(lower, t) {
			cls.Emergencies = append(cls.Emergencies, t.Key)
		}
	}

	for _, t := range c.lex.advice {
		if matchesTopic(lower, t) {
			cls.Advice = append(cls.Advice, t.Key)
		}
	}

	for _, phrase := range escalationPhrases {
		if strings.Contains(lower, phrase) {
			cls.WantsEscalation = true
			break
		}
	}

	if cls.HasEmergency() || cls.HasAdvice() || cls.WantsEscalation {
		return cls
	}

	short := normalizeShort(lower)
	switch {
	case greetingPhrases[short]:
		cls.IsGreeting = true
	case thanksPhrases[short] || (strings.Contains(short, "thank") && wordCount(short) <= 4):
		cls.IsThanks = true
	case affirmativePhrases[short]:
		cls.IsAffirmative = true
	}

	return cls
}

func matchesTopic(lower string, t topic) bool {
	if strings.Contains(lower, t.Phrase) {
		return true
	}
	for _, syn := range t.Synonyms {
		if strings.Contains(lower, syn) {
			return true
		}
	}
	return false
}

// normalizeShort strips trailing punctuation so "thanks!" and "hello."
// still count as near-exact matches.
func normalizeShort(lower string) string {
	return strings.TrimRight(lower, ".!?, ")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
