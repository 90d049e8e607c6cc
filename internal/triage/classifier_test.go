package triage

import "testing"

func newTestClassifier() *Classifier {
	return NewClassifier(NewLexicon())
}

func TestClassifyGasWordsFlagGasLeak(t *testing.T) {
	c := newTestClassifier()

	messages := []string{
		"I think I smell gas in the kitchen",
		"there is a strange odor near the stove",
		"what is that smell coming from the basement",
	}

	for _, msg := range messages {
		cls := c.Classify(msg)
		if !cls.IsValid {
			t.Fatalf("%q: expected valid classification", msg)
		}
		if !containsTopic(cls.Emergencies, TopicGasLeak) {
			t.Errorf("%q: expected gas leak emergency, got %v", msg, cls.Emergencies)
		}
		if cls.WantsEscalation {
			t.Errorf("%q: gas words alone must not trigger escalation", msg)
		}
	}
}

func TestClassifyCallMeNowIsEscalation(t *testing.T) {
	c := newTestClassifier()

	cls := c.Classify("call me now")
	if !cls.WantsEscalation {
		t.Fatal("expected escalation intent for \"call me now\"")
	}

	// Escalation wins over surrounding content too.
	cls = c.Classify("the faucet drips a little, call me now please")
	if !cls.WantsEscalation {
		t.Fatal("expected escalation intent when phrase embedded in a longer message")
	}
}

func TestClassifyAffirmativesAreNotEscalation(t *testing.T) {
	c := newTestClassifier()

	for _, msg := range []string{"yes", "ok", "okay", "sure"} {
		cls := c.Classify(msg)
		if cls.WantsEscalation {
			t.Errorf("%q: bare affirmative must not escalate", msg)
		}
		if !cls.IsAffirmative {
			t.Errorf("%q: expected affirmative classification", msg)
		}
	}
}

func TestClassifyLeakMatchesPlumbingFirst(t *testing.T) {
	c := newTestClassifier()

	cls := c.Classify("There's a leak under my sink")
	if len(cls.Emergencies) == 0 || cls.Emergencies[0] != TopicPlumbingLeak {
		t.Fatalf("expected plumbing leak first, got %v", cls.Emergencies)
	}
}

func TestClassifyKitchenRenovationMatchesNothing(t *testing.T) {
	c := newTestClassifier()

	cls := c.Classify("I need to renovate my kitchen")
	if cls.HasEmergency() || cls.HasAdvice() || cls.WantsEscalation {
		t.Fatalf("expected no topic match, got %+v", cls)
	}
	if cls.IsGreeting || cls.IsThanks || cls.IsAffirmative {
		t.Fatalf("expected no short-message match, got %+v", cls)
	}
}

func TestClassifyEmptyInputIsInvalid(t *testing.T) {
	c := newTestClassifier()

	for _, msg := range []string{"", "   ", "\n\t"} {
		cls := c.Classify(msg)
		if cls.IsValid {
			t.Errorf("%q: expected invalid classification", msg)
		}
	}
}

func TestClassifyGreetingAndThanks(t *testing.T) {
	c := newTestClassifier()

	if cls := c.Classify("Hello!"); !cls.IsGreeting {
		t.Error("expected greeting for \"Hello!\"")
	}
	if cls := c.Classify("thanks so much"); !cls.IsThanks {
		t.Error("expected thanks for \"thanks so much\"")
	}

	// Greeting inside an emergency message must not mask the emergency.
	cls := c.Classify("hi, water is flooding my basement")
	if !containsTopic(cls.Emergencies, TopicPlumbingLeak) {
		t.Fatalf("expected plumbing emergency, got %v", cls.Emergencies)
	}
	if cls.IsGreeting {
		t.Error("greeting must only match when nothing stronger did")
	}
}

func TestClassifyAdviceTopics(t *testing.T) {
	c := newTestClassifier()

	cls := c.Classify("how long will a bathroom remodel take to complete?")
	if !containsTopic(cls.Advice, TopicTimeline) {
		t.Fatalf("expected timeline advice, got %v", cls.Advice)
	}

	cls = c.Classify("do I need a permit for moving a wall?")
	if !containsTopic(cls.Advice, TopicPermits) {
		t.Fatalf("expected permits advice, got %v", cls.Advice)
	}
}

func containsTopic(keys []TopicKey, want TopicKey) bool {
	for _, k := range keys {
		if k == want {
			return true
		}
	}
	return false
}
