// Package triage classifies inbound customer messages and generates
// responses, choosing between scripted safety answers, AI-generated text and
// human escalation.
package triage

// TopicKey identifies one entry in the lexicon.
type TopicKey string

// Emergency topics.
const (
	TopicPlumbingLeak     TopicKey = "plumbing leak"
	TopicGasLeak          TopicKey = "gas leak"
	TopicElectricalHazard TopicKey = "electrical hazard"
	TopicStructuralDamage TopicKey = "structural damage"
)

// Advice topics.
const (
	TopicRenovationPlanning TopicKey = "renovation planning"
	TopicTimeline           TopicKey = "timeline"
	TopicBudgeting          TopicKey = "budgeting"
	TopicPermits            TopicKey = "permits"
	TopicMaterials          TopicKey = "materials"
)

type topic struct {
	Key      TopicKey
	Phrase   string
	Synonyms []string
	Response string
}

// Lexicon holds the static topic tables. Pure data; registration order is
// load-bearing because the responder consumes only the first matched topic.
type Lexicon struct {
	emergencies []topic
	advice      []topic
}

// NewLexicon builds the default lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		emergencies: []topic{
			{
				Key:      TopicPlumbingLeak,
				Phrase:   "plumbing leak",
				Synonyms: []string{"leak", "water", "flood", "burst pipe", "pipe burst", "dripping"},
				Response: "Turn off your main water valve right away to stop the flow.\n" +
					"Move furniture and valuables away from the affected area.\n" +
					"If water is near outlets or your electrical panel, switch off power at the breaker.\n" +
					"Take photos of any damage for your insurance claim.\n" +
					"Call our emergency line at (555) 014-7300 — we have crews on call 24/7.",
			},
			{
				Key:      TopicGasLeak,
				Phrase:   "gas leak",
				Synonyms: []string{"gas", "smell", "odor", "fumes"},
				Response: "Do not switch any lights or appliances on or off.\n" +
					"Open doors and windows on your way out and leave the building immediately.\n" +
					"Do not use your phone until you are well clear of the property.\n" +
					"Call your gas utility's emergency number from outside, then 911 if the smell is strong.\n" +
					"Once the utility clears the property, call us at (555) 014-7300 to inspect and repair the line.",
			},
			{
				Key:      TopicElectricalHazard,
				Phrase:   "electrical hazard",
				Synonyms: []string{"sparks", "sparking", "shock", "exposed wire", "breaker keeps tripping"},
				Response: "Switch off the affected circuit at your breaker panel if you can reach it safely.\n" +
					"Do not touch outlets, switches or appliances that spark, buzz or smell like burning.\n" +
					"Keep water away from the area entirely.\n" +
					"If you see smoke or flame, leave and call 911 before anything else.\n" +
					"Our licensed electricians are on call at (555) 014-7300.",
			},
			{
				Key:      TopicStructuralDamage,
				Phrase:   "structural damage",
				Synonyms: []string{"collapse", "collapsing", "sagging ceiling", "crack in the wall", "foundation crack"},
				Response: "Keep everyone away from the affected room, including pets.\n" +
					"Do not attempt to prop up or brace anything yourself.\n" +
					"If the damage is spreading or you hear cracking, leave the building and call 911.\n" +
					"Photograph the damage from a safe distance for your records.\n" +
					"Call us at (555) 014-7300 for an emergency structural assessment.",
			},
		},
		advice: []topic{
			{
				Key:      TopicRenovationPlanning,
				Phrase:   "renovation planning",
				Synonyms: []string{"plan my renovation", "planning a remodel", "where do i start", "how do i plan"},
				Response: "A few things that make any renovation go smoother:\n" +
					"- Settle the scope first: which rooms, which systems, what stays untouched.\n" +
					"- Set your budget with a 15-20% contingency before talking to contractors.\n" +
					"- Check lead times on cabinets, windows and appliances early — they set your schedule.\n" +
					"- Line up permits before demolition day, not after.\n" +
					"If you submit a quote request with your project details, we'll put a plan together for you.",
			},
			{
				Key:      TopicTimeline,
				Phrase:   "how long will",
				Synonyms: []string{"timeline", "how long does", "take to complete", "time will it take"},
				// Response intentionally empty: the responder synthesizes
				// timeline answers from the quote context.
				Response: "",
			},
			{
				Key:      TopicBudgeting,
				Phrase:   "budget advice",
				Synonyms: []string{"how much should i budget", "save money", "keep costs down", "cost breakdown"},
				Response: "Some honest budgeting guidance from our estimators:\n" +
					"- Labor typically runs 35-50% of a renovation budget; don't trim it by hiring unlicensed trades.\n" +
					"- The biggest savings come from keeping plumbing fixtures where they are.\n" +
					"- Mid-range finishes resell nearly as well as premium ones in most neighborhoods.\n" +
					"- Always carry a contingency — surprises behind walls are the rule, not the exception.\n" +
					"Submit a quote request and we'll give you numbers for your specific project.",
			},
			{
				Key:      TopicPermits,
				Phrase:   "permit",
				Synonyms: []string{"permits", "zoning", "inspection", "code requirements"},
				Response: "Permit basics for renovation work:\n" +
					"- Structural, electrical, plumbing and gas work almost always needs a permit.\n" +
					"- Cosmetic work (paint, flooring, cabinet swaps) usually does not.\n" +
					"- Unpermitted work surfaces during resale inspections and costs far more to legalize later.\n" +
					"- We pull and manage all permits for projects we take on — it's included in our quotes.",
			},
			{
				Key:      TopicMaterials,
				Phrase:   "materials",
				Synonyms: []string{"countertop", "which material", "material options", "flooring options"},
				Response: "Picking materials that hold up:\n" +
					"- Quartz outperforms granite and marble for kitchen worktops at a similar price.\n" +
					"- Porcelain tile over luxury vinyl in wet rooms; vinyl over hardwood in basements.\n" +
					"- Ask for sample boards — lighting in your home changes everything.\n" +
					"We can bring samples to an on-site consultation if you request a quote.",
			},
		},
	}
}

// EmergencyResponse returns the scripted response for an emergency topic.
func (l *Lexicon) EmergencyResponse(key TopicKey) string {
	for _, t := range l.emergencies {
		if t.Key == key {
			return t.Response
		}
	}
	return ""
}

// AdviceResponse returns the scripted response for an advice topic.
func (l *Lexicon) AdviceResponse(key TopicKey) string {
	for _, t := range l.advice {
		if t.Key == key {
			return t.Response
		}
	}
	return ""
}

// escalationPhrases is deliberately narrow. Generic affirmatives ("yes",
// "ok") must never trigger a hand-off; false positives pull a human into
// conversations the bot was handling fine.
var escalationPhrases = []string{
	"call me",
	"call me now",
	"call you",
	"urgent help",
	"emergency assistance",
}

var greetingPhrases = map[string]bool{
	"hi":             true,
	"hello":          true,
	"hey":            true,
	"hi there":       true,
	"hello there":    true,
	"good morning":   true,
	"good afternoon": true,
	"good evening":   true,
	"howdy":          true,
}

var thanksPhrases = map[string]bool{
	"thanks":            true,
	"thank you":         true,
	"thanks a lot":      true,
	"thank you so much": true,
	"thx":               true,
	"ty":                true,
	"much appreciated":  true,
}

var affirmativePhrases = map[string]bool{
	"yes":         true,
	"yes please":  true,
	"ok":          true,
	"okay":        true,
	"sure":        true,
	"yeah":        true,
	"yep":         true,
	"sounds good": true,
	"please":      true,
}
