package chat

import "strings"

// Topic identifies a canned reply family.
type Topic string

const (
	TopicRoofing    Topic = "roofing"
	TopicHVAC       Topic = "hvac"
	TopicPlumbing   Topic = "plumbing"
	TopicElectrical Topic = "electrical"
	TopicPool       Topic = "pool"
	TopicHurricane  Topic = "hurricane"
	TopicEmergency  Topic = "emergency"
	TopicPricing    Topic = "pricing"
	TopicTimeline   Topic = "timeline"
	TopicLocation   Topic = "location"
	TopicDefault    Topic = "default"
)

const (
	GreetingReply = "🤖 Hi! I'm your Florida Service AI Assistant. I can instantly connect you with verified contractors across all 67 Florida counties. What service do you need help with today?"

	DefaultReply = "I'm here to help connect you with Florida's best contractors! Ask me about roofing, AC/HVAC, plumbing, electrical, pools, landscaping, or emergency services. What can I help you find?"

	EmergencyReply = "🚨 I understand this is URGENT! I'm immediately connecting you with emergency service providers in your area. They typically respond within 30-90 minutes. What's your exact location and emergency?"

	// EmergencyAwayReply replaces EmergencyReply while the manager is away.
	EmergencyAwayReply = "🚨 I understand this is URGENT! Our team is away right now, so a person may take longer than usual to call you back. I'm still alerting emergency service providers in your area. What's your exact location and emergency?"
)

// Rule maps a keyword set to a reply. Any keyword found as a substring of the
// lowercased utterance selects the rule.
type Rule struct {
	Topic    Topic
	Keywords []string
	Reply    string
}

// Matches reports whether any keyword occurs in the lowercased utterance.
func (r Rule) Matches(lowered string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// DefaultRules returns the keyword rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{TopicRoofing, []string{"roof", "leak", "shingle"},
			"🏠 Roofing emergency or planned repair? I work with 150+ licensed roofers across Florida. Emergency repairs typically get responses in 30-60 minutes. What's your situation?"},
		{TopicHVAC, []string{"ac", "hvac", "cooling", "air condition"},
			"❄️ AC issues in Florida heat are serious! I can connect you with certified HVAC techs who offer 24/7 emergency service. Most respond within 1-2 hours. What's happening with your system?"},
		{TopicPlumbing, []string{"plumb", "water", "drain", "pipe"},
			"🔧 Plumbing problems can't wait! I work with master plumbers throughout Florida who offer emergency service. Water damage prevention is critical. Describe your issue?"},
		{TopicElectrical, []string{"electric", "wire", "outlet", "power"},
			"⚡ Electrical issues require licensed professionals immediately. I connect you with Master Electricians across Florida. Safety first - what's the problem?"},
		{TopicPool, []string{"pool", "spa", "chlorine"},
			"🏊 Pool problems during Florida season? I work with certified pool technicians statewide. Equipment repair, cleaning, or chemical issues? Tell me more."},
		{TopicHurricane, []string{"hurricane", "storm", "shutter"},
			"🌪️ Hurricane preparation is crucial in Florida! I connect you with certified storm contractors who can board up, install shutters, or handle emergency repairs. What do you need?"},
		{TopicEmergency, []string{"emergency", "urgent", "asap", "help"},
			EmergencyReply},
		{TopicPricing, []string{"cost", "price", "free", "money"},
			"💰 Great question! Our service is 100% FREE for Florida homeowners. Contractors pay us only when they successfully connect with quality leads like you. You get competitive pricing and quality work!"},
		{TopicTimeline, []string{"when", "timeline", "how long"},
			"⏰ Perfect! I can match you with 2-4 contractors based on your timeline and project scope. They'll contact you with detailed estimates within 4-6 hours. Much faster than traditional methods!"},
		{TopicLocation, []string{"where", "location", "area"},
			"📍 I serve all Florida counties! From Miami-Dade to Escambia, Jacksonville to Key West. Where in Florida are you located? This helps me match you with the closest, highest-rated contractors."},
	}
}

// Match is the outcome of keyword selection.
type Match struct {
	Topic Topic
	Reply string
}

// Selector picks a canned reply by evaluating rules in order.
type Selector struct {
	rules        []Rule
	defaultReply string
	awayReply    string
	away         bool
}

// NewSelector builds a selector over rules. A nil slice uses DefaultRules.
func NewSelector(rules []Rule) *Selector {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Selector{
		rules:        rules,
		defaultReply: DefaultReply,
		awayReply:    EmergencyAwayReply,
	}
}

// WithAway returns a copy whose emergency reply reflects the away flag.
// Matching is unchanged.
func (s *Selector) WithAway(away bool) *Selector {
	cp := *s
	cp.away = away
	return &cp
}

// Select returns the first matching rule's reply or the default reply.
func (s *Selector) Select(utterance string) Match {
	lowered := strings.ToLower(utterance)
	for _, rule := range s.rules {
		if !rule.Matches(lowered) {
			continue
		}
		if rule.Topic == TopicEmergency && s.away {
			return Match{Topic: rule.Topic, Reply: s.awayReply}
		}
		return Match{Topic: rule.Topic, Reply: rule.Reply}
	}
	return Match{Topic: TopicDefault, Reply: s.defaultReply}
}
