package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/dataset"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/vectorstore"
)

// Intent classifies what kind of answer the user is after.
type Intent string

const (
	IntentMemberNBA       Intent = "member_nba"
	IntentSegmentAnalysis Intent = "segment_analysis"
	IntentWhyExplanation  Intent = "why_explanation"
	IntentGeneralHelp     Intent = "general_help"
)

// maxRecosForPrompt caps how many recommendation rows go into a prompt.
const maxRecosForPrompt = 50

// DetectIntent classifies a question with keyword rules. "Why" questions
// win over segment questions, which win over NBA questions.
func DetectIntent(userQuery string) Intent {
	q := strings.ToLower(userQuery)

	if strings.Contains(q, "why") || strings.Contains(q, "reason") || strings.Contains(q, "explain") {
		return IntentWhyExplanation
	}
	if strings.Contains(q, "segment") || strings.Contains(q, "persona") || strings.Contains(q, "cohort") {
		return IntentSegmentAnalysis
	}
	if strings.Contains(q, "next best") || strings.Contains(q, "next-best") ||
		strings.Contains(q, "nba") || strings.Contains(q, "next action") {
		return IntentMemberNBA
	}
	return IntentGeneralHelp
}

// Answer is the router's reply to one question.
type Answer struct {
	Text          string
	Intent        Intent
	MembershipNbr *int64
}

// Router turns a user question into an answer: detect intent, gather
// the member's precomputed recommendations and retrieved facts, build
// the prompt, and call the model. Context gathering degrades to empty
// inputs on failure; only prompt-independent errors surface.
type Router struct {
	warehouse *dataset.Warehouse
	store     *vectorstore.Store
	service   Service
	topK      int
}

// NewRouter creates a router. store may be nil when no index has been
// built yet, and service may be nil when the LLM provider is "none";
// both degrade rather than fail.
func NewRouter(warehouse *dataset.Warehouse, store *vectorstore.Store, service Service, topK int) *Router {
	return &Router{
		warehouse: warehouse,
		store:     store,
		service:   service,
		topK:      topK,
	}
}

// Answer handles one question, optionally personalized to a member.
func (r *Router) Answer(ctx context.Context, userQuery string, membershipNbr *int64) (*Answer, error) {
	if strings.TrimSpace(userQuery) == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	intent := DetectIntent(userQuery)
	log.Debug("Detected intent", "intent", intent)

	recos := r.memberRecos(intent, membershipNbr)
	facts := r.searchFacts(ctx, userQuery)

	var messages []Message
	switch intent {
	case IntentMemberNBA:
		messages = buildMemberNBAMessages(userQuery, recos, facts)
	case IntentSegmentAnalysis:
		messages = buildSegmentAnalysisMessages(userQuery, facts)
	case IntentWhyExplanation:
		messages = buildWhyExplanationMessages(userQuery, recos, facts)
	default:
		messages = buildGeneralHelpMessages(userQuery, facts)
	}

	text := r.complete(ctx, messages, userQuery, intent, recos, facts)

	return &Answer{
		Text:          text,
		Intent:        intent,
		MembershipNbr: membershipNbr,
	}, nil
}

// memberRecos loads precomputed recommendations for intents that are
// about a specific member. Failures degrade to no recommendations.
func (r *Router) memberRecos(intent Intent, membershipNbr *int64) []dataset.Reco {
	if membershipNbr == nil {
		return nil
	}
	if intent != IntentMemberNBA && intent != IntentWhyExplanation {
		return nil
	}

	recos, err := r.warehouse.RecosForMember(*membershipNbr, maxRecosForPrompt)
	if err != nil {
		log.Warn("Failed to load member recommendations", "member", *membershipNbr, "error", err)
		return nil
	}
	log.Debug("Loaded member recommendations", "member", *membershipNbr, "count", len(recos))
	return recos
}

// searchFacts retrieves supporting facts for the question. Failures,
// including a missing index, degrade to no facts.
func (r *Router) searchFacts(ctx context.Context, userQuery string) []vectorstore.Result {
	if r.store == nil {
		return nil
	}

	facts, err := r.store.Search(ctx, userQuery, r.topK, nil)
	if err != nil {
		log.Warn("Fact retrieval failed", "error", err)
		return nil
	}
	log.Debug("Retrieved facts", "count", len(facts))
	return facts
}

// complete calls the model, falling back to a plain-text summary when
// the provider is disabled or the call fails.
func (r *Router) complete(ctx context.Context, messages []Message, userQuery string, intent Intent, recos []dataset.Reco, facts []vectorstore.Result) string {
	if r.service == nil {
		return fallbackAnswer(userQuery, intent, len(recos), len(facts))
	}

	text, err := r.service.Complete(ctx, messages, DefaultCompletionOptions())
	if err != nil {
		log.Warn("LLM completion failed, using fallback answer", "error", err)
		return fallbackAnswer(userQuery, intent, len(recos), len(facts))
	}
	return text
}

// fallbackAnswer is the plain-text reply used when no model is
// available. It still reports what context was gathered.
func fallbackAnswer(userQuery string, intent Intent, recoCount, factCount int) string {
	return strings.Join([]string{
		"LLM is disabled in this environment.",
		fmt.Sprintf("Intent: %s", intent),
		fmt.Sprintf("User query: %s", userQuery),
		fmt.Sprintf("Member recos loaded: %d", recoCount),
		fmt.Sprintf("Retrieved facts: %d", factCount),
	}, "\n")
}
