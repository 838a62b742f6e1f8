package llm

import (
	"fmt"
	"strings"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/dataset"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/vectorstore"
)

// SystemPrompt grounds every conversation in the renewal domain.
const SystemPrompt = `You are a renewal intelligence assistant for a membership-based business.
You see:
- Member personas, tenure segments, engagement and churn risk
- Next-best-action (NBA) recommendations with incremental renewal uplift estimates
- A fact corpus describing how categories, services and actions affect renewals

Rules:
- Be concise and clear. Explain in plain language, not jargon.
- Always ground answers in the provided facts and recommendations.
- If something is uncertain or not in the data, say so explicitly.
- Prefer practical, actionable suggestions over theory.`

// formatFacts renders retrieved facts as numbered prompt lines.
func formatFacts(facts []vectorstore.Result) string {
	if len(facts) == 0 {
		return "No retrieved facts."
	}
	var b strings.Builder
	for i, f := range facts {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[Fact %d] Persona=%v, Tenure=%v, Entity=%v:%v -> %v",
			i+1,
			f.Fields["persona_id"], f.Fields["tenure_bucket"],
			f.Fields["entity_type"], f.Fields["entity_name"],
			f.Fields["text"])
	}
	return b.String()
}

// formatRecos renders precomputed member recommendations as prompt lines.
func formatRecos(recos []dataset.Reco) string {
	if len(recos) == 0 {
		return "No precomputed member recommendations."
	}
	var b strings.Builder
	for i, r := range recos {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[Reco rank=%d] %s:%s | uplift~%.0f bps | %s",
			r.MemberRank, r.EntityType, r.EntityName,
			r.IncrementalRenewalRate*10000.0, r.ExplanationShort)
	}
	return b.String()
}

func buildMemberNBAMessages(userQuery string, recos []dataset.Reco, facts []vectorstore.Result) []Message {
	content := fmt.Sprintf(
		"User question:\n%s\n\n"+
			"Precomputed top NBAs for this member:\n%s\n\n"+
			"Relevant renewal facts:\n%s\n\n"+
			"Using only the information above, answer the user's question, and clearly "+
			"highlight 1-3 concrete next-best-actions with brief reasons.",
		userQuery, formatRecos(recos), formatFacts(facts))

	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: content},
	}
}

func buildSegmentAnalysisMessages(userQuery string, facts []vectorstore.Result) []Message {
	content := fmt.Sprintf(
		"User question:\n%s\n\n"+
			"Segment-level renewal facts:\n%s\n\n"+
			"Summarize which actions, categories or services seem most important for the "+
			"described segment, and explain the pattern in simple terms.",
		userQuery, formatFacts(facts))

	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: content},
	}
}

func buildWhyExplanationMessages(userQuery string, recos []dataset.Reco, facts []vectorstore.Result) []Message {
	content := fmt.Sprintf(
		"The user is asking *why* certain actions or categories are being recommended.\n\n"+
			"User question:\n%s\n\n"+
			"Member recommendations:\n%s\n\n"+
			"Supporting renewal facts:\n%s\n\n"+
			"Explain in plain language why these are recommended, referring to uplift and "+
			"relevant facts. If something is inferred, say 'based on the available data'.",
		userQuery, formatRecos(recos), formatFacts(facts))

	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: content},
	}
}

func buildGeneralHelpMessages(userQuery string, facts []vectorstore.Result) []Message {
	content := fmt.Sprintf(
		"User question:\n%s\n\n"+
			"Potentially relevant facts:\n%s\n\n"+
			"Answer the question as clearly as possible. If the question is outside "+
			"renewal intelligence, say that your scope is renewal-related analytics and "+
			"explain what you *can* help with.",
		userQuery, formatFacts(facts))

	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: content},
	}
}
