package reco

import (
	"fmt"
	"strings"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/dataset"
)

// ShortExplanation is the one-line form used in prompts and tables.
func ShortExplanation(r dataset.Reco) string {
	upliftBps := r.IncrementalRenewalRate * 10000.0
	return fmt.Sprintf("%s shows a +%.0f bps uplift; for Persona %d, %s members",
		r.EntityName, upliftBps, r.PersonaID, r.TenureBucket)
}

// LongExplanation is the multi-sentence form shown to users who ask why
// a recommendation was made.
func LongExplanation(r dataset.Reco) string {
	upliftBps := r.IncrementalRenewalRate * 10000.0

	pieces := []string{
		fmt.Sprintf(
			"This recommendation suggests focusing on '%s' because it is associated "+
				"with an estimated renewal uplift of about %.0f basis points for "+
				"similar members.",
			r.EntityName, upliftBps),
		fmt.Sprintf(
			"In the synthetic-control analysis, the renewal rate for members exposed "+
				"to this action was %.1f%% compared to %.1f%% for comparable controls.",
			r.TestRenewalRate*100, r.ControlRenewalRate*100),
		fmt.Sprintf(
			"The member is currently in the '%s' engagement bucket, so this action "+
				"is positioned as an appropriate step to influence renewal.",
			r.EngagementBucket),
	}

	if r.ChurnRiskFlag {
		pieces = append(pieces,
			"The member is flagged as higher churn risk, so interventions with "+
				"strong uplift are prioritized.")
	} else {
		pieces = append(pieces,
			"The member is not flagged as high churn risk, but this action still "+
				"shows a meaningful positive uplift.")
	}

	return strings.Join(pieces, " ")
}
