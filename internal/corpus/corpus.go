// Package corpus turns uplift summary rows into the fact documents that
// get embedded and indexed for retrieval.
package corpus

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/dataset"
	"github.com/Smriti1996/renewal-intelligence-nba/internal/vectorstore"
)

// DocTypeNBAFact tags documents derived from the uplift summary.
const DocTypeNBAFact = "nba_fact"

// BuildFactCorpus converts uplift rows into retrievable fact documents,
// one per row, preserving input order. Rows whose combined test and
// control sample size falls below minSupport are dropped; minSupport <= 0
// keeps everything.
func BuildFactCorpus(uplift []dataset.UpliftRow, minSupport int64) []vectorstore.Document {
	docs := make([]vectorstore.Document, 0, len(uplift))
	skipped := 0

	for _, u := range uplift {
		if minSupport > 0 && u.Support() < minSupport {
			skipped++
			continue
		}
		docs = append(docs, vectorstore.Document{
			ID:   FactID(u),
			Text: FactText(u),
			Metadata: map[string]any{
				"doc_type":                 DocTypeNBAFact,
				"persona_id":               u.PersonaID,
				"tenure_bucket":            u.TenureBucket,
				"entity_type":              u.EntityType,
				"entity_id":                u.EntityID,
				"entity_name":              u.EntityName,
				"incremental_renewal_rate": u.IncrementalRenewalRate,
				"test_renewal_rate":        u.TestRenewalRate,
				"control_renewal_rate":     u.ControlRenewalRate,
				"n_test_matched":           u.NTestMatched,
				"n_control_matched":        u.NControlMatched,
			},
		})
	}

	if skipped > 0 {
		log.Debug("Dropped low-support uplift rows from corpus",
			"skipped", skipped, "min_support", minSupport)
	}
	return docs
}

// FactID builds the stable document id for an uplift row.
func FactID(u dataset.UpliftRow) string {
	return fmt.Sprintf("%s:%d:%s:%s:%d",
		DocTypeNBAFact, u.PersonaID, u.TenureBucket, u.EntityType, u.EntityID)
}

// FactText renders an uplift row as the natural-language fact sentence
// that gets embedded.
func FactText(u dataset.UpliftRow) string {
	upliftBps := u.IncrementalRenewalRate * 10000.0
	return fmt.Sprintf(
		"For Persona %d members in tenure bucket '%s', %s '%s' shows an estimated "+
			"incremental renewal uplift of about %.0f basis points. In the "+
			"synthetic-control analysis, the renewal rate for exposed members was "+
			"%.1f%%, compared with %.1f%% for matched controls, based on %d test "+
			"and %d control members.",
		u.PersonaID, u.TenureBucket, u.EntityType, u.EntityName,
		upliftBps, u.TestRenewalRate*100, u.ControlRenewalRate*100,
		u.NTestMatched, u.NControlMatched,
	)
}
