package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/dataset"
)

func sampleUplift() []dataset.UpliftRow {
	return []dataset.UpliftRow{
		{
			PersonaID: 1, TenureBucket: "1-3y", EntityType: "category", EntityID: 4,
			EntityName: "CATEGORY_004", NTestMatched: 9000, NControlMatched: 8500,
			TestRenewalRate: 0.823, ControlRenewalRate: 0.801, IncrementalRenewalRate: 0.022,
			IncrementalRank: 1, UpliftMethod: "synthetic_control",
		},
		{
			PersonaID: 3, TenureBucket: "0-3m", EntityType: "action", EntityID: 1,
			EntityName: "ACTION_001", NTestMatched: 600, NControlMatched: 550,
			TestRenewalRate: 0.56, ControlRenewalRate: 0.55, IncrementalRenewalRate: 0.01,
			IncrementalRank: 3, UpliftMethod: "synthetic_control",
		},
	}
}

func TestBuildFactCorpus(t *testing.T) {
	docs := BuildFactCorpus(sampleUplift(), 0)
	require.Len(t, docs, 2)

	d := docs[0]
	assert.Equal(t, "nba_fact:1:1-3y:category:4", d.ID)
	assert.Equal(t, "nba_fact", d.Metadata["doc_type"])
	assert.Equal(t, int64(1), d.Metadata["persona_id"])
	assert.Equal(t, "1-3y", d.Metadata["tenure_bucket"])
	assert.Equal(t, "category", d.Metadata["entity_type"])
	assert.Equal(t, "CATEGORY_004", d.Metadata["entity_name"])
	assert.Equal(t, int64(9000), d.Metadata["n_test_matched"])
	assert.InDelta(t, 0.022, d.Metadata["incremental_renewal_rate"].(float64), 1e-12)
}

func TestFactText(t *testing.T) {
	text := FactText(sampleUplift()[0])
	assert.Equal(t,
		"For Persona 1 members in tenure bucket '1-3y', category 'CATEGORY_004' "+
			"shows an estimated incremental renewal uplift of about 220 basis points. "+
			"In the synthetic-control analysis, the renewal rate for exposed members "+
			"was 82.3%, compared with 80.1% for matched controls, based on 9000 test "+
			"and 8500 control members.",
		text)
}

func TestBuildFactCorpusMinSupport(t *testing.T) {
	docs := BuildFactCorpus(sampleUplift(), 5000)
	require.Len(t, docs, 1)
	assert.Equal(t, "nba_fact:1:1-3y:category:4", docs[0].ID)

	// Zero or negative threshold keeps everything.
	assert.Len(t, BuildFactCorpus(sampleUplift(), 0), 2)
	assert.Len(t, BuildFactCorpus(sampleUplift(), -1), 2)
}
