package reco

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/dataset"
)

func segmentUplift(personaID int64, tb string, uplifts ...float64) []dataset.UpliftRow {
	rows := make([]dataset.UpliftRow, len(uplifts))
	for i, u := range uplifts {
		rows[i] = dataset.UpliftRow{
			PersonaID:              personaID,
			TenureBucket:           tb,
			EntityType:             "category",
			EntityID:               int64(i + 1),
			EntityName:             dataset.EntityName("category", int64(i+1)),
			NTestMatched:           1000,
			NControlMatched:        1000,
			ControlRenewalRate:     0.8,
			TestRenewalRate:        0.8 + u,
			IncrementalRenewalRate: u,
			UpliftMethod:           "synthetic_control",
		}
	}
	return rows
}

func member(nbr, personaID int64, tb, engagement string, churnRisk bool) dataset.Member {
	return dataset.Member{
		MembershipNbr:    nbr,
		PersonaID:        personaID,
		TenureBucket:     tb,
		MembershipTier:   "Club",
		MembershipType:   "Savings",
		SalesDecile:      5,
		SalesCentile:     50,
		TenureMonths:     6,
		EngagementBucket: engagement,
		ChurnRiskFlag:    churnRisk,
	}
}

func TestGenerateCandidates(t *testing.T) {
	uplift := append(
		segmentUplift(1, "1-3y", 0.03, 0.01, 0.02),
		segmentUplift(2, "0-3m", 0.05)...,
	)
	members := []dataset.Member{
		member(1, 1, "1-3y", dataset.EngagementMedium, false),
		member(2, 2, "0-3m", dataset.EngagementLow, true),
		member(3, 3, "3y+", dataset.EngagementHigh, false), // no uplift rows
	}

	candidates := GenerateCandidates(members, uplift, 2)
	require.Len(t, candidates, 3)

	// Member 1 gets the segment's top 2 by uplift, segment-ranked.
	assert.Equal(t, int64(1), candidates[0].Member.MembershipNbr)
	assert.InDelta(t, 0.03, candidates[0].Uplift.IncrementalRenewalRate, 1e-12)
	assert.Equal(t, int64(1), candidates[0].SegmentRank)
	assert.InDelta(t, 0.02, candidates[1].Uplift.IncrementalRenewalRate, 1e-12)
	assert.Equal(t, int64(2), candidates[1].SegmentRank)

	assert.Equal(t, int64(2), candidates[2].Member.MembershipNbr)
}

func TestScoreCandidates(t *testing.T) {
	uplift := segmentUplift(1, "1-3y", 0.04, 0.0)
	members := []dataset.Member{
		member(1, 1, "1-3y", dataset.EngagementHigh, false),
		member(2, 1, "1-3y", dataset.EngagementLow, true),
	}
	candidates := GenerateCandidates(members, uplift, 10)
	require.Len(t, candidates, 4)

	w := Weights{Uplift: 0.6, Engagement: 0.3, Risk: 0.1}
	ScoreCandidates(candidates, w)

	// Member 1, max uplift: 0.6*1 + 0.3*1 + 0.1*0
	assert.InDelta(t, 0.9, candidates[0].Score, 1e-9)
	// Member 1, min uplift: 0.6*0 + 0.3*1
	assert.InDelta(t, 0.3, candidates[1].Score, 1e-9)
	// Member 2, max uplift: 0.6*1 + 0.3*0 + 0.1*1
	assert.InDelta(t, 0.7, candidates[2].Score, 1e-9)
	// Member 2, min uplift: risk only
	assert.InDelta(t, 0.1, candidates[3].Score, 1e-9)
}

func TestScoreCandidatesConstantUplift(t *testing.T) {
	uplift := segmentUplift(1, "1-3y", 0.02, 0.02)
	members := []dataset.Member{member(1, 1, "1-3y", dataset.EngagementMedium, false)}
	candidates := GenerateCandidates(members, uplift, 10)

	ScoreCandidates(candidates, Weights{Uplift: 0.6, Engagement: 0.3, Risk: 0.1})

	// Constant uplift normalizes to zero, engagement carries the score.
	for _, c := range candidates {
		assert.InDelta(t, 0.15, c.Score, 1e-9)
	}
}

func TestRankRecos(t *testing.T) {
	uplift := segmentUplift(1, "1-3y", 0.01, 0.03, 0.02)
	members := []dataset.Member{
		member(2, 1, "1-3y", dataset.EngagementMedium, false),
		member(1, 1, "1-3y", dataset.EngagementMedium, false),
	}
	candidates := GenerateCandidates(members, uplift, 10)
	ScoreCandidates(candidates, Weights{Uplift: 1.0})

	recos := RankRecos(candidates, 2)
	require.Len(t, recos, 4)

	// Grouped by member, ranked by descending score within each.
	assert.Equal(t, int64(1), recos[0].MembershipNbr)
	assert.Equal(t, int64(1), recos[0].MemberRank)
	assert.InDelta(t, 0.03, recos[0].IncrementalRenewalRate, 1e-12)
	assert.Equal(t, int64(2), recos[1].MemberRank)
	assert.InDelta(t, 0.02, recos[1].IncrementalRenewalRate, 1e-12)

	assert.Equal(t, int64(2), recos[2].MembershipNbr)
	assert.Equal(t, int64(1), recos[2].MemberRank)

	for _, r := range recos {
		assert.NotEmpty(t, r.ExplanationShort)
		assert.NotEmpty(t, r.ExplanationLong)
	}
}

func TestExplanations(t *testing.T) {
	r := dataset.Reco{
		MembershipNbr: 1, PersonaID: 2, TenureBucket: "3-12m",
		EngagementBucket: dataset.EngagementLow, ChurnRiskFlag: true,
		EntityName:             "ACTION_007",
		TestRenewalRate:        0.66,
		ControlRenewalRate:     0.64,
		IncrementalRenewalRate: 0.02,
	}

	short := ShortExplanation(r)
	assert.Equal(t, "ACTION_007 shows a +200 bps uplift; for Persona 2, 3-12m members", short)

	long := LongExplanation(r)
	assert.Contains(t, long, "about 200 basis points")
	assert.Contains(t, long, "66.0% compared to 64.0%")
	assert.Contains(t, long, "'low' engagement bucket")
	assert.Contains(t, long, "flagged as higher churn risk")

	r.ChurnRiskFlag = false
	assert.Contains(t, LongExplanation(r), "not flagged as high churn risk")
}

func TestRunPipeline(t *testing.T) {
	w, err := dataset.Open(filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	defer w.Close()

	cfg := Config{
		TopK:                    2,
		MaxCandidatesPerSegment: 5,
		Weights:                 Weights{Uplift: 0.6, Engagement: 0.3, Risk: 0.1},
	}

	// Empty warehouse refuses to run.
	_, err = Run(w, cfg)
	assert.Error(t, err)

	require.NoError(t, w.ReplaceMembers([]dataset.Member{
		member(1, 1, "1-3y", dataset.EngagementHigh, false),
		member(2, 1, "1-3y", dataset.EngagementLow, true),
	}))
	require.NoError(t, w.ReplaceUplift(segmentUplift(1, "1-3y", 0.03, 0.01, 0.02)))

	n, err := Run(w, cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	recos, err := w.RecosForMember(1, 10)
	require.NoError(t, err)
	require.Len(t, recos, 2)
	assert.Equal(t, int64(1), recos[0].MemberRank)
	assert.True(t, strings.HasPrefix(recos[0].ExplanationShort, "CATEGORY_001"))
}
