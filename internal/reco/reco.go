// Package reco computes per-member next-best-action recommendations
// from the uplift summary: segment-level candidate generation, weighted
// scoring, per-member ranking, and explanation text.
package reco

import (
	"sort"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/dataset"
)

// Weights mixes the scoring signals. They are applied as given, no
// normalization is performed on the weights themselves.
type Weights struct {
	Uplift     float64
	Engagement float64
	Risk       float64
}

// Config controls the recommendation pipeline.
type Config struct {
	TopK                    int
	MaxCandidatesPerSegment int
	Weights                 Weights
}

// Candidate is one (member, entity) pair under consideration.
type Candidate struct {
	Member      dataset.Member
	Uplift      dataset.UpliftRow
	SegmentRank int64
	Score       float64
}

type segmentKey struct {
	personaID    int64
	tenureBucket string
}

// topEntitiesPerSegment keeps, for each (persona, tenure bucket), the
// top-N entities by incremental renewal rate across all entity types.
func topEntitiesPerSegment(uplift []dataset.UpliftRow, maxPerSegment int) map[segmentKey][]dataset.UpliftRow {
	bySegment := make(map[segmentKey][]dataset.UpliftRow)
	for _, u := range uplift {
		k := segmentKey{u.PersonaID, u.TenureBucket}
		bySegment[k] = append(bySegment[k], u)
	}

	for k, rows := range bySegment {
		sort.SliceStable(rows, func(a, b int) bool {
			return rows[a].IncrementalRenewalRate > rows[b].IncrementalRenewalRate
		})
		if len(rows) > maxPerSegment {
			rows = rows[:maxPerSegment]
		}
		bySegment[k] = rows
	}
	return bySegment
}

// GenerateCandidates joins each member with the top entities of the
// member's segment. Members in segments with no uplift rows get no
// candidates.
func GenerateCandidates(members []dataset.Member, uplift []dataset.UpliftRow, maxPerSegment int) []Candidate {
	segmentTop := topEntitiesPerSegment(uplift, maxPerSegment)

	var candidates []Candidate
	for _, m := range members {
		rows := segmentTop[segmentKey{m.PersonaID, m.TenureBucket}]
		for i, u := range rows {
			candidates = append(candidates, Candidate{
				Member:      m,
				Uplift:      u,
				SegmentRank: int64(i + 1),
			})
		}
	}
	return candidates
}

// ScoreCandidates assigns each candidate a weighted score of normalized
// uplift, engagement, and churn risk. Uplift is min-max normalized in
// basis points across the whole candidate set; a constant uplift column
// normalizes to zero.
func ScoreCandidates(candidates []Candidate, w Weights) {
	if len(candidates) == 0 {
		return
	}

	minBps := candidates[0].Uplift.IncrementalRenewalRate * 10000.0
	maxBps := minBps
	for _, c := range candidates[1:] {
		bps := c.Uplift.IncrementalRenewalRate * 10000.0
		if bps < minBps {
			minBps = bps
		}
		if bps > maxBps {
			maxBps = bps
		}
	}
	span := maxBps - minBps

	for i := range candidates {
		c := &candidates[i]

		upliftNorm := 0.0
		if span != 0 {
			upliftNorm = (c.Uplift.IncrementalRenewalRate*10000.0 - minBps) / span
		}

		risk := 0.0
		if c.Member.ChurnRiskFlag {
			risk = 1.0
		}

		c.Score = w.Uplift*upliftNorm +
			w.Engagement*engagementScore(c.Member.EngagementBucket) +
			w.Risk*risk
	}
}

// engagementScore maps the engagement bucket onto [0, 1]; unknown
// buckets score as medium.
func engagementScore(bucket string) float64 {
	switch bucket {
	case dataset.EngagementLow:
		return 0.0
	case dataset.EngagementHigh:
		return 1.0
	default:
		return 0.5
	}
}

// RankRecos sorts candidates per member by descending score, keeps the
// top K per member, and materializes them as recommendation rows with
// explanations attached. Ties keep candidate order.
func RankRecos(candidates []Candidate, topK int) []dataset.Reco {
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].Member.MembershipNbr != candidates[b].Member.MembershipNbr {
			return candidates[a].Member.MembershipNbr < candidates[b].Member.MembershipNbr
		}
		return candidates[a].Score > candidates[b].Score
	})

	var recos []dataset.Reco
	var prevMember int64 = -1
	rank := int64(0)
	for _, c := range candidates {
		if c.Member.MembershipNbr != prevMember {
			prevMember = c.Member.MembershipNbr
			rank = 0
		}
		rank++
		if rank > int64(topK) {
			continue
		}

		r := dataset.Reco{
			MembershipNbr:          c.Member.MembershipNbr,
			PersonaID:              c.Member.PersonaID,
			TenureBucket:           c.Member.TenureBucket,
			EngagementBucket:       c.Member.EngagementBucket,
			ChurnRiskFlag:          c.Member.ChurnRiskFlag,
			EntityType:             c.Uplift.EntityType,
			EntityID:               c.Uplift.EntityID,
			EntityName:             c.Uplift.EntityName,
			NTestMatched:           c.Uplift.NTestMatched,
			NControlMatched:        c.Uplift.NControlMatched,
			TestRenewalRate:        c.Uplift.TestRenewalRate,
			ControlRenewalRate:     c.Uplift.ControlRenewalRate,
			IncrementalRenewalRate: c.Uplift.IncrementalRenewalRate,
			SegmentRank:            c.SegmentRank,
			Score:                  c.Score,
			MemberRank:             rank,
		}
		r.ExplanationShort = ShortExplanation(r)
		r.ExplanationLong = LongExplanation(r)
		recos = append(recos, r)
	}
	return recos
}
