package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// EntitySpec declares how many entities of one type exist in the
// synthetic catalog.
type EntitySpec struct {
	Type  string
	Count int
}

// GenConfig controls the synthetic data generator.
type GenConfig struct {
	Seed      int64
	NMembers  int
	NPersonas int
	Entities  []EntitySpec
}

// DefaultGenConfig returns the generator defaults: a mid-sized member
// base over five personas and a modest entity catalog.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:      42,
		NMembers:  5000,
		NPersonas: 5,
		Entities: []EntitySpec{
			{Type: "service", Count: 8},
			{Type: "category", Count: 20},
			{Type: "sub_category", Count: 30},
			{Type: "action", Count: 12},
		},
	}
}

// tenure month ranges per bucket
var tenureRanges = map[string][2]int64{
	"0-3m":  {0, 3},
	"3-12m": {3, 12},
	"1-3y":  {12, 36},
	"3y+":   {36, 120},
}

// GenerateMembers produces a synthetic member base. Persona assignment
// is roughly balanced with a slight skew toward the first personas, and
// sales attributes are biased upward for long-tenure Plus members.
func GenerateMembers(cfg GenConfig, rng *rand.Rand) ([]Member, error) {
	if cfg.NMembers <= 0 || cfg.NPersonas <= 0 {
		return nil, fmt.Errorf("member and persona counts must be positive")
	}

	personaProbs := make([]float64, cfg.NPersonas)
	for i := range personaProbs {
		personaProbs[i] = 1.0
	}
	personaProbs[0] *= 1.2
	if cfg.NPersonas > 1 {
		personaProbs[1] *= 1.1
	}
	normalize(personaProbs)

	tenureProbs := []float64{0.15, 0.30, 0.30, 0.25}

	// Auto-renew opt-in probability rises with tenure.
	autoRenewProbs := map[string]float64{
		"0-3m":  0.4,
		"3-12m": 0.55,
		"1-3y":  0.7,
		"3y+":   0.8,
	}

	members := make([]Member, cfg.NMembers)
	for i := range members {
		m := &members[i]
		m.MembershipNbr = int64(i + 1)
		m.PersonaID = int64(sampleIndex(rng, personaProbs) + 1)
		m.TenureBucket = TenureBuckets[sampleIndex(rng, tenureProbs)]

		if rng.Float64() < 0.7 {
			m.MembershipTier = "Club"
		} else {
			m.MembershipTier = "Plus"
		}
		if rng.Float64() < 0.8 {
			m.MembershipType = "Savings"
		} else {
			m.MembershipType = "Business"
		}

		m.AutoRenewOptIn = rng.Float64() < autoRenewProbs[m.TenureBucket]

		m.SalesDecile = int64(rng.Intn(10) + 1)
		m.SalesCentile = int64(rng.Intn(100) + 1)

		// High-tenure Plus members skew toward higher spend.
		highTenure := m.TenureBucket == "1-3y" || m.TenureBucket == "3y+"
		if m.MembershipTier == "Plus" && highTenure {
			m.SalesDecile = min64(m.SalesDecile+int64(rng.Intn(2)+1), 10)
			m.SalesCentile = min64(m.SalesCentile+int64(rng.Intn(15)+5), 100)
		}

		r := tenureRanges[m.TenureBucket]
		m.TenureMonths = r[0] + int64(math.Round(rng.Float64()*float64(r[1]-r[0])))

		m.EngagementBucket = engagementBucket(m.SalesDecile)
		m.ChurnRiskFlag = churnRiskFlag(m.TenureMonths, m.AutoRenewOptIn, m.EngagementBucket)
	}

	log.Debug("Generated members", "count", len(members), "personas", cfg.NPersonas)
	return members, nil
}

// GenerateUplift produces the synthetic-control uplift summary at
// (persona, tenure bucket, entity) grain, with incremental_rank assigned
// within each (persona, tenure bucket, entity type) group.
func GenerateUplift(cfg GenConfig, rng *rand.Rand) ([]UpliftRow, error) {
	if cfg.NPersonas <= 0 {
		return nil, fmt.Errorf("persona count must be positive")
	}
	for _, spec := range cfg.Entities {
		if !contains(EntityTypes, spec.Type) {
			return nil, fmt.Errorf("unknown entity type %q", spec.Type)
		}
	}

	var uplift []UpliftRow
	for personaID := int64(1); personaID <= int64(cfg.NPersonas); personaID++ {
		for _, tb := range TenureBuckets {
			baseControl := baseControlRate(tb)

			// Some personas renew more easily.
			personaFactor := 1.0 + float64(personaID-3)*0.02
			baseControl = clamp(baseControl*personaFactor, 0.4, 0.98)

			for _, spec := range cfg.Entities {
				for eid := 1; eid <= spec.Count; eid++ {
					nTest, nControl := sampleSizes(rng, spec.Type)

					controlRate := clamp(rng.NormFloat64()*0.03+baseControl, 0.3, 0.99)
					delta := clamp(rng.NormFloat64()*0.015+0.01, -0.05, 0.08)
					testRate := clamp(controlRate+delta, 0.3, 0.995)

					uplift = append(uplift, UpliftRow{
						PersonaID:              personaID,
						TenureBucket:           tb,
						EntityType:             spec.Type,
						EntityID:               int64(eid),
						EntityName:             EntityName(spec.Type, int64(eid)),
						NTestMatched:           nTest,
						NControlMatched:        nControl,
						TestRenewalRate:        testRate,
						ControlRenewalRate:     controlRate,
						IncrementalRenewalRate: testRate - controlRate,
						UpliftMethod:           "synthetic_control",
					})
				}
			}
		}
	}

	assignIncrementalRanks(uplift)

	log.Debug("Generated uplift rows", "count", len(uplift))
	return uplift, nil
}

// EntityName builds the catalog display name for an entity.
func EntityName(entityType string, entityID int64) string {
	return fmt.Sprintf("%s_%03d", strings.ToUpper(entityType), entityID)
}

// engagementBucket maps sales decile to an engagement bucket:
// 1-3 low, 4-7 medium, 8-10 high.
func engagementBucket(salesDecile int64) string {
	switch {
	case salesDecile <= 3:
		return EngagementLow
	case salesDecile <= 7:
		return EngagementMedium
	default:
		return EngagementHigh
	}
}

// churnRiskFlag marks a member high risk only when short tenure, no
// auto-renew, and low engagement coincide.
func churnRiskFlag(tenureMonths int64, autoRenew bool, engagement string) bool {
	return tenureMonths < 12 && !autoRenew && engagement == EngagementLow
}

func baseControlRate(tenureBucket string) float64 {
	switch tenureBucket {
	case "0-3m":
		return 0.55
	case "3-12m":
		return 0.65
	case "1-3y":
		return 0.8
	default:
		return 0.9
	}
}

// sampleSizes draws matched test/control counts; high-traffic entity
// types get larger samples.
func sampleSizes(rng *rand.Rand, entityType string) (int64, int64) {
	var lo, hi int
	switch entityType {
	case "action":
		lo, hi = 500, 3000
	case "service":
		lo, hi = 2000, 8000
	case "category":
		lo, hi = 5000, 20000
	default: // sub_category
		lo, hi = 2000, 15000
	}
	return int64(lo + rng.Intn(hi-lo)), int64(lo + rng.Intn(hi-lo))
}

// assignIncrementalRanks ranks rows by descending uplift within each
// (persona, tenure bucket, entity type) group, first-come on ties.
func assignIncrementalRanks(uplift []UpliftRow) {
	type groupKey struct {
		personaID    int64
		tenureBucket string
		entityType   string
	}

	groups := make(map[groupKey][]int)
	for i, u := range uplift {
		k := groupKey{u.PersonaID, u.TenureBucket, u.EntityType}
		groups[k] = append(groups[k], i)
	}

	for _, idxs := range groups {
		sort.SliceStable(idxs, func(a, b int) bool {
			return uplift[idxs[a]].IncrementalRenewalRate > uplift[idxs[b]].IncrementalRenewalRate
		})
		for rank, i := range idxs {
			uplift[i].IncrementalRank = int64(rank + 1)
		}
	}
}

func sampleIndex(rng *rand.Rand, probs []float64) int {
	r := rng.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(probs) - 1
}

func normalize(probs []float64) {
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	for i := range probs {
		probs[i] /= sum
	}
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
