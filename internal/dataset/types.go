package dataset

// Tenure buckets, ordered from newest to longest-standing members.
var TenureBuckets = []string{"0-3m", "3-12m", "1-3y", "3y+"}

// Entity types that next-best-actions are defined over.
var EntityTypes = []string{"service", "category", "sub_category", "action"}

var (
	MembershipTiers = []string{"Club", "Plus"}
	MembershipTypes = []string{"Savings", "Business"}
)

// Engagement buckets derived from sales decile.
const (
	EngagementLow    = "low"
	EngagementMedium = "medium"
	EngagementHigh   = "high"
)

// Member is one membership account with its derived features.
type Member struct {
	MembershipNbr    int64
	PersonaID        int64
	TenureBucket     string
	MembershipTier   string
	MembershipType   string
	AutoRenewOptIn   bool
	SalesDecile      int64
	SalesCentile     int64
	TenureMonths     int64
	EngagementBucket string
	ChurnRiskFlag    bool
}

// UpliftRow is one row of the synthetic-control uplift summary at
// (persona, tenure bucket, entity) grain.
type UpliftRow struct {
	PersonaID              int64
	TenureBucket           string
	EntityType             string
	EntityID               int64
	EntityName             string
	NTestMatched           int64
	NControlMatched        int64
	TestRenewalRate        float64
	ControlRenewalRate     float64
	IncrementalRenewalRate float64
	IncrementalRank        int64
	UpliftMethod           string
}

// Support is the combined test and control sample size backing the row.
func (u UpliftRow) Support() int64 {
	return u.NTestMatched + u.NControlMatched
}

// Reco is one precomputed next-best-action for a member, ranked within
// that member's candidate set.
type Reco struct {
	MembershipNbr          int64
	PersonaID              int64
	TenureBucket           string
	EngagementBucket       string
	ChurnRiskFlag          bool
	EntityType             string
	EntityID               int64
	EntityName             string
	NTestMatched           int64
	NControlMatched        int64
	TestRenewalRate        float64
	ControlRenewalRate     float64
	IncrementalRenewalRate float64
	SegmentRank            int64
	Score                  float64
	MemberRank             int64
	ExplanationShort       string
	ExplanationLong        string
}

// Stats summarizes warehouse contents for the status command.
type Stats struct {
	Members int64
	Uplift  int64
	Recos   int64
}
