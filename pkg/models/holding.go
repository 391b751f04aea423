package models

import "fmt"

// OtherKey is the key of the synthetic bucket that collapses small rows.
// It is excluded from top-3 weight, change rows, style profiles and heat.
const OtherKey = "Other"

// SourceSEC tags snapshots built from SEC 13F filings.
const SourceSEC = "sec"

// IdentityKind tags which field a holding's identity was taken from.
type IdentityKind int

const (
	IdentityNone IdentityKind = iota
	IdentityCode
	IdentityTicker
	IdentityIssuer
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityCode:
		return "code"
	case IdentityTicker:
		return "ticker"
	case IdentityIssuer:
		return "issuer"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler.
func (k IdentityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *IdentityKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "code":
		*k = IdentityCode
	case "ticker":
		*k = IdentityTicker
	case "issuer":
		*k = IdentityIssuer
	case "none", "":
		*k = IdentityNone
	default:
		return fmt.Errorf("unknown identity kind %q", string(b))
	}
	return nil
}

// HoldingIdentity is the stable identity of a holding row: by code, by
// resolved ticker, or by issuer text, in that priority.
type HoldingIdentity struct {
	Kind  IdentityKind `json:"kind"`
	Value string       `json:"value"`
}

// Key returns the row key.
func (id HoldingIdentity) Key() string {
	return id.Value
}

// IsZero reports whether no identity could be derived.
func (id HoldingIdentity) IsZero() bool {
	return id.Kind == IdentityNone || id.Value == ""
}

// NormalizedHolding is one display-ready row of a snapshot.
type NormalizedHolding struct {
	Key           string       `json:"key"`
	Identity      IdentityKind `json:"identity"`
	Code          string       `json:"code,omitempty"`
	Ticker        string       `json:"ticker,omitempty"`
	ResolvedBy    string       `json:"resolvedBy,omitempty"`
	Company       string       `json:"company"`
	SecurityClass string       `json:"securityClass,omitempty"`
	ClassTag      string       `json:"classTag,omitempty"`
	Weight        float64      `json:"weight"`
	Value         float64      `json:"value"`
	Shares        *float64     `json:"shares"`
	DisplayLabel  string       `json:"displayLabel"`
}

// IsOther reports whether h is the synthetic "Other" bucket.
func (h NormalizedHolding) IsOther() bool {
	return h.Key == OtherKey
}

// HasShares reports whether the filing carried a share count.
func (h NormalizedHolding) HasShares() bool {
	return h.Shares != nil
}

// Snapshot is the normalized holdings of one institution for one quarter.
// Holdings are sorted by value descending and keys are unique.
type Snapshot struct {
	ManagerID  string              `json:"managerId,omitempty"`
	Quarter    string              `json:"quarter"`
	Holdings   []NormalizedHolding `json:"holdings"`
	Total      float64             `json:"total"`
	Positions  int                 `json:"positions"`
	Top3Weight float64             `json:"top3Weight"`
	FilingDate string              `json:"filingDate"`
	ValueScale float64             `json:"valueScale"`
	Source     string              `json:"source"`
}

// Index returns the holdings keyed by Key.
func (s *Snapshot) Index() map[string]NormalizedHolding {
	if s == nil {
		return map[string]NormalizedHolding{}
	}
	out := make(map[string]NormalizedHolding, len(s.Holdings))
	for _, h := range s.Holdings {
		out[h.Key] = h
	}
	return out
}

// WeightSum returns the sum of holding weights.
func (s *Snapshot) WeightSum() float64 {
	var sum float64
	for _, h := range s.Holdings {
		sum += h.Weight
	}
	return sum
}
