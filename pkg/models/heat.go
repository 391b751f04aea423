package models

// Holder is one institution's stake in a cross-institution heat entry.
type Holder struct {
	InstitutionID string  `json:"institutionId"`
	Value         float64 `json:"value"`
	Weight        float64 `json:"weight"`
}

// HeatEntry aggregates one security across institutions' latest snapshots.
type HeatEntry struct {
	Key          string   `json:"key"`
	Ticker       string   `json:"ticker,omitempty"`
	Company      string   `json:"company"`
	Label        string   `json:"label"`
	Value        float64  `json:"value"`
	WeightSum    float64  `json:"weightSum"`
	AvgWeight    float64  `json:"avgWeight"`
	Institutions int      `json:"institutions"`
	Holders      []Holder `json:"holders"`
	Heat         float64  `json:"heat"`
}
