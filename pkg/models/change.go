package models

// Action classifies a quarter-over-quarter position change.
type Action string

const (
	ActionNew  Action = "New"
	ActionAdd  Action = "Add"
	ActionTrim Action = "Trim"
	ActionExit Action = "Exit"
)

// Direction returns +1 for buys (New, Add) and -1 for sells (Trim, Exit).
func (a Action) Direction() int {
	if a == ActionTrim || a == ActionExit {
		return -1
	}
	return 1
}

// RatioSource records which quantity a change ratio was computed from.
type RatioSource string

const (
	RatioShares RatioSource = "shares"
	RatioValue  RatioSource = "value"
	RatioNone   RatioSource = "none"
)

// ChangeRow is one classified position change between two snapshots.
// ChangeAmount is an estimated trade size; Delta carries its sign.
type ChangeRow struct {
	Key           string      `json:"key"`
	Ticker        string      `json:"ticker,omitempty"`
	Company       string      `json:"company"`
	SecurityClass string      `json:"securityClass,omitempty"`
	DisplayLabel  string      `json:"displayLabel"`
	Action        Action      `json:"action"`
	Delta         float64     `json:"delta"`
	Direction     int         `json:"direction"`
	ChangeAmount  float64     `json:"changeAmount"`
	ChangeRatio   *float64    `json:"changeRatio"`
	RatioSource   RatioSource `json:"ratioSource"`

	PreviousValue  float64  `json:"previousValue"`
	CurrentValue   float64  `json:"currentValue"`
	PreviousShares *float64 `json:"previousShares,omitempty"`
	CurrentShares  *float64 `json:"currentShares,omitempty"`
}
