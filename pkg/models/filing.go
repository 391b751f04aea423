package models

import (
	"encoding/json"
	"strings"
)

// --- SEC 13F input payload ---

// RawHolding is one information-table row as filed.
type RawHolding struct {
	Code         string `json:"code"`
	CUSIP        string `json:"cusip,omitempty"`
	Issuer       string `json:"issuer"`
	TitleOfClass string `json:"title_of_class"`
	Ticker       string `json:"ticker,omitempty"`
	ValueUSD     Number `json:"value_usd"`
	Shares       Number `json:"shares"`
	Weight       Number `json:"weight"`
}

// ReportedCode returns the row's code, falling back to the CUSIP.
func (h RawHolding) ReportedCode() string {
	if c := strings.TrimSpace(h.Code); c != "" {
		return c
	}
	return strings.TrimSpace(h.CUSIP)
}

// IdentifierCode returns the reported code, falling back to the issuer
// text the way the filing parser does.
func (h RawHolding) IdentifierCode() string {
	if c := h.ReportedCode(); c != "" {
		return c
	}
	return strings.TrimSpace(h.Issuer)
}

// Filing is one institution's 13F report for one quarter.
type Filing struct {
	Quarter       string       `json:"quarter"`
	ReportDate    string       `json:"report_date,omitempty"`
	FiledDate     string       `json:"filed_date"`
	Form          string       `json:"form,omitempty"`
	Accession     string       `json:"accession,omitempty"`
	TotalValueUSD Number       `json:"total_value_usd"`
	HoldingsCount Number       `json:"holdings_count"`
	Holdings      []RawHolding `json:"holdings"`

	// ValueScale is derived by value-scale detection; zero means unset (1).
	ValueScale float64 `json:"value_scale,omitempty"`

	// SkippedRows counts holdings dropped while decoding.
	SkippedRows int `json:"-"`
}

// IsAmendment reports whether the filing is a 13F-HR/A.
func (f Filing) IsAmendment() bool {
	return strings.HasSuffix(strings.ToUpper(f.Form), "/A")
}

// Scale returns the effective value multiplier.
func (f Filing) Scale() float64 {
	if f.ValueScale <= 0 {
		return 1
	}
	return f.ValueScale
}

type filingAlias Filing

// UnmarshalJSON decodes a filing, tolerating a missing or malformed
// holdings array and skipping rows that cannot be decoded.
func (f *Filing) UnmarshalJSON(b []byte) error {
	aux := struct {
		*filingAlias
		Holdings json.RawMessage `json:"holdings"`
	}{filingAlias: (*filingAlias)(f)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	f.Holdings, f.SkippedRows = decodeHoldings(aux.Holdings)
	return nil
}

func decodeHoldings(raw json.RawMessage) ([]RawHolding, int) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, 0
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, 1
	}
	out := make([]RawHolding, 0, len(elems))
	skipped := 0
	for _, e := range elems {
		var h RawHolding
		if err := json.Unmarshal(e, &h); err != nil {
			skipped++
			continue
		}
		if h.IdentifierCode() == "" {
			skipped++
			continue
		}
		out = append(out, h)
	}
	return out, skipped
}

// Manager is one institution and its filing history.
type Manager struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Org     string   `json:"org,omitempty"`
	CIK     string   `json:"cik,omitempty"`
	Color   string   `json:"color,omitempty"`
	Filings []Filing `json:"filings"`

	// SkippedFilings counts filings dropped while decoding.
	SkippedFilings int `json:"-"`
}

type managerAlias Manager

// UnmarshalJSON accepts numeric CIKs and skips undecodable filings.
func (m *Manager) UnmarshalJSON(b []byte) error {
	aux := struct {
		*managerAlias
		CIK     json.RawMessage `json:"cik"`
		Filings json.RawMessage `json:"filings"`
	}{managerAlias: (*managerAlias)(m)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	m.CIK = flexString(aux.CIK)
	m.Filings = nil
	var elems []json.RawMessage
	if s := strings.TrimSpace(string(aux.Filings)); s != "" && s != "null" {
		if err := json.Unmarshal(aux.Filings, &elems); err != nil {
			m.SkippedFilings++
		}
	}
	for _, raw := range elems {
		var f Filing
		if err := json.Unmarshal(raw, &f); err != nil {
			m.SkippedFilings++
			continue
		}
		m.Filings = append(m.Filings, f)
	}
	return nil
}

// Dataset is the full history payload produced by the fetch pipeline.
type Dataset struct {
	GeneratedAtUTC string    `json:"generated_at_utc,omitempty"`
	Source         string    `json:"source,omitempty"`
	Quarters       []string  `json:"quarters,omitempty"`
	Managers       []Manager `json:"managers"`

	// SkippedManagers counts managers dropped while decoding.
	SkippedManagers int `json:"-"`
}

type datasetAlias Dataset

// UnmarshalJSON skips managers that cannot be decoded or carry no id.
func (d *Dataset) UnmarshalJSON(b []byte) error {
	aux := struct {
		*datasetAlias
		Managers json.RawMessage `json:"managers"`
	}{datasetAlias: (*datasetAlias)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	d.Managers = nil
	var elems []json.RawMessage
	if s := strings.TrimSpace(string(aux.Managers)); s == "" || s == "null" {
		return nil
	}
	if err := json.Unmarshal(aux.Managers, &elems); err != nil {
		d.SkippedManagers++
		return nil
	}
	for _, raw := range elems {
		var m Manager
		if err := json.Unmarshal(raw, &m); err != nil || strings.TrimSpace(m.ID) == "" {
			d.SkippedManagers++
			continue
		}
		d.Managers = append(d.Managers, m)
	}
	return nil
}
