package corpus

import (
	"sort"

	"github.com/seenimoa/form13f/pkg/models"
)

// betterFiling reports whether a should replace b as the filing kept for
// their shared quarter: larger total, then more holdings, then filed
// later, then amendment over original, then larger accession.
func betterFiling(a, b models.Filing) bool {
	if av, bv := a.TotalValueUSD.Float(), b.TotalValueUSD.Float(); av != bv {
		return av > bv
	}
	if ac, bc := a.HoldingsCount.Float(), b.HoldingsCount.Float(); ac != bc {
		return ac > bc
	}
	if a.FiledDate != b.FiledDate {
		return a.FiledDate > b.FiledDate
	}
	if a.IsAmendment() != b.IsAmendment() {
		return a.IsAmendment()
	}
	return a.Accession > b.Accession
}

// Dedupe keeps one filing per quarter and returns them in quarter order,
// along with the number of filings dropped. Filings whose quarter does not
// parse are dropped too.
func Dedupe(filings []models.Filing) ([]models.Filing, int) {
	best := make(map[string]models.Filing, len(filings))
	dropped := 0
	for _, f := range filings {
		parsed, ok := models.ParseQuarter(f.Quarter)
		if !ok {
			dropped++
			continue
		}
		q := parsed.String()
		f.Quarter = q
		cur, ok := best[q]
		if !ok {
			best[q] = f
			continue
		}
		dropped++
		if betterFiling(f, cur) {
			best[q] = f
		}
	}
	out := make([]models.Filing, 0, len(best))
	for _, f := range best {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return models.CompareQuarters(out[i].Quarter, out[j].Quarter) < 0
	})
	return out, dropped
}

// LatestFiling returns the most recent filing, ordered by quarter, report
// date, filed date and accession.
func LatestFiling(filings []models.Filing) (models.Filing, bool) {
	if len(filings) == 0 {
		return models.Filing{}, false
	}
	latest := filings[0]
	for _, f := range filings[1:] {
		if laterFiling(f, latest) {
			latest = f
		}
	}
	return latest, true
}

func laterFiling(a, b models.Filing) bool {
	if c := models.CompareQuarters(a.Quarter, b.Quarter); c != 0 {
		return c > 0
	}
	if a.ReportDate != b.ReportDate {
		return a.ReportDate > b.ReportDate
	}
	if a.FiledDate != b.FiledDate {
		return a.FiledDate > b.FiledDate
	}
	return a.Accession > b.Accession
}
