package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/seenimoa/form13f/internal/tables"
)

var (
	noteRe      = regexp.MustCompile(`\b(NOTES?|NT|DBCV|SDCV|DEBENTURES?|BONDS?)\b`)
	rateRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	yearRe      = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	shortDateRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/(\d{2})\b`)
	warrantRe   = regexp.MustCompile(`(?:^|[^A-Z0-9])(?:\*?(?:WTS?|WARRANTS?)|\*W|W EXP)(?:[^A-Z0-9]|$)`)
	unitRe      = regexp.MustCompile(`\bUNITS?\b`)
	preferredRe = regexp.MustCompile(`\b(PFD|PREF|PREFERRED|PRF)\b`)
	adrRe       = regexp.MustCompile(`\b(ADR|ADRS|ADS)\b`)
	letterRe    = regexp.MustCompile(`\b(?:CL|CLASS|SER|SERIES|COM)\s+(?:SER\s+)?([A-K])\b`)
)

// ClassTag extracts a short security-class tag from title-of-class text:
// notes (with rate and year), warrants (with expiry), units, preferred,
// ADRs and lettered share classes. Lettered classes of known tracking
// stock families carry the tracker name. Common stock yields "".
func ClassTag(t *tables.Tables, issuer, titleOfClass string) string {
	title := strings.ToUpper(strings.Join(strings.Fields(titleOfClass), " "))
	if title == "" {
		return ""
	}
	switch {
	case noteRe.MatchString(title):
		return withDetail("Note", rateDetail(title), yearDetail(title))
	case warrantRe.MatchString(title):
		if y := yearDetail(title); y != "" {
			return "Warrant exp " + y
		}
		return "Warrant"
	case unitRe.MatchString(title):
		return "Unit"
	case preferredRe.MatchString(title):
		return "Preferred"
	case adrRe.MatchString(title):
		return "ADR"
	}
	tracker := trackerName(t, issuer, title)
	letter := ""
	if m := letterRe.FindStringSubmatch(title); m != nil {
		letter = "Class " + m[1]
	}
	return withDetail(tracker, letter)
}

func trackerName(t *tables.Tables, issuer, title string) string {
	if t == nil {
		return ""
	}
	upperIssuer := strings.ToUpper(strings.TrimSpace(issuer))
	padded := " " + title + " "
	for _, ct := range t.ClassTrackers {
		if !strings.HasPrefix(upperIssuer, strings.ToUpper(ct.IssuerPrefix)) {
			continue
		}
		for _, n := range ct.SortedNames() {
			if strings.Contains(padded, " "+strings.ToUpper(n.Keyword)+" ") {
				return n.Name
			}
		}
	}
	return ""
}

func rateDetail(title string) string {
	m := rateRe.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func yearDetail(title string) string {
	if m := yearRe.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	if m := shortDateRe.FindStringSubmatch(title); m != nil {
		return "20" + m[1]
	}
	return ""
}

func withDetail(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
