// Package corpus assembles the normalization pipeline over a loaded 13F
// history: per-quarter de-duplication, value-scale detection, ticker vote
// maps, and the resolve -> build -> label stages behind each view.
//
// Everything derived from the corpus is built once in New and read-only
// afterwards, so a Corpus is safe for concurrent use.
package corpus

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/form13f/internal/changes"
	"github.com/seenimoa/form13f/internal/heatmap"
	"github.com/seenimoa/form13f/internal/labels"
	"github.com/seenimoa/form13f/internal/resolver"
	"github.com/seenimoa/form13f/internal/scale"
	"github.com/seenimoa/form13f/internal/snapshot"
	"github.com/seenimoa/form13f/internal/style"
	"github.com/seenimoa/form13f/internal/tables"
	"github.com/seenimoa/form13f/pkg/models"
)

// ErrManagerNotFound is returned for an unknown manager id.
var ErrManagerNotFound = fmt.Errorf("manager not found")

// Options bundles the tunables of every stage.
type Options struct {
	Scale    scale.Options
	Snapshot snapshot.Options
	Changes  changes.Options
	Heatmap  heatmap.Options
	// Gamma is the radar display exponent; zero means the default.
	Gamma float64
}

// ManagerInfo describes one institution without its filings.
type ManagerInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	Org           string   `json:"org,omitempty"`
	CIK           string   `json:"cik,omitempty"`
	Color         string   `json:"color,omitempty"`
	Quarters      []string `json:"quarters"`
	LatestQuarter string   `json:"latestQuarter,omitempty"`
	ScalePivot    string   `json:"scalePivot,omitempty"`
}

// Info summarizes the loaded corpus.
type Info struct {
	GeneratedAtUTC string   `json:"generatedAtUtc,omitempty"`
	Source         string   `json:"source,omitempty"`
	Quarters       []string `json:"quarters"`
	Managers       int      `json:"managers"`
	CodeVotes      int      `json:"codeVotes"`
	IssuerVotes    int      `json:"issuerVotes"`
}

// ChangeSet is the change list for one quarter transition.
type ChangeSet struct {
	ManagerID       string             `json:"managerId"`
	Quarter         string             `json:"quarter"`
	PreviousQuarter string             `json:"previousQuarter"`
	Rows            []models.ChangeRow `json:"rows"`
	Adds            []models.ChangeRow `json:"adds"`
	Trims           []models.ChangeRow `json:"trims"`
}

// StyleView pairs a snapshot's style profile with the benchmark and their
// radar-scaled forms.
type StyleView struct {
	ManagerID       string              `json:"managerId"`
	Quarter         string              `json:"quarter"`
	Profile         models.StyleProfile `json:"profile"`
	Benchmark       models.StyleProfile `json:"benchmark"`
	Radar           style.RadarScale    `json:"radar"`
	Scaled          models.StyleProfile `json:"scaled"`
	ScaledBenchmark models.StyleProfile `json:"scaledBenchmark"`
}

type manager struct {
	info      ManagerInfo
	filings   []models.Filing
	byQuarter map[string]int
}

// Corpus is a frozen, queryable 13F history.
type Corpus struct {
	opts       Options
	info       Info
	resolver   *resolver.Resolver
	builder    *snapshot.Builder
	engine     *changes.Engine
	classifier *style.Classifier

	managers []*manager
	byID     map[string]*manager

	radarOnce sync.Once
	radar     style.RadarScale
}

// New freezes ds into a Corpus. The dataset itself is not modified.
func New(ds *models.Dataset, t *tables.Tables, opts Options, log *logrus.Logger) *Corpus {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	c := &Corpus{
		opts:       opts,
		engine:     changes.New(opts.Changes),
		classifier: style.NewClassifier(t),
		byID:       map[string]*manager{},
	}
	if ds == nil {
		ds = &models.Dataset{}
	}

	grouped := map[string][]models.Filing{}
	var order []models.Manager
	for _, m := range ds.Managers {
		if _, seen := grouped[m.ID]; !seen {
			order = append(order, m)
		} else {
			log.WithField("manager", m.ID).Warn("duplicate manager id, merging filings")
		}
		grouped[m.ID] = append(grouped[m.ID], m.Filings...)
	}

	var all []models.Filing
	for _, m := range order {
		filings, dropped := Dedupe(grouped[m.ID])
		if dropped > 0 {
			log.WithFields(logrus.Fields{"manager": m.ID, "dropped": dropped}).Warn("dropped duplicate or undated filings")
		}
		det := scale.Detect(filings, opts.Scale)
		if det.Found() {
			log.WithFields(logrus.Fields{
				"manager": m.ID,
				"pivot":   det.PivotQuarter,
				"factor":  det.Factor,
			}).Info("detected value-scale discontinuity")
		}
		filings = scale.Apply(filings, det.Scales)

		st := &manager{
			info: ManagerInfo{
				ID:         m.ID,
				Name:       m.Name,
				Org:        m.Org,
				CIK:        m.CIK,
				Color:      m.Color,
				Quarters:   make([]string, 0, len(filings)),
				ScalePivot: det.PivotQuarter,
			},
			filings:   filings,
			byQuarter: make(map[string]int, len(filings)),
		}
		for i, f := range filings {
			st.byQuarter[f.Quarter] = i
			st.info.Quarters = append(st.info.Quarters, f.Quarter)
		}
		if latest, ok := LatestFiling(filings); ok {
			st.info.LatestQuarter = latest.Quarter
		}
		c.managers = append(c.managers, st)
		c.byID[m.ID] = st
		all = append(all, filings...)
	}

	idx := resolver.BuildIndexes(t, all)
	c.resolver = resolver.New(t, idx)
	c.builder = snapshot.NewBuilder(c.resolver, opts.Snapshot)

	codes, issuers := idx.Len()
	c.info = Info{
		GeneratedAtUTC: ds.GeneratedAtUTC,
		Source:         ds.Source,
		Quarters:       corpusQuarters(ds.Quarters, c.managers),
		Managers:       len(c.managers),
		CodeVotes:      codes,
		IssuerVotes:    issuers,
	}
	log.WithFields(logrus.Fields{
		"managers":     c.info.Managers,
		"code_votes":   codes,
		"issuer_votes": issuers,
	}).Debug("corpus frozen")
	return c
}

func corpusQuarters(declared []string, managers []*manager) []string {
	set := map[string]struct{}{}
	for _, q := range declared {
		if p, ok := models.ParseQuarter(q); ok {
			set[p.String()] = struct{}{}
		}
	}
	for _, m := range managers {
		for _, q := range m.info.Quarters {
			set[q] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for q := range set {
		out = append(out, q)
	}
	models.SortQuarters(out)
	return out
}

// Info returns corpus metadata.
func (c *Corpus) Info() Info { return c.info }

// Resolver returns the resolver built over the corpus vote maps.
func (c *Corpus) Resolver() *resolver.Resolver { return c.resolver }

// Classifier returns the style classifier.
func (c *Corpus) Classifier() *style.Classifier { return c.classifier }

// Managers lists every institution in load order.
func (c *Corpus) Managers() []ManagerInfo {
	out := make([]ManagerInfo, 0, len(c.managers))
	for _, m := range c.managers {
		out = append(out, m.info)
	}
	return out
}

// Manager returns one institution.
func (c *Corpus) Manager(id string) (ManagerInfo, error) {
	m, err := c.lookup(id)
	if err != nil {
		return ManagerInfo{}, err
	}
	return m.info, nil
}

// Quarters lists the quarters an institution filed for, oldest first.
func (c *Corpus) Quarters(id string) ([]string, error) {
	m, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), m.info.Quarters...), nil
}

func (c *Corpus) lookup(id string) (*manager, error) {
	m, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrManagerNotFound, id)
	}
	return m, nil
}

func (m *manager) filing(quarter string) (models.Filing, int, bool) {
	q, ok := models.ParseQuarter(quarter)
	if !ok {
		return models.Filing{}, -1, false
	}
	i, ok := m.byQuarter[q.String()]
	if !ok {
		return models.Filing{}, -1, false
	}
	return m.filings[i], i, true
}

func (c *Corpus) build(m *manager, f models.Filing) *models.Snapshot {
	snap := c.builder.Build(f, f.Scale())
	snap.ManagerID = m.info.ID
	labels.Assign(snap.Holdings)
	return snap
}

// Snapshot returns the normalized snapshot of one quarter. ok is false
// when the institution has no filing for it.
func (c *Corpus) Snapshot(id, quarter string) (*models.Snapshot, bool, error) {
	m, err := c.lookup(id)
	if err != nil {
		return nil, false, err
	}
	f, _, ok := m.filing(quarter)
	if !ok {
		return nil, false, nil
	}
	return c.build(m, f), true, nil
}

// Latest returns the snapshot of the institution's most recent filing.
func (c *Corpus) Latest(id string) (*models.Snapshot, bool, error) {
	m, err := c.lookup(id)
	if err != nil {
		return nil, false, err
	}
	f, ok := LatestFiling(m.filings)
	if !ok {
		return nil, false, nil
	}
	return c.build(m, f), true, nil
}

// Changes compares a quarter with the institution's preceding filing. ok
// is false when the quarter is missing or has no predecessor.
func (c *Corpus) Changes(id, quarter string) (ChangeSet, bool, error) {
	m, err := c.lookup(id)
	if err != nil {
		return ChangeSet{}, false, err
	}
	f, i, ok := m.filing(quarter)
	if !ok || i == 0 {
		return ChangeSet{}, false, nil
	}
	prevFiling := m.filings[i-1]
	rows := c.engine.Compute(c.build(m, f), c.build(m, prevFiling))
	adds, trims := changes.Split(rows)
	return ChangeSet{
		ManagerID:       id,
		Quarter:         f.Quarter,
		PreviousQuarter: prevFiling.Quarter,
		Rows:            rows,
		Adds:            adds,
		Trims:           trims,
	}, true, nil
}

// Style returns the style profile of one quarter with its radar scaling.
func (c *Corpus) Style(id, quarter string) (StyleView, bool, error) {
	snap, ok, err := c.Snapshot(id, quarter)
	if err != nil || !ok {
		return StyleView{}, ok, err
	}
	profile := c.classifier.Profile(snap.Holdings)
	bench := c.classifier.Benchmark()
	radar := c.Radar()
	return StyleView{
		ManagerID:       id,
		Quarter:         snap.Quarter,
		Profile:         profile,
		Benchmark:       bench,
		Radar:           radar,
		Scaled:          radar.Scale(profile),
		ScaledBenchmark: radar.Scale(bench),
	}, true, nil
}

// Benchmark returns the static reference profile.
func (c *Corpus) Benchmark() models.StyleProfile {
	return c.classifier.Benchmark()
}

// Radar returns the display scale shared by every profile in the corpus.
// The cap covers every snapshot's profile and the benchmark; it is
// computed on first use.
func (c *Corpus) Radar() style.RadarScale {
	c.radarOnce.Do(func() {
		profiles := []models.StyleProfile{c.classifier.Benchmark()}
		for _, m := range c.managers {
			for _, f := range m.filings {
				profiles = append(profiles, c.classifier.Profile(c.build(m, f).Holdings))
			}
		}
		c.radar = style.NewRadarScale(c.opts.Gamma, profiles...)
	})
	return c.radar
}

// Heatmap ranks holdings across every institution's latest snapshot.
func (c *Corpus) Heatmap() []models.HeatEntry {
	inputs := make([]heatmap.Input, 0, len(c.managers))
	for _, m := range c.managers {
		f, ok := LatestFiling(m.filings)
		if !ok {
			continue
		}
		inputs = append(inputs, heatmap.Input{InstitutionID: m.info.ID, Snapshot: c.build(m, f)})
	}
	return heatmap.Aggregate(inputs, c.opts.Heatmap)
}

// LatestAll returns every institution's latest snapshot keyed by id.
func (c *Corpus) LatestAll() map[string]*models.Snapshot {
	out := make(map[string]*models.Snapshot, len(c.managers))
	for _, m := range c.managers {
		if f, ok := LatestFiling(m.filings); ok {
			out[m.info.ID] = c.build(m, f)
		}
	}
	return out
}

// ManagerIDs returns the sorted manager ids.
func (c *Corpus) ManagerIDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
