package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/form13f/pkg/models"
)

// LoadStats counts what a load kept and what it had to drop.
type LoadStats struct {
	Managers        int `json:"managers"`
	Filings         int `json:"filings"`
	Holdings        int `json:"holdings"`
	SkippedManagers int `json:"skippedManagers"`
	SkippedFilings  int `json:"skippedFilings"`
	SkippedRows     int `json:"skippedRows"`
}

// Load decodes a history payload. Malformed managers, filings and rows are
// skipped and counted; only unreadable input or invalid top-level JSON is
// an error.
func Load(r io.Reader, log *logrus.Logger) (*models.Dataset, LoadStats, error) {
	var ds models.Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, LoadStats{}, fmt.Errorf("decode history: %w", err)
	}
	stats := LoadStats{Managers: len(ds.Managers), SkippedManagers: ds.SkippedManagers}
	for _, m := range ds.Managers {
		stats.Filings += len(m.Filings)
		stats.SkippedFilings += m.SkippedFilings
		for _, f := range m.Filings {
			stats.Holdings += len(f.Holdings)
			stats.SkippedRows += f.SkippedRows
			if f.SkippedRows > 0 && log != nil {
				log.WithFields(logrus.Fields{
					"manager": m.ID,
					"quarter": f.Quarter,
					"skipped": f.SkippedRows,
				}).Warn("skipped malformed holdings")
			}
		}
		if m.SkippedFilings > 0 && log != nil {
			log.WithFields(logrus.Fields{"manager": m.ID, "skipped": m.SkippedFilings}).Warn("skipped malformed filings")
		}
	}
	if ds.SkippedManagers > 0 && log != nil {
		log.WithField("skipped", ds.SkippedManagers).Warn("skipped malformed managers")
	}
	return &ds, stats, nil
}

// LoadFile is Load for a file on disk.
func LoadFile(path string, log *logrus.Logger) (*models.Dataset, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open history %s: %w", path, err)
	}
	defer f.Close()
	ds, stats, err := Load(f, log)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	if log != nil {
		log.WithFields(logrus.Fields{
			"path":     path,
			"managers": stats.Managers,
			"filings":  stats.Filings,
			"holdings": stats.Holdings,
		}).Info("loaded 13F history")
	}
	return ds, stats, nil
}
