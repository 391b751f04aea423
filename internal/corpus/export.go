package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/form13f/pkg/models"
)

// QuarterExport is the flat JSON document written per manager and quarter.
type QuarterExport struct {
	Snapshot *models.Snapshot `json:"snapshot"`
	Changes  *ChangeSet       `json:"changes"`
	Style    StyleView        `json:"style"`
}

// ExportStats reports what Export wrote.
type ExportStats struct {
	Managers int `json:"managers"`
	Files    int `json:"files"`
}

// Export writes <dir>/<manager>/<quarter>.json for every filing, plus
// <dir>/latest.json and <dir>/heatmap.json. Managers are written
// concurrently, at most concurrency at a time. Ids that map to the same
// directory name get a numeric suffix ("a_b", "a_b-2").
func Export(ctx context.Context, c *Corpus, dir string, concurrency int, log *logrus.Logger) (ExportStats, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportStats{}, fmt.Errorf("create output dir: %w", err)
	}

	var files atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	ids := c.ManagerIDs()
	dirs := dirNames(ids)
	for _, id := range ids {
		m := c.byID[id]
		mdir := filepath.Join(dir, dirs[id])
		g.Go(func() error {
			n, err := c.exportManager(gctx, m, mdir)
			if err != nil {
				return fmt.Errorf("export %s: %w", m.info.ID, err)
			}
			files.Add(int64(n))
			if log != nil {
				log.WithFields(logrus.Fields{"manager": m.info.ID, "files": n}).Debug("exported manager")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ExportStats{}, err
	}

	if err := writeJSON(filepath.Join(dir, "latest.json"), c.LatestAll()); err != nil {
		return ExportStats{}, err
	}
	if err := writeJSON(filepath.Join(dir, "heatmap.json"), c.Heatmap()); err != nil {
		return ExportStats{}, err
	}
	stats := ExportStats{Managers: len(c.managers), Files: int(files.Load()) + 2}
	if log != nil {
		log.WithFields(logrus.Fields{"dir": dir, "managers": stats.Managers, "files": stats.Files}).Info("export complete")
	}
	return stats, nil
}

func (c *Corpus) exportManager(ctx context.Context, m *manager, mdir string) (int, error) {
	if err := os.MkdirAll(mdir, 0o755); err != nil {
		return 0, err
	}
	n := 0
	for _, f := range m.filings {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		snap, _, err := c.Snapshot(m.info.ID, f.Quarter)
		if err != nil {
			return n, err
		}
		cs, hasChanges, err := c.Changes(m.info.ID, f.Quarter)
		if err != nil {
			return n, err
		}
		sv, _, err := c.Style(m.info.ID, f.Quarter)
		if err != nil {
			return n, err
		}
		doc := QuarterExport{Snapshot: snap, Style: sv}
		if hasChanges {
			doc.Changes = &cs
		}
		if err := writeJSON(filepath.Join(mdir, f.Quarter+".json"), doc); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// dirNames assigns each id a distinct directory name. ids must be sorted
// so the assignment is stable across runs.
func dirNames(ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	used := make(map[string]bool, len(ids))
	for _, id := range ids {
		base := safeName(id)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[strings.ToLower(name)] = true
		out[id] = name
	}
	return out
}

// safeName keeps manager ids usable as directory names.
func safeName(id string) string {
	out := []rune(id)
	for i, r := range out {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			out[i] = '_'
		}
	}
	if s := string(out); s != "" && s != "." && s != ".." {
		return s
	}
	return "_"
}
