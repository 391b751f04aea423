package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seenimoa/form13f/internal/corpus"
	"github.com/seenimoa/form13f/pkg/models"
	"github.com/seenimoa/form13f/pkg/utils"
)

// --- Snapshot Command ---

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [manager] [quarter]",
	Short: "Print a normalized holdings snapshot (latest when quarter is omitted)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCorpus(cmd.Context())
		if err != nil {
			return err
		}
		var (
			snap *models.Snapshot
			ok   bool
		)
		if len(args) == 2 {
			snap, ok, err = c.Snapshot(args[0], args[1])
		} else {
			snap, ok, err = c.Latest(args[0])
		}
		if err != nil {
			return err
		}
		if !ok {
			return unavailable(args)
		}
		if asTable(cmd) {
			return printSnapshot(os.Stdout, snap)
		}
		return printJSON(os.Stdout, snap)
	},
}

// --- Changes Command ---

var changesCmd = &cobra.Command{
	Use:   "changes [manager] [quarter]",
	Short: "Print the change list against the preceding filed quarter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCorpus(cmd.Context())
		if err != nil {
			return err
		}
		cs, ok, err := c.Changes(args[0], args[1])
		if err != nil {
			return err
		}
		if !ok {
			return unavailable(args)
		}
		if asTable(cmd) {
			return printChanges(os.Stdout, cs)
		}
		return printJSON(os.Stdout, cs)
	},
}

// --- Style Command ---

var styleCmd = &cobra.Command{
	Use:   "style [manager] [quarter]",
	Short: "Print the sector style profile next to the benchmark",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCorpus(cmd.Context())
		if err != nil {
			return err
		}
		sv, ok, err := c.Style(args[0], args[1])
		if err != nil {
			return err
		}
		if !ok {
			return unavailable(args)
		}
		if asTable(cmd) {
			return printStyle(os.Stdout, sv)
		}
		return printJSON(os.Stdout, sv)
	},
}

// --- Heatmap Command ---

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Print the cross-institution holdings heatmap",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCorpus(cmd.Context())
		if err != nil {
			return err
		}
		entries := c.Heatmap()
		if asTable(cmd) {
			return printHeatmap(os.Stdout, entries)
		}
		return printJSON(os.Stdout, entries)
	},
}

// --- Resolve Command ---

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve one security identifier and show the rule that fired",
	Long: `Resolve a (code, ticker, issuer) triple exactly as snapshot building
does, using the override tables and the vote maps of the loaded history.

Examples:
  form13f resolve --code 037833100
  form13f resolve --issuer "BERKSHIRE HATHAWAY INC DEL"
  form13f resolve --issuer "TESLA INC" --no-history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, _ := cmd.Flags().GetString("code")
		ticker, _ := cmd.Flags().GetString("ticker")
		issuer, _ := cmd.Flags().GetString("issuer")
		if code == "" && ticker == "" && issuer == "" {
			return fmt.Errorf("provide at least one of --code, --ticker or --issuer")
		}

		var c *corpus.Corpus
		if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory {
			t, err := loadTables()
			if err != nil {
				return err
			}
			c = corpus.New(nil, t, cfg.CorpusOptions(), log)
		} else {
			var err error
			if c, err = loadCorpus(cmd.Context()); err != nil {
				return err
			}
		}

		res := c.Resolver().Resolve(code, ticker, issuer)
		if !res.Resolved() {
			fmt.Println("unresolved")
			return nil
		}
		fmt.Printf("%s\t(%s)\n", res.Ticker, res.Rule)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{snapshotCmd, changesCmd, styleCmd, heatmapCmd} {
		cmd.Flags().Bool("table", false, "print a table instead of JSON")
	}
	for _, cmd := range []*cobra.Command{snapshotCmd, changesCmd, heatmapCmd} {
		cmd.Flags().BoolVar(&exactValues, "exact", false, "print full dollar amounts in tables")
	}
	resolveCmd.Flags().String("code", "", "CUSIP-like security code")
	resolveCmd.Flags().String("ticker", "", "raw ticker field")
	resolveCmd.Flags().String("issuer", "", "issuer name as filed")
	resolveCmd.Flags().Bool("no-history", false, "use only the override tables, skip vote maps")
}

func asTable(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("table")
	return v
}

func unavailable(args []string) error {
	if len(args) == 2 {
		return fmt.Errorf("no data for %s in %s", args[0], args[1])
	}
	return fmt.Errorf("no filings for %s", args[0])
}

// exactValues prints full dollar amounts instead of short-scale ones.
var exactValues bool

// usd converts a snapshot value back to dollars for display.
func usd(v float64) string {
	unit := cfg.Normalize.ValueUnit
	if unit <= 0 {
		unit = 1
	}
	if exactValues {
		return utils.FormatUSD(v * unit)
	}
	return utils.FormatUSDCompact(v * unit)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSnapshot(w io.Writer, s *models.Snapshot) error {
	fmt.Fprintf(w, "%s %s  total %s  positions %d  top3 %.1f%%  weights %.1f%%\n\n",
		s.ManagerID, s.Quarter, usd(s.Total), s.Positions, s.Top3Weight*100, s.WeightSum()*100)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HOLDING\tTICKER\tVALUE\tWEIGHT\tSHARES")
	for _, h := range s.Holdings {
		shares := "-"
		if h.HasShares() {
			shares = utils.FormatShares(*h.Shares)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\t%s\n", h.DisplayLabel, h.Ticker, usd(h.Value), h.Weight*100, shares)
	}
	return tw.Flush()
}

func printChanges(w io.Writer, cs corpus.ChangeSet) error {
	fmt.Fprintf(w, "%s %s vs %s  adds %d  trims %d\n\n",
		cs.ManagerID, cs.Quarter, cs.PreviousQuarter, len(cs.Adds), len(cs.Trims))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HOLDING\tACTION\tAMOUNT\tRATIO\tSOURCE")
	for _, r := range cs.Rows {
		ratio := "-"
		if r.ChangeRatio != nil {
			ratio = utils.FormatPct(*r.ChangeRatio)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.DisplayLabel, r.Action, usd(r.ChangeAmount), ratio, r.RatioSource)
	}
	return tw.Flush()
}

func printStyle(w io.Writer, sv corpus.StyleView) error {
	fmt.Fprintf(w, "%s %s  radar cap %.3f gamma %.2f\n\n", sv.ManagerID, sv.Quarter, sv.Radar.Cap, sv.Radar.Gamma)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BUCKET\tPROFILE\tBENCHMARK")
	for _, b := range models.Buckets {
		fmt.Fprintf(tw, "%s\t%.1f%%\t%.1f%%\n", b, sv.Profile[b]*100, sv.Benchmark[b]*100)
	}
	return tw.Flush()
}

func printHeatmap(w io.Writer, entries []models.HeatEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HOLDING\tHEAT\tHOLDERS\tAVG WEIGHT\tVALUE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%.3f\t%d\t%.2f%%\t%s\n", e.Label, e.Heat, e.Institutions, e.AvgWeight*100, usd(e.Value))
	}
	return tw.Flush()
}
