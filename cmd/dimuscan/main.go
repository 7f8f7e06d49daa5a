// Command dimuscan runs the pair analysis over a JSONL event file,
// writes the finalized report, charts and plots, and optionally saves
// the raw accumulation store as a snapshot unit for later merging.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spectro-data/dimuon.report/internal/analysis"
	"github.com/spectro-data/dimuon.report/internal/collection"
	"github.com/spectro-data/dimuon.report/internal/config"
	"github.com/spectro-data/dimuon.report/internal/eventio"
	"github.com/spectro-data/dimuon.report/internal/finalize"
	"github.com/spectro-data/dimuon.report/internal/monitoring"
	"github.com/spectro-data/dimuon.report/internal/version"
)

func main() {
	eventsPath := flag.String("events", "", "JSONL event file to process (required)")
	configPath := flag.String("config", "", "JSON run configuration (optional)")
	outDir := flag.String("out", "results", "Output directory for report, charts and plots")
	dbPath := flag.String("db", "", "SQLite snapshot database to save the store into (optional)")
	unitID := flag.String("unit", "", "Snapshot unit ID (default: new UUID)")
	taskName := flag.String("name", "dimuon", "Processing unit name")
	pairTypes := flag.String("pair-types", "", "Comma-separated pair-type whitelist (overrides config)")
	cuts := flag.String("cuts", "", "Comma-separated tracklet distance cuts (overrides config)")
	charts := flag.Bool("charts", true, "Write an HTML chart page")
	plots := flag.Bool("plots", false, "Write PNG plots per projection")
	maxCharts := flag.Int("max-charts", 48, "Cap on charts/plots rendered")
	progress := flag.Int("progress", 10000, "Log progress every N events (0 disables)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dimuscan %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *eventsPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -events flag")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *pairTypes != "" {
		cfg.SelectedPairTypes = pairTypes
	}
	if *cuts != "" {
		parsed, err := parseCuts(*cuts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -cuts: %v\n", err)
			os.Exit(1)
		}
		cfg.TrackletDistCuts = parsed
	}

	task, err := analysis.NewTask(*taskName, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "task error: %v\n", err)
		os.Exit(1)
	}

	if err := runEvents(task, *eventsPath, *progress); err != nil {
		fmt.Fprintf(os.Stderr, "event loop error: %v\n", err)
		os.Exit(1)
	}
	monitoring.Logf("[Dimuscan] %d events read, %d selected",
		task.EventsSeen(), task.EventsSelected())

	if *dbPath != "" {
		if err := saveSnapshot(*dbPath, *unitID, task.Collection()); err != nil {
			fmt.Fprintf(os.Stderr, "snapshot error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := writeResults(task.Collection(), cfg, *outDir, *charts, *plots, *maxCharts); err != nil {
		fmt.Fprintf(os.Stderr, "finalize error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func parseCuts(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	cuts := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		cuts = append(cuts, v)
	}
	return cuts, nil
}

func runEvents(task *analysis.Task, path string, progress int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := eventio.NewReader(f)
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := task.Process(ev); err != nil {
			return err
		}
		if progress > 0 && task.EventsSeen()%progress == 0 {
			monitoring.Logf("[Dimuscan] processed %d events", task.EventsSeen())
		}
	}
}

func saveSnapshot(dbPath, unitID string, coll *collection.Collection) error {
	store, err := collection.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(unitID, coll)
	if err != nil {
		return err
	}
	monitoring.Logf("[Dimuscan] saved snapshot unit %s to %s", id, dbPath)
	return nil
}

func writeResults(coll *collection.Collection, cfg *config.Config, outDir string, charts, plots bool, maxCharts int) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	res, err := finalize.Run(coll, finalize.FromConfig(cfg))
	if err != nil {
		return err
	}

	if err := res.WriteReport(os.Stdout); err != nil {
		return err
	}
	reportFile, err := os.Create(filepath.Join(outDir, "report.txt"))
	if err != nil {
		return err
	}
	defer reportFile.Close()
	if err := res.WriteReport(reportFile); err != nil {
		return err
	}

	if charts {
		if err := res.WriteChartsHTML(filepath.Join(outDir, "results.html"), maxCharts); err != nil {
			return err
		}
	}
	if plots {
		if err := res.WritePlots(filepath.Join(outDir, "plots"), maxCharts); err != nil {
			return err
		}
	}
	return nil
}
