// Command merge-results combines the snapshot units of one or more
// SQLite databases into a single store and finalizes the merged
// result. Positional arguments are snapshot database paths.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spectro-data/dimuon.report/internal/collection"
	"github.com/spectro-data/dimuon.report/internal/config"
	"github.com/spectro-data/dimuon.report/internal/finalize"
	"github.com/spectro-data/dimuon.report/internal/monitoring"
	"github.com/spectro-data/dimuon.report/internal/version"
)

func main() {
	configPath := flag.String("config", "", "JSON run configuration (optional)")
	outDir := flag.String("out", "merged", "Output directory for report and charts")
	name := flag.String("name", "merged", "Name of the merged store")
	saveDB := flag.String("save-db", "", "Save the merged store as one unit into this snapshot database (optional)")
	charts := flag.Bool("charts", true, "Write an HTML chart page")
	maxCharts := flag.Int("max-charts", 48, "Cap on charts rendered")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("merge-results %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	dbPaths := flag.Args()
	if len(dbPaths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: merge-results [flags] snapshot.db [snapshot.db ...]")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	merged, err := mergeDatabases(*name, dbPaths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "merge error: %v\n", err)
		os.Exit(1)
	}
	monitoring.Logf("[Merge] %d objects across %d paths after merging %d databases",
		merged.NumObjects(), len(merged.Paths()), len(dbPaths))

	if *saveDB != "" {
		store, err := collection.OpenStore(*saveDB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "snapshot error: %v\n", err)
			os.Exit(1)
		}
		id, err := store.Save("", merged)
		store.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "snapshot error: %v\n", err)
			os.Exit(1)
		}
		monitoring.Logf("[Merge] saved merged unit %s to %s", id, *saveDB)
	}

	if err := writeResults(merged, cfg, *outDir, *charts, *maxCharts); err != nil {
		fmt.Fprintf(os.Stderr, "finalize error: %v\n", err)
		os.Exit(1)
	}
}

func mergeDatabases(name string, dbPaths []string) (*collection.Collection, error) {
	merged := collection.New(name)
	for _, path := range dbPaths {
		store, err := collection.OpenStore(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		c, err := store.LoadMerged(name)
		store.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := merged.Merge(c); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return merged, nil
}

func writeResults(coll *collection.Collection, cfg *config.Config, outDir string, charts bool, maxCharts int) error {
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
		return res.WriteChartsHTML(filepath.Join(outDir, "results.html"), maxCharts)
	}
	return nil
}
