// Command dataset-report summarises the decision labels in a directory of
// collected datasets as PNG charts and an HTML page.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/blockfeatures/internal/config"
	"github.com/banshee-data/blockfeatures/internal/datasetdb"
	"github.com/banshee-data/blockfeatures/internal/datasetreport"
	"github.com/banshee-data/blockfeatures/internal/featurelog"
	"github.com/banshee-data/blockfeatures/internal/fsutil"
	"github.com/banshee-data/blockfeatures/internal/security"
	"github.com/banshee-data/blockfeatures/internal/version"
)

func main() {
	configPath := flag.String("config", "", "Optional report configuration JSON")
	datasetDir := flag.String("datasets", "", "Dataset directory (overrides config)")
	outputDir := flag.String("out", "", "Report output directory (overrides config)")
	manifest := flag.String("manifest", "", "Optional SQLite manifest to list flush runs from")
	restoreDir := flag.String("restore", "", "With -manifest, rewrite the latest flush of every dataset as CSV files into this directory")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("dataset-report"))
		return
	}

	cfg := &config.ReportConfig{}
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadReportConfig(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *datasetDir != "" {
		cfg.DatasetDir = datasetDir
	}
	if *outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if err := security.ValidateExportPath(cfg.GetOutputDir()); err != nil {
		log.Fatalf("invalid output dir: %v", err)
	}

	res, err := datasetreport.Generate(cfg, fsutil.OSFileSystem{}, nil)
	if err != nil {
		log.Fatalf("report: %v", err)
	}
	for _, b := range res.Summary.Buckets {
		fmt.Printf("%-8s rows=%-6d", b.Bucket, b.Total)
		for _, t := range b.Tags() {
			fmt.Printf(" %s=%d", t, b.Counts[t])
		}
		fmt.Println()
	}
	for _, p := range res.PNGs {
		fmt.Println("wrote", p)
	}
	if res.HTML != "" {
		fmt.Println("wrote", res.HTML)
	}

	if *manifest != "" {
		printManifest(*manifest, *restoreDir)
	} else if *restoreDir != "" {
		log.Fatalf("-restore needs -manifest")
	}
}

func printManifest(path, restoreDir string) {
	store, err := datasetdb.Open(datasetdb.Config{Path: path})
	if err != nil {
		log.Fatalf("open manifest: %v", err)
	}
	defer store.Close()

	m, err := datasetreport.LoadManifest(store)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}
	fmt.Printf("\n%s: schema v%d, %d flush runs\n", path, m.SchemaVersion, m.Runs)
	for _, lr := range m.Latest {
		r := lr.Run
		fmt.Printf("%s qp=%d runs=%d latest=%s (%s)\n",
			r.Dataset, r.QP, lr.Runs, r.TakenAt.Format("2006-01-02 15:04:05"), r.ID)
		for _, b := range lr.Buckets {
			fmt.Printf("  %-8s sampled=%-6d", b.Bucket, b.Total)
			for _, t := range b.Tags() {
				fmt.Printf(" %s=%d", t, b.Counts[t])
			}
			fmt.Println()
		}
	}

	if restoreDir == "" {
		return
	}
	if err := security.ValidateExportPath(restoreDir); err != nil {
		log.Fatalf("invalid restore dir: %v", err)
	}
	sink := featurelog.NewCSVSink(restoreDir, fsutil.OSFileSystem{})
	for _, lr := range m.Latest {
		if err := datasetreport.RestoreRun(store, lr.Run, sink); err != nil {
			log.Fatalf("restore: %v", err)
		}
	}
	fmt.Printf("restored %d datasets into %s\n", len(m.Latest), restoreDir)
}
