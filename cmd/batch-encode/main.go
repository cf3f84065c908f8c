// Command batch-encode runs the encoder over every configured sequence and
// QP, a few processes at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/blockfeatures/internal/batch"
	"github.com/banshee-data/blockfeatures/internal/config"
	"github.com/banshee-data/blockfeatures/internal/fsutil"
	"github.com/banshee-data/blockfeatures/internal/version"
)

func main() {
	configPath := flag.String("config", "batch.json", "Path to the batch configuration JSON")
	frames := flag.Int("frames", 0, "Frames to encode per sequence (0 uses FramesToBeEncoded from each cfg)")
	workers := flag.Int("workers", 0, "Concurrent encoder processes (0 uses the config value)")
	dryRun := flag.Bool("dry-run", false, "Print the encoder commands without running them")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("batch-encode"))
		return
	}

	cfg, err := config.LoadBatchConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *frames > 0 {
		cfg.Frames = frames
	}
	if *workers > 0 {
		cfg.Workers = workers
	}

	fs := fsutil.OSFileSystem{}
	tasks, err := batch.Plan(cfg, fs, nil)
	if err != nil {
		log.Fatalf("plan: %v", err)
	}
	if len(tasks) == 0 {
		log.Fatalf("no tasks: none of the %d sequences has a usable cfg", len(cfg.Sequences))
	}

	d := batch.NewDriver(batch.DriverConfig{Batch: cfg, FS: fs})
	if *dryRun {
		for _, t := range tasks {
			c := d.Command(t)
			fmt.Printf("(cd %s && %s %s > %s)\n", c.Dir, c.Path, strings.Join(c.Args, " "), t.LogPath())
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting %d tasks on %d workers\n\n", len(tasks), cfg.GetWorkers())
	results := d.Run(ctx, tasks, func(r batch.Result) { fmt.Println(r) })

	ok, failed := batch.Summarise(results)
	fmt.Printf("\nDone: %d ok, %d failed\n", ok, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
