// Command xrconvert converts raw XR motion datasets into per-recording
// delimited files with a common schema.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/xrmotion/internal/catalog"
	"github.com/banshee-data/xrmotion/internal/config"
	"github.com/banshee-data/xrmotion/internal/datasets"
	"github.com/banshee-data/xrmotion/internal/fsutil"
	"github.com/banshee-data/xrmotion/internal/output"
	"github.com/banshee-data/xrmotion/internal/pipeline"
	"github.com/banshee-data/xrmotion/internal/version"
)

type options struct {
	dataset     string
	in          string
	out         string
	format      string
	configPath  string
	catalogPath string
	workers     int
	plots       bool
	report      bool
	list        bool
	version     bool

	// set holds the names of flags given on the command line.
	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("xrconvert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.dataset, "dataset", "", "Dataset to convert, or 'all' ("+strings.Join(datasets.Names(), ", ")+")")
	fs.StringVar(&o.in, "in", "", "Raw dataset root (with -dataset all, one subdirectory per dataset)")
	fs.StringVar(&o.out, "out", "", "Output root")
	fs.StringVar(&o.format, "format", config.DefaultOutputFormat, "Output format: csv or tsv")
	fs.StringVar(&o.configPath, "config", "", "Conversion config JSON (defaults built in)")
	fs.StringVar(&o.catalogPath, "catalog", "", "SQLite catalog of runs and outcomes (disabled when empty)")
	fs.IntVar(&o.workers, "workers", config.DefaultWorkers, "Concurrent output writers")
	fs.BoolVar(&o.plots, "plots", false, "Write a trajectory PNG per recording under <out>/plots")
	fs.BoolVar(&o.report, "report", false, "Write an HTML run summary to <out>/summary.html")
	fs.BoolVar(&o.list, "list", false, "List dataset names and exit")
	fs.BoolVar(&o.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// loadConfig reads the config file, if any, and applies flags given on the
// command line over it.
func loadConfig(o *options) (*config.ConvertConfig, error) {
	cfg := config.DefaultConvertConfig()
	if o.configPath != "" {
		loaded, err := config.LoadConvertConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.set["format"] {
		cfg.OutputFormat = &o.format
	}
	if o.set["workers"] {
		cfg.Workers = &o.workers
	}
	if o.set["plots"] {
		cfg.WritePlots = &o.plots
	}
	if o.set["report"] {
		cfg.WriteReport = &o.report
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// selectDatasets resolves the -dataset flag to registered names.
func selectDatasets(name string) ([]string, error) {
	if name == "all" {
		return datasets.Names(), nil
	}
	for _, n := range datasets.Names() {
		if n == name {
			return []string{name}, nil
		}
	}
	if name == "" {
		return nil, errors.New("-dataset is required")
	}
	return nil, fmt.Errorf("unknown dataset %q (valid: all, %s)", name, strings.Join(datasets.Names(), ", "))
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if o.version {
		fmt.Println(version.String())
		return
	}
	if o.list {
		for _, n := range datasets.Names() {
			fmt.Println(n)
		}
		return
	}

	cfg, err := loadConfig(o)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	format, err := output.ParseFormat(cfg.GetOutputFormat())
	if err != nil {
		log.Fatal(err)
	}
	names, err := selectDatasets(o.dataset)
	if err != nil {
		log.Fatal(err)
	}
	if o.in == "" || o.out == "" {
		log.Fatal("-in and -out are required")
	}

	var cat *catalog.Catalog
	if o.catalogPath != "" {
		cat, err = catalog.Open(o.catalogPath)
		if err != nil {
			log.Fatalf("failed to open catalog: %v", err)
		}
		defer cat.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, name := range names {
		in, out := o.in, o.out
		if o.dataset == "all" {
			in, out = filepath.Join(o.in, name), filepath.Join(o.out, name)
			if _, err := os.Stat(in); err != nil {
				log.Printf("%s: no raw data at %s, skipping", name, in)
				continue
			}
		}
		ds, err := datasets.New(name, cfg.DatasetOptions())
		if err != nil {
			log.Fatal(err)
		}
		r := &pipeline.Runner{
			Dataset:             ds,
			Writer:              output.NewWriter(fsutil.OSFileSystem{}, out, format, cfg.GetPrecision()),
			Catalog:             cat,
			MinFrames:           cfg.GetMinFrames(),
			QuaternionTolerance: cfg.GetQuaternionTolerance(),
			Workers:             cfg.GetWorkers(),
		}
		if cfg.GetWritePlots() {
			r.PlotDir = filepath.Join(out, "plots")
		}
		if cfg.GetWriteReport() {
			r.ReportPath = filepath.Join(out, "summary.html")
		}

		summary, err := r.Run(ctx, in)
		if err != nil {
			log.Fatalf("%s: %v", name, err)
		}
		failed += summary.Failed
	}
	if failed > 0 {
		log.Printf("%d recordings failed to convert", failed)
	}
}
