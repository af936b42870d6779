package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	gfaview "github.com/gfaview/gfaview"
	"github.com/gfaview/gfaview/internal/gpu"
)

// config is the merged CLI configuration. Flags override values from
// the optional TOML config file.
type config struct {
	Layout string `toml:"layout"`
	Edges  string `toml:"edges"`
	Seqs   string `toml:"seqs"`
	Paths  string `toml:"paths"`
	Gff    string `toml:"gff"`
	Bed    string `toml:"bed"`

	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`

	ScaleMin float32 `toml:"scale_min"`
	ScaleMax float32 `toml:"scale_max"`

	NodeWidth float32 `toml:"node_width"`
	EdgeWidth float32 `toml:"edge_width"`
	Dark      bool    `toml:"dark"`
}

func defaultConfig() config {
	return config{
		Width:     1280,
		Height:    800,
		ScaleMin:  0.001,
		ScaleMax:  1000,
		NodeWidth: 20,
		EdgeWidth: 3,
	}
}

func newRootCmd() *cobra.Command {
	cfg := defaultConfig()
	var (
		cfgFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:           "gfaview",
		Short:         "Genome variation graph viewer",
		Long:          "gfaview renders pre-laid-out genome variation graphs and answers path and annotation queries over them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				}))
				gfaview.SetLogger(l)
				gpu.SetLogger(l)
			}
			if cfgFile == "" {
				return nil
			}
			// The file provides defaults; explicitly set flags win.
			fileCfg := defaultConfig()
			if _, err := toml.DecodeFile(cfgFile, &fileCfg); err != nil {
				return fmt.Errorf("config %s: %w", cfgFile, err)
			}
			mergeConfig(cmd, &cfg, fileCfg)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "TOML config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&cfg.Layout, "layout", "", "layout TSV file (index x y)")
	pf.StringVar(&cfg.Edges, "edges", "", "edge list TSV file (from to, oriented)")
	pf.StringVar(&cfg.Seqs, "seqs", "", "node sequence TSV file (id sequence)")
	pf.StringVar(&cfg.Paths, "paths", "", "path TSV file (name steps)")
	pf.StringVar(&cfg.Gff, "gff", "", "GFF3 annotation file")
	pf.StringVar(&cfg.Bed, "bed", "", "BED annotation file")
	pf.Uint32Var(&cfg.Width, "width", cfg.Width, "frame width in pixels")
	pf.Uint32Var(&cfg.Height, "height", cfg.Height, "frame height in pixels")
	pf.Float32Var(&cfg.ScaleMin, "scale-min", cfg.ScaleMin, "minimum view scale")
	pf.Float32Var(&cfg.ScaleMax, "scale-max", cfg.ScaleMax, "maximum view scale")
	pf.Float32Var(&cfg.NodeWidth, "node-width", cfg.NodeWidth, "node thickness in world units")
	pf.Float32Var(&cfg.EdgeWidth, "edge-width", cfg.EdgeWidth, "edge thickness in world units")
	pf.BoolVar(&cfg.Dark, "dark", false, "use the dark theme")

	root.AddCommand(newCheckCmd(&cfg))
	root.AddCommand(newStatsCmd(&cfg))
	root.AddCommand(newRenderCmd(&cfg))
	return root
}

// mergeConfig copies file values into cfg for every setting whose flag
// was not set on the command line.
func mergeConfig(cmd *cobra.Command, cfg *config, file config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if !set("layout") && file.Layout != "" {
		cfg.Layout = file.Layout
	}
	if !set("edges") && file.Edges != "" {
		cfg.Edges = file.Edges
	}
	if !set("seqs") && file.Seqs != "" {
		cfg.Seqs = file.Seqs
	}
	if !set("paths") && file.Paths != "" {
		cfg.Paths = file.Paths
	}
	if !set("gff") && file.Gff != "" {
		cfg.Gff = file.Gff
	}
	if !set("bed") && file.Bed != "" {
		cfg.Bed = file.Bed
	}
	if !set("width") {
		cfg.Width = file.Width
	}
	if !set("height") {
		cfg.Height = file.Height
	}
	if !set("scale-min") {
		cfg.ScaleMin = file.ScaleMin
	}
	if !set("scale-max") {
		cfg.ScaleMax = file.ScaleMax
	}
	if !set("node-width") {
		cfg.NodeWidth = file.NodeWidth
	}
	if !set("edge-width") {
		cfg.EdgeWidth = file.EdgeWidth
	}
	if !set("dark") {
		cfg.Dark = file.Dark
	}
}
