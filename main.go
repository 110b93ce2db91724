// Command relief traces line drawings into contour regions and extrudes
// the enabled regions into a voxel STL mesh.
//
// Usage:
//
//	relief [flags] run <script.relief>
//	relief [flags] extrude <image|contours.json>
//	relief [flags] rows <image|contours.json>
//	relief inspect <mesh.stl>
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/relief/pkg/config"
)

func main() {
	var (
		configPath string
		threshold  int
		minArea    float64
		cellSize   float64
		height     float64
		output     string
		kernelName string
		disable    string
		normals    bool
		stableIDs  bool
		noBase     bool
		noTop      bool
		debug      bool
	)

	flag.StringVar(&configPath, "config", "relief.json", "configuration file (missing file means defaults)")
	flag.IntVar(&threshold, "threshold", config.DefaultThreshold, "binarization threshold 0-255")
	flag.Float64Var(&minArea, "min-area", config.DefaultMinArea, "minimum effective region area")
	flag.Float64Var(&cellSize, "cell", config.DefaultCellSize, "grid cell size")
	flag.Float64Var(&height, "height", config.DefaultHeight, "extrusion height")
	flag.StringVar(&output, "out", config.DefaultOutput, "output STL path")
	flag.StringVar(&kernelName, "kernel", config.DefaultKernel, "membership backend: raster or sdfx")
	flag.StringVar(&disable, "disable", "", "comma-separated region ids to disable before extruding")
	flag.BoolVar(&normals, "normals", false, "write computed facet normals")
	flag.BoolVar(&stableIDs, "stable-ids", false, "carry region flags by contour fingerprint")
	flag.BoolVar(&noBase, "no-base", false, "omit the bottom face of every prism")
	flag.BoolVar(&noTop, "no-top", false, "omit the top face of every prism")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:", os.Args[0], "[flags] run <script> | extrude <input> | rows <input> | inspect <stl>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
	}
	cmd, arg := flag.Arg(0), flag.Arg(1)

	if cmd == "inspect" {
		info, err := Inspect(arg)
		if err != nil {
			fail(err)
		}
		printJSON(info)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fail(err)
	}

	// Flags given explicitly override the configuration file.
	var setErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "threshold":
			cfg.SetThreshold(threshold)
		case "min-area":
			cfg.SetMinArea(minArea)
		case "cell":
			setErr = firstErr(setErr, cfg.SetCellSize(cellSize))
		case "height":
			setErr = firstErr(setErr, cfg.SetHeight(height))
		case "out":
			cfg.Output = output
		case "kernel":
			cfg.Kernel = kernelName
		case "normals":
			cfg.Normals = normals
		case "stable-ids":
			cfg.StableIDs = stableIDs
		case "no-base":
			cfg.FillBase = !noBase
		case "no-top":
			cfg.FillTop = !noTop
		case "debug":
			cfg.Debug = debug
		}
	})
	if setErr != nil {
		fail(setErr)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(os.Stderr, level)

	app, err := NewApp(cfg, logger)
	if err != nil {
		fail(err)
	}

	switch cmd {
	case "run":
		src, err := os.ReadFile(arg)
		if err != nil {
			fail(err)
		}
		result := app.Evaluate(string(src), filepath.Dir(arg))
		printJSON(result)
		if len(result.Errors) > 0 {
			os.Exit(1)
		}

	case "extrude", "rows":
		if err := app.Open(arg); err != nil {
			fail(err)
		}
		ids, err := parseIDs(disable)
		if err != nil {
			fail(err)
		}
		for _, id := range ids {
			if !app.Session().Toggle(id, false) {
				logger.Warn("unknown region id", "id", id)
			}
		}
		if cmd == "rows" {
			printJSON(app.Session().Rows())
			return
		}
		mesh, err := app.Session().Export("")
		if err != nil {
			fail(err)
		}
		printJSON(ExportData{Path: cfg.Output, Triangles: mesh.TriangleCount()})

	default:
		flag.Usage()
	}
}

func parseIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad region id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func firstErr(prev, err error) error {
	if prev != nil {
		return prev
	}
	return err
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "relief:", err)
	os.Exit(1)
}
