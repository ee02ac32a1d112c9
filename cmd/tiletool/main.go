// tiletool is a CLI utility for inspecting and editing tile layers.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-tiles/internal/config"
	"github.com/Faultbox/midgard-tiles/internal/logger"
	"github.com/Faultbox/midgard-tiles/pkg/formats"
	"github.com/Faultbox/midgard-tiles/pkg/navigation"
	"github.com/Faultbox/midgard-tiles/pkg/tilemap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "render", "show":
		cmdRender(args)
	case "edit":
		cmdEdit(args)
	case "path":
		cmdPath(args)
	case "save":
		cmdSave(args)
	case "load":
		cmdLoad(args)
	case "list", "ls":
		cmdList(args)
	case "delete", "rm":
		cmdDelete(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tiletool - tile layer utility

Usage:
  tiletool <command> [options] <args>

Commands:
  info <seed>                          Show layer information
  render [-faces] <seed>               Draw the collision map as text
  edit -op <op> [rect] <seed>          Fill, swap, replace, randomize or shuffle
  path <seed> <sx> <sy> <gx> <gy>      Find a path between two cells
  save [-name n] <seed>                Store a seed in the database
  load [-o file] <name>                Export a stored seed
  list                                 List stored seeds
  delete <name>                        Remove a stored seed

Seeds are .gat, .yaml or .yml files. Every command accepts -config, -debug,
-log-file and -db.

Examples:
  tiletool info prontera.gat
  tiletool render -faces maze.yaml
  tiletool edit -op fill -index 1 -x 2 -y 2 -w 4 -h 4 -o out.yaml maze.yaml
  tiletool path maze.yaml 0 0 9 9
  tiletool save -name prontera prontera.gat`)
}

// setup parses a subcommand's flags and initializes config and logging.
func setup(fs *flag.FlagSet, args []string) *config.Config {
	overrides := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.LoadWithOverrides(overrides)
	if err != nil {
		fatalf("%v", err)
	}

	opts := logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: cfg.Logging.Console,
	}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.Init(opts); err != nil {
		fatalf("initializing logger: %v", err)
	}
	return cfg
}

// openLayer loads a seed file into a fresh tilemap with the configured
// roles and collision rules installed.
func openLayer(cfg *config.Config, path string, mapOpts ...tilemap.Option) (*tilemap.Tilemap, *tilemap.Layer) {
	seed, err := formats.LoadSeedFile(path)
	if err != nil {
		fatalf("%v", err)
	}
	cfg.SeedDefaults(&seed)

	layer, err := tilemap.NewLayer(seed, tilemap.WithLogger(logger.Named("layer")))
	if err != nil {
		fatalf("%v", err)
	}
	if err := cfg.ApplyTo(layer); err != nil {
		fatalf("%v", err)
	}

	mapOpts = append(mapOpts, tilemap.WithMapLogger(logger.Named("tilemap")))
	m := tilemap.New(mapOpts...)
	if err := m.AddLayer(layer); err != nil {
		fatalf("%v", err)
	}

	logger.Log.Debug("layer loaded",
		zap.String("path", path),
		zap.Int("width", layer.Width()),
		zap.Int("height", layer.Height()),
		zap.Int("tiles", layer.Count()))
	return m, layer
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	logger.Sync()
	os.Exit(1)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tiletool info <seed>")
		os.Exit(1)
	}

	_, layer := openLayer(cfg, fs.Arg(0))

	all := tilemap.Rect{Width: layer.Width(), Height: layer.Height()}
	colliding := layer.ExistingTiles(all, nil, tilemap.CollideAll)
	faced := layer.ExistingTiles(all, nil, tilemap.FaceAll)

	fmt.Printf("Layer:     %s\n", layer.Name())
	fmt.Printf("Size:      %dx%d cells\n", layer.Width(), layer.Height())
	fmt.Printf("Tile size: %dx%d\n", layer.TileWidth(), layer.TileHeight())
	fmt.Printf("Tiles:     %d\n", layer.Count())
	fmt.Printf("Colliding: %d\n", len(colliding))
	fmt.Printf("Faced:     %d\n", len(faced))

	if roles := layer.Roles(); len(roles) > 0 {
		names := make([]string, len(roles))
		for i, r := range roles {
			names[i] = r.Name
		}
		fmt.Printf("Roles:     %s\n", strings.Join(names, ", "))
	}

	counts := make(map[int]int)
	for _, t := range layer.Tiles(all, nil, false, false) {
		if t != nil && t.Exists() {
			counts[t.Index()]++
		}
	}
	indexes := make([]int, 0, len(counts))
	for idx := range counts {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	fmt.Println()
	fmt.Println("Tiles by index:")
	for _, idx := range indexes {
		collide := ""
		if r := layer.IndexRule(idx); r != nil && r.HasDefaultCollide {
			collide = "  collide=" + r.DefaultCollide.String()
		}
		fmt.Printf("  %-6d %d%s\n", idx, counts[idx], collide)
	}
}

func cmdRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	faces := fs.Bool("faces", false, "Show face bits of colliding tiles as hex digits")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: tiletool render [-faces] <seed>")
		os.Exit(1)
	}

	_, layer := openLayer(cfg, fs.Arg(0))
	fmt.Print(renderLayer(layer, *faces, nil))
}

// renderLayer draws one character per cell: ' ' empty, '.' open, '#' fully
// colliding, '+' partially colliding. With faces set, colliding cells show
// their face bits as a hex digit instead. Cells in marks are drawn as '*'.
func renderLayer(layer *tilemap.Layer, faces bool, marks map[[2]int]bool) string {
	var sb strings.Builder
	for y := 0; y < layer.Height(); y++ {
		for x := 0; x < layer.Width(); x++ {
			sb.WriteByte(cellChar(layer.TileRef(x, y), faces, marks[[2]int{x, y}]))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cellChar(t *tilemap.Tile, faces, marked bool) byte {
	switch {
	case marked:
		return '*'
	case t == nil || !t.Exists():
		return ' '
	case !t.Collides():
		return '.'
	case faces:
		return "0123456789abcdef"[(t.Flags()&tilemap.FaceAll)>>4]
	case t.Flags()&tilemap.CollideAll == tilemap.CollideAll:
		return '#'
	default:
		return '+'
	}
}

func cmdEdit(args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	op := fs.String("op", "", "Operation: fill, swap, replace, random, shuffle")
	x := fs.Int("x", 0, "Region left")
	y := fs.Int("y", 0, "Region top")
	w := fs.Int("w", 0, "Region width (0 = to the right edge)")
	h := fs.Int("h", 0, "Region height (0 = to the bottom edge)")
	index := fs.Int("index", 0, "Index for fill")
	a := fs.Int("a", 0, "First index for swap, source index for replace")
	b := fs.Int("b", 0, "Second index for swap, target index for replace")
	seed := fs.Uint64("seed", 0, "Random seed for random and shuffle (0 = time based)")
	output := fs.String("o", "", "Output file (default: overwrite input)")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 || *op == "" {
		fmt.Fprintln(os.Stderr, "Usage: tiletool edit -op <fill|swap|replace|random|shuffle> [-x -y -w -h] [-o file] <seed>")
		os.Exit(1)
	}

	var mapOpts []tilemap.Option
	if *seed != 0 {
		mapOpts = append(mapOpts, tilemap.WithRand(rand.New(rand.NewPCG(*seed, *seed))))
	}
	m, layer := openLayer(cfg, fs.Arg(0), mapOpts...)

	r := tilemap.Rect{X: *x, Y: *y, Width: *w, Height: *h}
	if r.Width == 0 {
		r.Width = layer.Width() - r.X
	}
	if r.Height == 0 {
		r.Height = layer.Height() - r.Y
	}

	var err error
	switch *op {
	case "fill":
		err = m.Fill(layer, *index, r)
	case "swap":
		err = m.Swap(layer, *a, *b, r)
	case "replace":
		err = m.Replace(layer, *a, *b, r)
	case "random":
		err = m.Random(layer, r)
	case "shuffle":
		err = m.Shuffle(layer, r)
	default:
		fatalf("unknown operation: %s", *op)
	}
	if err != nil {
		fatalf("%s: %v", *op, err)
	}

	out := *output
	if out == "" {
		out = fs.Arg(0)
	}
	if err := formats.SaveSeedFile(out, layer.Seed()); err != nil {
		fatalf("%v", err)
	}

	logger.Log.Info("layer edited",
		zap.String("op", *op),
		zap.Stringer("rect", layer.FitRect(r)),
		zap.String("output", out))
	fmt.Printf("%s %s -> %s\n", *op, layer.FitRect(r), out)
}

func cmdPath(args []string) {
	fs := flag.NewFlagSet("path", flag.ExitOnError)
	draw := fs.Bool("draw", false, "Draw the path over the collision map")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 5 {
		fmt.Fprintln(os.Stderr, "Usage: tiletool path [-draw] <seed> <sx> <sy> <gx> <gy>")
		os.Exit(1)
	}

	coords := make([]int, 4)
	for i := range coords {
		v, err := strconv.Atoi(fs.Arg(i + 1))
		if err != nil {
			fatalf("invalid coordinate %q", fs.Arg(i+1))
		}
		coords[i] = v
	}

	_, layer := openLayer(cfg, fs.Arg(0))
	pf := navigation.NewPathFinder(layer, navigation.WithLogger(logger.Named("navigation")))

	path := pf.FindPath(coords[0], coords[1], coords[2], coords[3])
	if path == nil {
		fmt.Println("No path found")
		os.Exit(2)
	}

	steps := make([]string, len(path))
	marks := make(map[[2]int]bool, len(path))
	for i, p := range path {
		steps[i] = fmt.Sprintf("(%d,%d)", p[0], p[1])
		marks[p] = true
	}
	fmt.Printf("Steps: %d\n", len(path)-1)
	fmt.Println(strings.Join(steps, " "))

	if *draw {
		fmt.Println()
		fmt.Print(renderLayer(layer, false, marks))
	}
}
