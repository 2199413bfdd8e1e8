package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/biomeforge/internal/config"
	"github.com/Faultbox/biomeforge/internal/engine/biome"
	"github.com/Faultbox/biomeforge/internal/engine/population"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/internal/logger"
	"github.com/Faultbox/biomeforge/internal/server"
	"github.com/Faultbox/biomeforge/internal/world"
)

const buildTimeout = 2 * time.Minute

func cmdPresets(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tFILE\t")
	for _, p := range terrain.Presets() {
		name := p.Name
		if p.Default {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", name, p.Label, p.File)
	}
	return tw.Flush()
}

// cmdConfig handles "config save [path]" and "config path".
func cmdConfig(cfg *config.Config, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New("usage: config save [path] | config path")
	}
	switch args[0] {
	case "path":
		fmt.Fprintln(out, config.UserConfigPath())
		return nil
	case "save":
		target := config.UserConfigPath()
		var err error
		if len(args) > 1 {
			target = args[1]
			err = cfg.SaveTo(target)
		} else {
			err = cfg.Save()
		}
		if err != nil {
			return err
		}
		logger.Log.Info("config saved", zap.String("path", target))
		fmt.Fprintf(out, "Wrote %s\n", target)
		return nil
	default:
		return fmt.Errorf("unknown config action %q", args[0])
	}
}

// load builds a world for mapName and waits for every fetch to settle.
func load(cfg *config.Config, mapName string) (*world.Frame, error) {
	mgr, err := world.NewAssets(cfg.Assets)
	if err != nil {
		return nil, err
	}
	defer mgr.Close()

	c, err := world.FromConfig(cfg, mgr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	c.LoadTerrain(world.ResolveMap(mapName))
	if err := c.Wait(ctx); err != nil {
		return nil, err
	}

	f := c.Frame()
	if f.Err != nil {
		return f, f.Err
	}
	if f.Mesh == nil {
		return f, fmt.Errorf("no terrain built for %s", mapName)
	}
	return f, nil
}

func cmdBuild(cfg *config.Config, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New("usage: biomeforge build <map>")
	}

	start := time.Now()
	f, err := load(cfg, args[0])
	if err != nil {
		return err
	}
	printSummary(out, f.Summary(), time.Since(start))
	return nil
}

func printSummary(out io.Writer, s world.State, elapsed time.Duration) {
	fmt.Fprintf(out, "Map:       %s\n", s.MapName)
	fmt.Fprintf(out, "Grid:      %d x %d\n", s.Columns, s.Rows)
	fmt.Fprintf(out, "Load ID:   %s\n", s.LoadID)
	fmt.Fprintf(out, "Time:      %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintln(out)

	total := 0
	for _, n := range s.Histogram {
		total += n
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(out, "Biomes:")
	for _, b := range biome.All {
		n := s.Histogram[b]
		if n == 0 {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%d\t%.1f%%\t\n", b, n, 100*float64(n)/float64(total))
	}
	tw.Flush()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Population:")
	for _, c := range sortedCategories(s) {
		fmt.Fprintf(tw, "  %s\t%d\t\n", c, s.Counts[c])
	}
	tw.Flush()
}

// sortedCategories returns the categories present in s in declaration order.
func sortedCategories(s world.State) []population.Category {
	var out []population.Category
	for _, c := range population.AllCategories() {
		if _, ok := s.Counts[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func cmdExport(cfg *config.Config, args []string, out io.Writer) error {
	if len(args) < 2 {
		return errors.New("usage: biomeforge export <map> <out.obj>")
	}

	f, err := load(cfg, args[0])
	if err != nil {
		return err
	}

	file, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := terrain.WriteOBJ(file, f.Mesh); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", args[1], err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %s: %d vertices, %d triangles\n",
		args[1], len(f.Mesh.Vertices), f.Mesh.TriangleCount())
	return nil
}

func cmdServe(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Server.Addr, "Listen address")
	fs.Parse(args)
	cfg.Server.Addr = *addr

	mgr, err := world.NewAssets(cfg.Assets)
	if err != nil {
		return err
	}
	defer mgr.Close()

	c, err := world.FromConfig(cfg, mgr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start on the default map; the loop applies its completions.
	c.LoadTerrain(cfg.Terrain.DefaultMap)

	loop := server.NewLoop(c)
	go loop.Run(ctx)

	logger.Info("serving", zap.String("addr", cfg.Server.Addr), zap.String("map", cfg.Terrain.DefaultMap))
	return server.New(cfg.Server, loop).ListenAndServe(ctx)
}
