package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/df07/go-mesh-scene/pkg/config"
	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/geometry"
	"github.com/df07/go-mesh-scene/pkg/host"
	"github.com/df07/go-mesh-scene/pkg/loaders"
	"github.com/df07/go-mesh-scene/pkg/material"
	"github.com/df07/go-mesh-scene/pkg/scene"
	"github.com/df07/go-mesh-scene/pkg/script"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the scene context shared by every command
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	library  *material.Library
	registry *scene.Registry
	metrics  *http.Server
}

type rootOptions struct {
	configPath  string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "meshscene",
		Short:         "Edit, select and pick triangle meshes in a scripted scene",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	rootCmd.AddCommand(newRunCmd(opts), newPickCmd(opts), newInspectCmd())
	return rootCmd
}

// start loads configuration and builds the scene context
func start(opts *rootOptions, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	logger := config.NewLogger(cfg.Log, stderr)
	library := cfg.Materials.BuildLibrary()
	registry := scene.NewRegistry(host.NewMemory(), library,
		scene.WithLogger(logger),
		scene.WithHistoryDepth(cfg.History.MaxDepth))
	scene.SetDefault(registry)

	a := &app{cfg: cfg, logger: logger, library: library, registry: registry}
	if cfg.Metrics.Addr != "" {
		a.serveMetrics(cfg.Metrics.Addr)
	}
	return a, nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", slog.String("addr", addr), slog.Any("error", err))
		}
	}()
	a.logger.Info("serving metrics", slog.String("addr", addr))
}

func (a *app) close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.metrics.Shutdown(ctx)
	}
	scene.SetDefault(nil)
	a.registry.Close()
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Run a scene script and print the result of each step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := script.Load(args[0])
			if err != nil {
				return err
			}
			a, err := start(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			runner := script.NewRunner(a.registry, a.library, a.logger)
			defer runner.Close()

			results, err := runner.Run(s)
			printResults(cmd.OutOrStdout(), results)
			if err != nil {
				return err
			}

			undo, redo := a.registry.History().Len()
			fmt.Fprintf(cmd.OutOrStdout(), "objects=%d selected=%d undo=%d redo=%d\n",
				a.registry.Len(), len(a.registry.Selection()), undo, redo)
			return nil
		},
	}
}

func printResults(w io.Writer, results []script.Result) {
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "rejected"
		}
		line := fmt.Sprintf("%3d %-16s %-8s objects=[%s] selection=[%s]",
			r.Index, r.Op, status, strings.Join(r.Objects, ","), strings.Join(r.Selection, ","))
		if r.Detail != "" {
			line += " " + r.Detail
		}
		fmt.Fprintln(w, line)
	}
}

type pickOptions struct {
	mesh        string
	origin      []float64
	direction   []float64
	maxDistance float64
	translation []float64
}

func newPickCmd(root *rootOptions) *cobra.Command {
	opts := &pickOptions{}
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Cast a ray at a mesh and report the nearest hit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.origin) != 3 || len(opts.direction) != 3 || len(opts.translation) != 3 {
				return fmt.Errorf("--origin, --dir and --at need three components")
			}
			mesh, err := loadMesh(opts.mesh)
			if err != nil {
				return err
			}
			a, err := start(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			obj := a.registry.Create()
			obj.SetGeometry(mesh)
			obj.SetPlacement(core.NewTransform(toVec(opts.translation), core.Vec3{}, core.NewVec3(1, 1, 1)))

			hit, ok := a.registry.FindNearestHit(toVec(opts.origin), toVec(opts.direction), opts.maxDistance)
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "no hit")
				return nil
			}
			fmt.Fprintf(out, "hit triangle %d at distance %.6f\n", hit.Triangle, hit.Distance)
			fmt.Fprintf(out, "point (%.6f, %.6f, %.6f) bary (%.4f, %.4f, %.4f)\n",
				hit.Point.X, hit.Point.Y, hit.Point.Z, hit.Bary.X, hit.Bary.Y, hit.Bary.Z)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.mesh, "mesh", "", "PLY mesh to pick against (default: 2x2x2 box)")
	cmd.Flags().Float64SliceVar(&opts.origin, "origin", []float64{0, 0, -5}, "ray origin x,y,z")
	cmd.Flags().Float64SliceVar(&opts.direction, "dir", []float64{0, 0, 1}, "ray direction x,y,z")
	cmd.Flags().Float64Var(&opts.maxDistance, "max-distance", 0, "maximum hit distance (0 is unbounded)")
	cmd.Flags().Float64SliceVar(&opts.translation, "at", []float64{0, 0, 0}, "mesh placement x,y,z")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <mesh.ply>",
		Short: "Print mesh and spatial index statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mesh, err := loadMesh(args[0])
			if err != nil {
				return err
			}
			start := time.Now()
			bvh := geometry.NewBVH(mesh)
			buildTime := time.Since(start)
			stats := bvh.Stats()
			bounds := mesh.BoundingBox()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vertices:       %d\n", mesh.VertexCount())
			fmt.Fprintf(out, "triangles:      %d\n", mesh.TriangleCount())
			fmt.Fprintf(out, "material slots: %d\n", mesh.MaterialSlotCount())
			fmt.Fprintf(out, "bounds:         (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
				bounds.Min.X, bounds.Min.Y, bounds.Min.Z, bounds.Max.X, bounds.Max.Y, bounds.Max.Z)
			fmt.Fprintf(out, "bvh nodes:      %d (%d leaves)\n", stats.TotalNodes, stats.LeafNodes)
			fmt.Fprintf(out, "bvh depth:      max %d, avg %.2f\n", stats.MaxDepth, stats.AvgDepth)
			fmt.Fprintf(out, "bvh build:      %v\n", buildTime)
			return nil
		},
	}
}

func loadMesh(path string) (*geometry.Mesh, error) {
	if path == "" {
		return geometry.NewBoxMesh(core.NewVec3(1, 1, 1), false), nil
	}
	return loaders.LoadPLY(path)
}

func toVec(v []float64) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}
