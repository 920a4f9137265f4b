package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/mapfoundry/cityprint/core"
	"github.com/mapfoundry/cityprint/internal/logging"
	"github.com/mapfoundry/cityprint/internal/observability"
	"github.com/mapfoundry/cityprint/internal/threemf"
	"github.com/mapfoundry/cityprint/store"
)

func main() {
	input := flag.String("input", "", "Overpass-style OSM JSON file (\"-\" for stdin)")
	bounds := flag.String(
		"bounds",
		"",
		"selected region as minLat,minLon,maxLat,maxLon (default: extent of the input data)",
	)
	sizeMM := flag.Float64("size-mm", 100, "target horizontal model size in millimetres")
	output := flag.String("output", "model"+threemf.Extension, "output 3MF file")
	metricsListen := flag.String("metrics-listen", "", "address to expose /metrics on (empty: disabled)")

	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: cityprint -input <osm.json> [-bounds ...] [-size-mm N] [-output model.3mf]")
		os.Exit(2)
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	collector, err := observability.NewPipelineCollector(nil)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *metricsListen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			if err := http.ListenAndServe(*metricsListen, mux); err != nil {
				log.Warn(ctx, "metrics listener stopped", logging.String("error", err.Error()))
			}
		}()
	}

	bound, err := parseBounds(*bounds)
	if err != nil {
		log.Error(ctx, "invalid -bounds", logging.String("error", err.Error()))
		os.Exit(2)
	}

	region, err := loadRegion(*input, bound)
	if err != nil {
		log.Error(ctx, "loading region failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info(ctx, "region loaded",
		logging.String("input", *input),
		logging.Int("elements", len(region.Elements)),
	)

	pipeline := core.NewPipeline(log, collector)
	pipeline.TargetSizeMM = *sizeMM

	built, stats, err := pipeline.Run(ctx, region)
	if err != nil {
		log.Error(ctx, "build failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	// The current model is replaced wholesale; a renderer collaborator
	// subscribed to the store would pick it up here.
	models := store.New()
	models.Replace(built)

	f, err := os.Create(*output)
	if err != nil {
		log.Error(ctx, "creating output failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	n, err := core.WriteModel(f, built)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Error(ctx, "export failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	collector.ExportBytes.Add(float64(n))

	log.Info(ctx, "model exported",
		logging.String("output", *output),
		logging.String("mime_type", threemf.MIMEType),
		logging.Any("bytes", n),
		logging.Int("pieces", stats.Pieces),
		logging.Int("triangles", stats.Triangles),
		logging.Int("skipped_polygons", stats.SkippedDegeneratePolygons),
	)
}

func loadRegion(path string, bound orb.Bound) (*core.Region, error) {
	if path == "-" {
		return core.LoadRegion(os.Stdin, bound)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return core.LoadRegion(f, bound)
}

// parseBounds parses "minLat,minLon,maxLat,maxLon". An empty string yields
// the zero bound, which makes the loader derive the window from the data.
func parseBounds(raw string) (orb.Bound, error) {
	if raw == "" {
		return orb.Bound{}, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("want 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return orb.Bound{
		Min: orb.Point{vals[1], vals[0]},
		Max: orb.Point{vals[3], vals[2]},
	}, nil
}
