// Command geoprep converts the raw boundary shapefiles and the 5G antenna
// GeoJSON into the WGS84 files the service loads at startup.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kjstillabower/geo-data-maps/internal/config"
	"github.com/kjstillabower/geo-data-maps/internal/datasets"
	"github.com/kjstillabower/geo-data-maps/internal/geo"
	"github.com/kjstillabower/geo-data-maps/internal/observability"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Fatal("preprocessing failed", zap.Error(err))
	}
}

// run writes one prepared file per region level plus the antenna file.
// A missing source is skipped; any other failure aborts the run.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	files := filesFrom(cfg.Datasets)
	g, _ := errgroup.WithContext(ctx)
	for _, level := range datasets.RegionLevels {
		level := level
		g.Go(func() error {
			prepared, shapefile := files.Region(level)
			return prepareRegions(cfg.DatasetPath(shapefile), cfg.DatasetPath(prepared), level, logger)
		})
	}
	g.Go(func() error {
		return prepareAntennas(cfg.DatasetPath(files.Antennas), cfg.DatasetPath(files.AntennasPrep), logger)
	})
	return g.Wait()
}

func prepareRegions(src, dst string, level datasets.RegionLevel, logger *zap.Logger) error {
	if missing(src, logger) {
		return nil
	}
	start := time.Now()
	features, err := geo.ReadShapefile(src)
	if err != nil {
		return err
	}
	regions := datasets.RegionsFromShapes(features, level)
	if err := geo.WriteFeatureCollection(dst, datasets.RegionCollection(regions, level)); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	logger.Info("regions prepared",
		zap.String("level", string(level)),
		zap.String("path", dst),
		zap.Int("count", len(regions)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func prepareAntennas(src, dst string, logger *zap.Logger) error {
	if missing(src, logger) {
		return nil
	}
	fc, err := geo.ReadFeatureCollection(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	ants := datasets.AntennasFromFeatures(fc)
	if err := geo.WriteFeatureCollection(dst, datasets.AntennaCollection(ants)); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	logger.Info("antennas prepared", zap.String("path", dst), zap.Int("count", len(ants)))
	return nil
}

func missing(path string, logger *zap.Logger) bool {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Warn("source missing, skipped", zap.String("path", path))
		return true
	}
	return false
}

func filesFrom(ds config.Datasets) datasets.Files {
	return datasets.Files{
		Antennas:     ds.Antennas,
		AntennasPrep: ds.AntennasPrep,
		Kantone:      ds.Kantone,
		Bezirke:      ds.Bezirke,
		Gemeinden:    ds.Gemeinden,
		KantoneShp:   ds.KantoneShp,
		BezirkeShp:   ds.BezirkeShp,
		GemeindenShp: ds.GemeindenShp,
	}
}
