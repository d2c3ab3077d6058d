// Command detect runs one change-point inference pass over the configured
// price CSV and writes the change_points.json artifact, optionally storing
// and publishing the run through the configured sinks.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"CPDetect/internal/di"
	"CPDetect/internal/ingest"
	"CPDetect/internal/usecase"
	"CPDetect/pkg/config"
	"CPDetect/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	out := flag.String("out", "", "artifact output path (default from config)")
	seed := flag.Uint64("seed", 0, "override run seed (0 = use config)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	outPath := cfg.Data.ArtifactPath
	if *out != "" {
		outPath = *out
	}

	l, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	series, err := ingest.LoadPrices(cfg.PricesPath())
	if err != nil {
		l.Error("load prices failed", logger.Error(err))
		os.Exit(1)
	}
	l.Info("prices loaded", logger.String("path", cfg.PricesPath()), logger.Int("points", len(series)))

	store, err := di.ProvideStore(cfg)
	if err != nil {
		l.Error("store init failed", logger.Error(err))
		os.Exit(1)
	}
	pub, err := di.ProvidePublisher(cfg)
	if err != nil {
		l.Error("publisher init failed", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		if store != nil {
			_ = store.Close()
		}
		if pub != nil {
			_ = pub.Close()
		}
	}()

	detector := usecase.NewDetector(cfg, l, di.ProvideMetrics(), store, pub)

	ov := usecase.RunOverrides{}
	if *seed != 0 {
		ov.Seed = *seed
		ov.HasSeed = true
	}

	res, err := detector.Run(context.Background(), series, ov)
	if err != nil {
		l.Error("detection failed", logger.Error(err))
		os.Exit(1)
	}

	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		l.Error("marshal artifact", logger.Error(err))
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, b, 0o644); err != nil {
		l.Error("write artifact", logger.Error(err))
		os.Exit(1)
	}
	l.Info("artifact written",
		logger.String("path", outPath),
		logger.Int("change_points", len(res.Records)),
		logger.Bool("convergence_ok", res.Diagnostics.OK),
	)
}
