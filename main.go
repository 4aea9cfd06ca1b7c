package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"edu2job/artifacts"
	"edu2job/config"
	"edu2job/db"
	"edu2job/logger"
	"edu2job/ml"
	"edu2job/profile"
)

var loadBundle = func(ctx context.Context, cfg *config.Config) (*ml.Bundle, error) {
	src, err := artifacts.NewSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return artifacts.Load(ctx, src, cfg.Artifacts)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "predict: %v\n", err)
		os.Exit(1)
	}
}

// run predicts roles for one profile and writes them to stdout as a JSON
// array. Nothing is written to stdout when it returns an error.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML or TOML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log, stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 2. Load artifacts before touching the input
	bundle, err := loadBundle(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load artifacts from %s: %w", cfg.ArtifactsDir, err)
	}
	log.Debug("artifacts loaded", zap.String("dir", cfg.ArtifactsDir))

	// 3. Read the profile
	input, err := recordInput(fs.Args(), cfg)
	if err != nil {
		return err
	}
	if fs.NArg() > 1 {
		log.Warn("ignoring extra arguments", zap.Int("count", fs.NArg()-1))
	}
	rec, err := profile.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	// 4. Predict
	predictor, err := ml.NewPredictor(bundle, cfg.TopK)
	if err != nil {
		return err
	}
	predictions, err := predictor.Predict(rec)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	payload, err := json.Marshal(predictions)
	if err != nil {
		return fmt.Errorf("encode predictions: %w", err)
	}
	if _, err := fmt.Fprintf(stdout, "%s\n", payload); err != nil {
		return err
	}

	// 5. Record history; the result is already out, so failures only warn
	if cfg.History.DSN != "" {
		recordHistory(ctx, log, cfg.History, rec.Raw, predictions)
	}
	return nil
}

func recordInput(args []string, cfg *config.Config) ([]byte, error) {
	if len(args) > 0 {
		return []byte(args[0]), nil
	}
	payload, err := json.Marshal(cfg.DefaultRecord)
	if err != nil {
		return nil, fmt.Errorf("encode default record: %w", err)
	}
	return payload, nil
}

func recordHistory(ctx context.Context, log *zap.Logger, cfg config.History, input json.RawMessage, predictions []ml.Prediction) {
	history, err := db.OpenHistory(cfg.Driver, cfg.DSN)
	if err != nil {
		log.Warn("history unavailable", zap.Error(err))
		return
	}
	defer history.Close()
	entry, err := history.Save(ctx, input, predictions)
	if err != nil {
		log.Warn("failed to record prediction", zap.Error(err))
		return
	}
	log.Debug("prediction recorded", zap.String("id", entry.ID))
}
