// cmd/app/main.go
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"price_attestation/pkg/config"
	"price_attestation/pkg/consensus"
	"price_attestation/pkg/data"
	"price_attestation/pkg/utils"
)

var (
	configFile  = flag.String("config", "config.yaml", "Path to configuration file")
	payloadFile = flag.String("payload", "", "Payload file (overrides payload.file from config)")
	feedList    = flag.String("feeds", "", "Comma-separated feed names to verify, e.g. ETH,BTC")
	debug       = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := initLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatal("Failed to load configuration",
			zap.String("path", *configFile),
			zap.Error(err),
		)
	}

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build verification engine", zap.Error(err))
	}

	feeds, err := parseFeeds(*feedList)
	if err != nil {
		logger.Fatal("Failed to parse requested feeds", zap.Error(err))
	}

	buf, err := readPayload(cfg)
	if err != nil {
		logger.Fatal("Failed to read payload", zap.Error(err))
	}

	// Tag the verification run so its log lines can be correlated.
	runID := uuid.New().String()
	runLogger := logger.With(zap.String("run_id", runID))
	runLogger.Info("Verifying payload",
		zap.Int("bytes", len(buf)),
		zap.Int("feeds", len(feeds)),
		zap.Int("threshold", cfg.Verification.SignerThreshold),
	)

	values, err := engine.GetValuesAllowDuplicates(buf, feeds)
	if err != nil {
		runLogger.Fatal("Payload verification failed", zap.Error(err))
	}

	for i, feed := range feeds {
		fmt.Printf("%s = %s\n", feed, values[i])
	}
	runLogger.Info("Payload verified")
}

func buildEngine(cfg *config.Config, logger *zap.Logger) (*consensus.Engine, error) {
	registry, err := consensus.NewSignerRegistryFromHex(cfg.Verification.AuthorizedSigners)
	if err != nil {
		return nil, fmt.Errorf("building signer registry: %w", err)
	}

	aggregate, ok := consensus.AggregateByName(cfg.Verification.Aggregation)
	if !ok {
		return nil, fmt.Errorf("unknown aggregation %q", cfg.Verification.Aggregation)
	}

	return consensus.NewEngine(consensus.Config{
		SignerThreshold: cfg.Verification.SignerThreshold,
		Registry:        registry,
		Aggregate:       aggregate,
		Timestamps: consensus.TimestampPolicy{
			MaxFutureDrift: cfg.Verification.MaxFutureDrift,
			MaxPastDrift:   cfg.Verification.MaxPastDrift,
		},
	}, logger)
}

func parseFeeds(list string) ([]data.FeedID, error) {
	if list == "" {
		return nil, fmt.Errorf("no feeds requested, use -feeds")
	}
	var feeds []data.FeedID
	for _, name := range strings.Split(list, ",") {
		id, err := data.NewFeedID(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("feed %q: %w", name, err)
		}
		feeds = append(feeds, id)
	}
	return feeds, nil
}

func readPayload(cfg *config.Config) ([]byte, error) {
	path := cfg.Payload.File
	if *payloadFile != "" {
		path = *payloadFile
	}
	if path == "" {
		return nil, fmt.Errorf("no payload file configured, use -payload or payload.file")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !cfg.Payload.Hex {
		return raw, nil
	}

	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(text, "0x")
	buf, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decoding hex payload from %s: %w", path, err)
	}
	return buf, nil
}

func initLogger(debug bool) (*zap.Logger, error) {
	cfg := utils.DefaultLogConfig()
	cfg.Debug = debug
	if debug {
		cfg.Level = "debug"
	}
	return utils.NewLogger(cfg)
}
