// Command sqlgen resolves target zip codes for a saved GeoJSON alert
// collection and renders the CRM export SQL for them, without contacting the
// NWS API.
//
// Usage:
//
//	go run ./cmd/sqlgen \
//	  -zips data/zip_directory.csv \
//	  -alerts testdata/winter_alerts.geojson \
//	  -mode winter \
//	  -query testdata/contact_query.json \
//	  -targets-out out/winter_targets.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/hazard-target-service/internal/adapter/zipfile"
	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/couchcryptid/hazard-target-service/internal/observability"
	"github.com/couchcryptid/hazard-target-service/internal/pipeline"
	"github.com/couchcryptid/hazard-target-service/internal/query"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	zipPath := flag.String("zips", "", "path to the zip directory file")
	alertsPath := flag.String("alerts", "", "path to a GeoJSON FeatureCollection of alerts")
	modeName := flag.String("mode", "", "hazard mode the alerts belong to")
	minSeverity := flag.String("min-severity", "", "drop alerts below this CAP severity")
	queryPath := flag.String("query", "", "optional path to a JSON query configuration")
	countOnly := flag.Bool("count-only", false, "emit the count summary instead of the record export")
	targetsOut := flag.String("targets-out", "", "optional output path for the target list JSON")
	now := flag.String("now", "", "RFC3339 time used to decide alert expiry (default: current time)")
	flag.Parse()

	if *zipPath == "" || *alertsPath == "" || *modeName == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -zips, -alerts, -mode")
	}

	mode, ok := domain.LookupMode(*modeName)
	if !ok {
		return fmt.Errorf("unknown mode %q", *modeName)
	}

	if *now != "" {
		t, err := time.Parse(time.RFC3339, *now)
		if err != nil {
			return fmt.Errorf("parse -now: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(t))
		defer domain.SetClock(nil)
	}

	dir, report, err := zipfile.Load(*zipPath)
	if err != nil {
		return err
	}
	log.Printf("zip directory: %d entries (%d excluded)", dir.Len(), len(report.Excluded))

	data, err := os.ReadFile(*alertsPath)
	if err != nil {
		return fmt.Errorf("read alerts: %w", err)
	}
	features, err := domain.ParseFeatureCollection(data)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	p := pipeline.New(nil, nil, dir, nil, logger, observability.NewUnregisteredMetrics())
	list := p.ResolveFeatures(context.Background(), mode.Name, features, domain.ParseSeverity(*minSeverity))
	log.Printf("%s: %d features, %d target zips", mode.Name, list.FeatureCount, len(list.Targets))

	if *targetsOut != "" {
		if err := writeJSON(*targetsOut, list); err != nil {
			return fmt.Errorf("writing target list: %w", err)
		}
		log.Printf("wrote target list: %s", *targetsOut)
	}

	var cfg query.Config
	if *queryPath != "" {
		if cfg, err = readConfig(*queryPath); err != nil {
			return err
		}
	}

	_, err = io.WriteString(os.Stdout, query.Generate(cfg, list.Zips(), cfg.NAICSCodes, *countOnly)+"\n")
	return err
}

func readConfig(path string) (query.Config, error) {
	var cfg query.Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read query config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse query config: %w", err)
	}
	return cfg, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
