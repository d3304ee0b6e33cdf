package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config, fallback Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	if cfg == nil {
		cfg = &fallback
	}

	settings := cfg.EvalSettings()
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Model:           %s\n", valueOrNone(cfg.ModelPath))
	fmt.Fprintf(out, "  Dataset:         %s\n", valueOrNone(cfg.DatasetDir))
	fmt.Fprintf(out, "  Classes:         %s\n", strings.Join(settings.Classes, ", "))
	fmt.Fprintf(out, "  Threshold:       %.2f\n", settings.Threshold)
	fmt.Fprintf(out, "  Bins:            %d\n", settings.Bins)
	fmt.Fprintf(out, "  Mining Depth:    %d\n", settings.MiningDepth)
	fmt.Fprintf(out, "  Warmup Runs:     %d\n", cfg.WarmupCount())
	fmt.Fprintf(out, "  Sample Cap:      %s\n", capLabel(cfg.SampleCap()))
	fmt.Fprintf(out, "  Shuffle Seed:    %d\n", cfg.ShuffleSeed())
	fmt.Fprintf(out, "  Workers:         %d\n", cfg.WorkerCount())
	if cfg.Profile != "" {
		fmt.Fprintf(out, "  Profile:         %s\n", cfg.Profile)
	}
	fmt.Fprintf(out, "  Records:         %s\n", cfg.RecordsFilePath())
	fmt.Fprintf(out, "  Reports:         %s\n", cfg.ReportDirPath())
	fmt.Fprintf(out, "  History DB:      %s\n", cfg.HistoryDBPath())
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
}

func valueOrNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func capLabel(limit int) string {
	if limit <= 0 {
		return "all"
	}
	return fmt.Sprintf("%d", limit)
}
