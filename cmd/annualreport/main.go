package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"annual-report-analyzer/internal/logger"
	"annual-report-analyzer/internal/pipeline"
	"annual-report-analyzer/internal/report"
	"annual-report-analyzer/internal/runlog"
	"annual-report-analyzer/internal/server"
	"annual-report-analyzer/internal/trace"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	format := flag.String("format", "", "output format: text, json, csv or pdf (default from config)")
	outputFile := flag.String("output", "", "save report to file (optional)")
	serve := flag.Bool("serve", false, "serve GET /process instead of running once")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer trace.Shutdown(context.Background())

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	analyzer, err := pipeline.NewFromConfig(ctx, cfg)
	if err != nil {
		fmt.Printf("Error creating pipeline: %v\n", err)
		os.Exit(1)
	}
	compressOldLogs(ctx, cfg)
	runner := runlog.Wrap(analyzer, cfg.RunLog.Dir)

	if *serve {
		if err := server.New(cfg.Server.Addr, runner).Start(ctx); err != nil {
			logger.ErrorWithErr(ctx, "HTTP server failed", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("🔍 Analyzing annual reports from %s\n", cfg.ListingURL)
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")

	res, err := runner.Run(ctx)
	if err != nil {
		fmt.Printf("Error running analysis: %v\n", err)
		os.Exit(1)
	}

	reportFormat := report.ReportFormat(cfg.Report.Format)
	if *format != "" {
		reportFormat = report.ReportFormat(*format)
	}
	reporter := report.NewReporter(cfg.Report.Dir)

	content, err := reporter.GenerateReport(res, reportFormat)
	if err != nil {
		fmt.Printf("Error generating report: %v\n", err)
		os.Exit(1)
	}
	if reportFormat != report.FormatPDF {
		fmt.Println(string(content))
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, content, 0644); err != nil {
			fmt.Printf("Error saving report to file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n✅ Report saved to: %s\n", *outputFile)
	} else {
		savedPath, err := reporter.SaveReport(res, reportFormat)
		if err != nil {
			fmt.Printf("Warning: Could not auto-save report: %v\n", err)
		} else {
			fmt.Printf("\n✅ Report auto-saved to: %s\n", savedPath)
		}
	}

	fmt.Println("\n─────────────────────────────────────────────────────────────────────────────")
	fmt.Printf("Run %s complete\n", res.RunID)
	fmt.Printf("Documents discovered: %d, analyzed: %d, skipped: %d\n", res.Discovered, res.Succeeded, len(res.Dropped))

	if res.Discovered > 0 && res.Succeeded == 0 {
		os.Exit(2)
	}
}
