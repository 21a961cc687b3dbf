/*
rlcoach is an offline analysis CLI for Rocket League replay files: it
validates a replay, runs the analysis pipeline, and emits a schema-valid
JSON report (plus an optional Markdown dossier).
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rlcoach/rlcoach/internal/ingest"
	"github.com/rlcoach/rlcoach/internal/metrics"
	"github.com/rlcoach/rlcoach/internal/pipeline"
	"github.com/rlcoach/rlcoach/internal/report"
)

const (
	appName    = "rlcoach"
	appVersion = "v1.0.0"
)

const (
	ExitCodeOK               = 0
	ExitCodeInvalidArguments = 2
	ExitCodeIngestFailure    = 3
	ExitCodeAnalysisFailure  = 4
)

// Flag variables
var (
	version = flag.Bool("version", false, "print version info and exit")

	adapterName = flag.String("adapter", "rust", "parser adapter to use; valid values are 'rust' and 'null'")
	outDir      = flag.String("out", "", "output directory; default is the replay's directory")
	pretty      = flag.Bool("pretty", true, "use indentation when formatting output")
	jsonOut     = flag.Bool("json", false, "emit ingest results as JSON (ingest subcommand)")
	metricsOut  = flag.String("metrics-out", "", "optional path for a prometheus textfile dump")
)

func main() {
	os.Exit(run())
}

func run() int {
	// A .env in the working directory may carry RLCOACH_* variables; its
	// absence is not an error.
	_ = godotenv.Load()

	flag.Parse()

	if *version {
		printVersion()
		return ExitCodeOK
	}

	args := flag.Args()
	if len(args) < 2 {
		printUsage()
		return ExitCodeInvalidArguments
	}
	cmd, path := args[0], args[1]

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	switch cmd {
	case "ingest":
		return runIngest(path)
	case "analyze":
		return runAnalyze(path, logger, false)
	case "report-md":
		return runAnalyze(path, logger, true)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %v\n", cmd)
		printUsage()
		return ExitCodeInvalidArguments
	}
}

func runIngest(path string) int {
	res, err := ingest.Validate(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return ExitCodeIngestFailure
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		if *pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		}
		return ExitCodeOK
	}

	fmt.Printf("size: %d\n", res.Size)
	fmt.Printf("sha256: %s\n", res.SHA256)
	fmt.Printf("format: %s\n", res.FormatHint)
	for _, w := range res.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return ExitCodeOK
}

func runAnalyze(path string, logger *slog.Logger, withMarkdown bool) int {
	reg := metrics.New()
	res := pipeline.Run(context.Background(), path, pipeline.Options{
		AdapterName: *adapterName,
		Metrics:     reg,
		Logger:      logger,
	})

	if *metricsOut != "" {
		if err := reg.DumpTextfile(*metricsOut); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to dump metrics: %v\n", err)
		}
	}

	if res.Err != nil {
		// The error envelope is the only thing a caller sees on hard
		// failure.
		data, err := marshalOut(res.Err)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode error envelope: %v\n", err)
			return ExitCodeAnalysisFailure
		}
		os.Stdout.Write(data)
		if res.SchemaViolation {
			return ExitCodeAnalysisFailure
		}
		return ExitCodeIngestFailure
	}

	data, err := marshalOut(res.Report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode report: %v\n", err)
		return ExitCodeAnalysisFailure
	}

	dir := *outDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	jsonPath := filepath.Join(dir, stem+".json")
	if err := report.WriteAtomic(jsonPath, data); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
		return ExitCodeAnalysisFailure
	}

	if withMarkdown {
		md := report.RenderMarkdown(res.Report)
		mdPath := filepath.Join(dir, stem+".md")
		if err := report.WriteAtomic(mdPath, []byte(md)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write dossier: %v\n", err)
			return ExitCodeAnalysisFailure
		}
	}

	os.Stdout.Write(data)
	return ExitCodeOK
}

func marshalOut(v any) ([]byte, error) {
	if *pretty {
		return report.Marshal(v)
	}
	return json.Marshal(v)
}

func printVersion() {
	fmt.Println(appName, "version:", appVersion)
	fmt.Println("Platform:", runtime.GOOS, runtime.GOARCH)
	fmt.Println("Built with:", runtime.Version())
}

func printUsage() {
	fmt.Println("Usage:")
	name := os.Args[0]
	fmt.Printf("\t%s [FLAGS] ingest file.replay\n", name)
	fmt.Printf("\t%s [FLAGS] analyze file.replay\n", name)
	fmt.Printf("\t%s [FLAGS] report-md file.replay\n", name)
	fmt.Println("\tRun with '-h' to see a list of available flags.")
}
