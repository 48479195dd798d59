// Command sheetflow executes or previews a workflow JSON document from disk
// and prints the structured report. Environment is loaded from a .env file
// when present; OPENAI_API_KEY enables ai_agent nodes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/leofalp/sheetflow/engine"
	"github.com/leofalp/sheetflow/providers/model/openai"
	slogobs "github.com/leofalp/sheetflow/providers/observability/slog"
)

func main() {
	_ = godotenv.Load()

	var (
		workflowPath = flag.String("workflow", "", "path to the workflow JSON document")
		uploadDir    = flag.String("upload-dir", "uploads", "directory holding input files and written artifacts")
		previewNode  = flag.String("preview", "", "preview this node id instead of executing the workflow")
		sourceRows   = flag.Int("source-rows", engine.DefaultSourceRows, "preview row cap for source nodes")
		displayRows  = flag.Int("display-rows", engine.DefaultDisplayRows, "preview display window size")
		enableCode   = flag.Bool("enable-code", false, "allow code nodes to run user scripts")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *workflowPath == "" {
		fmt.Fprintln(os.Stderr, "usage: sheetflow -workflow workflow.json [-preview node_id] [-upload-dir dir]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	raw, err := os.ReadFile(*workflowPath)
	if err != nil {
		logger.Error("cannot read workflow document", "path", *workflowPath, "error", err)
		os.Exit(1)
	}
	workflow, err := engine.ParseWorkflow(raw)
	if err != nil {
		logger.Error("cannot parse workflow document", "error", err)
		os.Exit(1)
	}

	options := []engine.Option{
		engine.WithUploadDir(*uploadDir),
		engine.WithObserver(slogobs.New(logger)),
		engine.WithCodeEnabled(*enableCode),
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		options = append(options, engine.WithModel(openai.New()))
	}
	eng := engine.New(options...)

	ctx := context.Background()
	var report any
	success := false
	if *previewNode != "" {
		preview := eng.PreviewNode(ctx, workflow, *previewNode, engine.PreviewOptions{
			SourceRows:  *sourceRows,
			DisplayRows: *displayRows,
		})
		report, success = preview, preview.Success
	} else {
		execution := eng.Execute(ctx, workflow)
		report, success = execution, execution.Success
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Error("cannot encode report", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))
	if !success {
		os.Exit(1)
	}
}
