package main

// One-shot document analysis from the command line:
//   go run ./cmd/analyze -file notes.pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"academic-backend/internal/analyses"
	"academic-backend/internal/bootstrap"
	"academic-backend/internal/classify"
	"academic-backend/internal/extract"
	"academic-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	filePath := flag.String("file", "", "Path to document (pdf, docx, txt, or md)")
	docType := flag.String("type", "", "Force a document type instead of classifying")
	classifyOnly := flag.Bool("classify-only", false, "Print the classified document type and exit")
	outPath := flag.String("out", "", "Path to write the report JSON (optional)")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" {
		exitErr("file path is required")
	}

	mimeType, err := mimeFromExt(*filePath)
	if err != nil {
		exitErr(err.Error())
	}

	raw, err := os.ReadFile(*filePath)
	if err != nil {
		exitErr(fmt.Sprintf("read file: %v", err))
	}
	fileName := filepath.Base(*filePath)

	ctx := context.Background()
	text, err := extract.ExtractTextFromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		exitErr(fmt.Sprintf("extract text: %v", err))
	}

	if *classifyOnly {
		fmt.Println(string(classify.Classify(text)))
		return
	}

	completion, _, err := bootstrap.BuildCompletion(cfg.LLM)
	if err != nil {
		exitErr(err.Error())
	}
	orch := &analyses.Orchestrator{Completer: completion}

	var report analyses.Report
	if strings.TrimSpace(*docType) != "" {
		forced := classify.DocumentType(strings.TrimSpace(*docType))
		if !classify.Valid(forced) {
			exitErr(fmt.Sprintf("unsupported document type: %s", *docType))
		}
		report, err = orch.AnalyzeTyped(ctx, text, forced)
	} else {
		report, err = orch.AnalyzeText(ctx, text)
	}
	if err != nil {
		exitErr(fmt.Sprintf("analyze: %v", err))
	}

	pretty, err := prettyJSON(report)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(pretty) == 0 || pretty[len(pretty)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

func mimeFromExt(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf", nil
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil
	case ".txt", ".md":
		return "text/plain", nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func prettyJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
