package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/yaxeku/pumpfun-bundler/internal/engine"
	"github.com/yaxeku/pumpfun-bundler/internal/logger"
)

const historyFlushInterval = time.Second

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// Options configures the export behavior
type Options struct {
	Format    ExportFormat
	OutputDir string
}

// ReportExporter writes per-run sell reports to disk
type ReportExporter struct {
	logger *zap.Logger
}

// NewReportExporter creates a new report exporter
func NewReportExporter(logger *zap.Logger) *ReportExporter {
	return &ReportExporter{
		logger: logger,
	}
}

// WriteRunReport exports the outcome of a sell run to the configured format
func (re *ReportExporter) WriteRunReport(summary *engine.RunSummary, options Options) (string, error) {
	if summary == nil || len(summary.Results) == 0 {
		return "", fmt.Errorf("no results to export")
	}

	filename := re.generateFilename(summary, options)
	outputPath := filepath.Join(options.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = re.exportToCSV(summary, outputPath)
	case FormatJSON:
		err = re.exportToJSON(summary, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}

	if err != nil {
		return "", err
	}

	re.logger.Info("Run report exported",
		zap.String("file", outputPath),
		zap.Int("wallets", len(summary.Results)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// AppendHistory adds the run's per-wallet rows to the rolling history file
// in outputDir. The file accumulates across runs, so repeated dumps of the
// same launch wave stay greppable in one place.
func (re *ReportExporter) AppendHistory(summary *engine.RunSummary, outputDir string) error {
	if summary == nil || len(summary.Results) == 0 {
		return nil
	}

	historyPath := filepath.Join(outputDir, "history.csv")
	writer, err := logger.NewSafeCSVWriter(historyPath, engine.CSVHeaders(), historyFlushInterval, re.logger)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}

	for _, result := range summary.Results {
		if err := writer.WriteRecord(result.CSVRow()); err != nil {
			writer.Close()
			return fmt.Errorf("failed to append history row: %w", err)
		}
	}

	return writer.Close()
}

// generateFilename creates a filename based on the run being exported
func (re *ReportExporter) generateFilename(summary *engine.RunSummary, options Options) string {
	timestamp := summary.StartedAt.Format("20060102_150405")
	return fmt.Sprintf("sell_run_%s_%s.%s", shortMint(summary.Mint), timestamp, options.Format)
}

func shortMint(mint string) string {
	if len(mint) > 8 {
		return mint[:8]
	}
	return mint
}

// exportToCSV writes one row per wallet result
func (re *ReportExporter) exportToCSV(summary *engine.RunSummary, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(engine.CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, result := range summary.Results {
		if err := writer.Write(result.CSVRow()); err != nil {
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}

	return nil
}

// exportToJSON writes the full summary with export metadata
func (re *ReportExporter) exportToJSON(summary *engine.RunSummary, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime time.Time          `json:"export_time"`
		Run        *engine.RunSummary `json:"run"`
	}{
		ExportTime: time.Now(),
		Run:        summary,
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
