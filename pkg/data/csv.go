package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/tunogya/rally/pkg/model"
)

// CSVHeader is the column layout read and written by the CSV provider
var CSVHeader = []string{"series", "game_id", "entity", "outcome", "played_at"}

// CSVProvider implements ResultProvider for CSV files
type CSVProvider struct {
	filePath string
	results  []model.Result
	loaded   bool
	skipped  int
}

// NewCSVProvider creates a new CSV-based result provider
func NewCSVProvider(filePath string) *CSVProvider {
	return &CSVProvider{
		filePath: filePath,
		results:  make([]model.Result, 0),
	}
}

// Skipped returns how many records failed to parse
func (p *CSVProvider) Skipped() int {
	return p.skipped
}

// loadIfNeeded loads the CSV file if not already loaded
func (p *CSVProvider) loadIfNeeded() error {
	if p.loaded {
		return nil
	}

	file, err := os.Open(p.filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	results, skipped, err := ReadCSV(file)
	if err != nil {
		return err
	}

	p.results = results
	p.skipped = skipped
	p.loaded = true
	return nil
}

// ReadCSV parses results from r. Records that fail to parse are skipped and counted.
func ReadCSV(r io.Reader) ([]model.Result, int, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[col] = i
	}

	var results []model.Result
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV record: %w", err)
		}

		result, err := parseRecord(record, colMap)
		if err != nil {
			skipped++
			continue
		}
		results = append(results, result)
	}

	return results, skipped, nil
}

// parseRecord parses a CSV record into a Result
func parseRecord(record []string, colMap map[string]int) (model.Result, error) {
	getValue := func(name string) string {
		if idx, ok := colMap[name]; ok && idx < len(record) {
			return record[idx]
		}
		return ""
	}

	entity := getValue("entity")
	if entity == "" {
		return model.Result{}, fmt.Errorf("missing entity")
	}

	outcome, err := strconv.ParseFloat(getValue("outcome"), 64)
	if err != nil {
		return model.Result{}, fmt.Errorf("invalid outcome: %w", err)
	}

	playedAt, err := time.Parse(time.RFC3339, getValue("played_at"))
	if err != nil {
		return model.Result{}, fmt.Errorf("invalid played_at: %w", err)
	}

	return model.Result{
		Series:   getValue("series"),
		GameID:   getValue("game_id"),
		Entity:   entity,
		Outcome:  outcome,
		PlayedAt: playedAt,
	}, nil
}

// WriteCSV writes results in the layout ReadCSV expects
func WriteCSV(w io.Writer, results []model.Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		record := []string{
			r.Series,
			r.GameID,
			r.Entity,
			strconv.FormatFloat(r.Outcome, 'g', -1, 64),
			r.PlayedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// FetchResults retrieves results within the specified time range
func (p *CSVProvider) FetchResults(ctx context.Context, series string, start, end time.Time) ([]model.Result, error) {
	if err := p.loadIfNeeded(); err != nil {
		return nil, err
	}
	return filterResults(p.results, series, start, end), nil
}
