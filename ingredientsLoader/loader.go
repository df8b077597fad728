package ingredientsLoader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"foodgram/metrics"
	"foodgram/orm"

	"github.com/rs/zerolog/log"
)

// Upserter inserts an ingredient or updates the measurement unit of the
// ingredient with the same name.
type Upserter interface {
	UpsertIngredient(ctx context.Context, ingredient *orm.Ingredient) error
}

// Report counts the processed rows. Total = Loaded + Failed.
type Report struct {
	Total  int
	Loaded int
	Failed int
}

// Load reads headerless "name,measurement_unit" rows and upserts each one by
// name. Rows that cannot be parsed or stored are counted as failed and
// skipped.
func Load(ctx context.Context, r io.Reader, store Upserter) (Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var report Report
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		switch {
		case errors.As(err, &parseErr):
			report.fail(line, err)

			continue
		case err != nil:
			return report, fmt.Errorf("read ingredients: %w", err)
		}

		ingredient, err := parseRecord(record)
		if err != nil {
			report.fail(line, err)

			continue
		}

		if err := store.UpsertIngredient(ctx, ingredient); err != nil {
			report.fail(line, err)

			continue
		}

		report.Total++
		report.Loaded++
		metrics.IngredientsLoaded.WithLabelValues("loaded").Inc()
	}

	log.Info().
		Int("total", report.Total).
		Int("loaded", report.Loaded).
		Int("failed", report.Failed).
		Msg("ingredients loaded")

	return report, nil
}

// LoadFile opens path and passes it to Load.
func LoadFile(ctx context.Context, path string, store Upserter) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open ingredients file: %w", err)
	}
	defer f.Close()

	return Load(ctx, f, store)
}

func (r *Report) fail(line int, err error) {
	r.Total++
	r.Failed++
	metrics.IngredientsLoaded.WithLabelValues("failed").Inc()
	log.Warn().Err(err).Int("line", line).Msg("skipping ingredient row")
}

func parseRecord(record []string) (*orm.Ingredient, error) {
	if len(record) != 2 {
		return nil, fmt.Errorf("expected 2 fields, got %d", len(record))
	}

	name := strings.TrimSpace(record[0])
	unit := strings.TrimSpace(record[1])
	if name == "" || unit == "" {
		return nil, errors.New("name and measurement unit are required")
	}

	return &orm.Ingredient{Name: name, MeasurementUnit: unit}, nil
}
