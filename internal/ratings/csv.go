// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package ratings

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/latentrank/internal/logging"
	"github.com/tomtom215/latentrank/internal/recommend"
)

// Orientation tells which axis of a wide table holds items.
type Orientation string

const (
	// ItemsByUsers means rows are items and columns are users.
	ItemsByUsers Orientation = "items_by_users"

	// UsersByItems means rows are users and columns are items. The table is
	// transposed on load.
	UsersByItems Orientation = "users_by_items"
)

// CSVOptions controls how a wide ratings table is parsed.
type CSVOptions struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune

	// Orientation selects the item axis. Empty means ItemsByUsers.
	Orientation Orientation

	// RowIDs reports whether the first column holds row identifiers. When
	// false every column is data and rows are labelled "0", "1", ...
	RowIDs bool
}

// DefaultCSVOptions returns comma-delimited, items-by-users, with row IDs.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:   ',',
		Orientation: ItemsByUsers,
		RowIDs:      true,
	}
}

// CSVSource reads ratings from a delimited file on disk.
type CSVSource struct {
	path string
	opts CSVOptions
}

// NewCSVSource creates a source for the file at path.
//
//nolint:gocritic // CSVOptions is small
func NewCSVSource(path string, opts CSVOptions) *CSVSource {
	return &CSVSource{path: path, opts: opts}
}

// Name identifies the source in logs and metrics.
func (s *CSVSource) Name() string {
	return "csv"
}

// Load opens the file and parses it.
func (s *CSVSource) Load(ctx context.Context) (*recommend.Ratings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open ratings file %s: %w: %w", s.path, err, recommend.ErrIO)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Warn().Err(cerr).Str("path", s.path).Msg("Failed to close ratings file")
		}
	}()

	r, err := ParseCSV(f, s.opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return r, nil
}

// Close is a no-op; the file is closed by Load.
func (s *CSVSource) Close() error {
	return nil
}

// ParseCSV parses a wide ratings table.
//
// The first record is the header. With RowIDs set, its first field is an
// ignored corner label and the rest are column identifiers; every following
// record starts with its row identifier. Cells are floats, and an empty cell
// is an unobserved rating.
//
//nolint:gocritic // CSVOptions is small
func ParseCSV(r io.Reader, opts CSVOptions) (*recommend.Ratings, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	// Every record must match the header width.
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("ratings table is empty: %w", recommend.ErrDataFormat)
	}
	if err != nil {
		return nil, wrapReadError(err)
	}

	colIDs := header
	if opts.RowIDs {
		colIDs = header[1:]
	}
	colIDs = trimAll(colIDs)
	if len(colIDs) == 0 {
		return nil, fmt.Errorf("ratings table has no data columns: %w", recommend.ErrDataFormat)
	}
	if err := checkIDs("column", colIDs); err != nil {
		return nil, err
	}

	var rowIDs []string
	var data []float64
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapReadError(err)
		}

		cells := record
		if opts.RowIDs {
			rowIDs = append(rowIDs, strings.TrimSpace(record[0]))
			cells = record[1:]
		} else {
			rowIDs = append(rowIDs, strconv.Itoa(len(rowIDs)))
		}

		for j, cell := range cells {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, colIDs[j], err)
			}
			data = append(data, v)
		}
	}

	if len(rowIDs) == 0 {
		return nil, fmt.Errorf("ratings table has no data rows: %w", recommend.ErrDataFormat)
	}
	if err := checkIDs("row", rowIDs); err != nil {
		return nil, err
	}

	m := mat.NewDense(len(rowIDs), len(colIDs), data)

	switch opts.Orientation {
	case ItemsByUsers, "":
		return recommend.NewRatings(m, rowIDs, colIDs)
	case UsersByItems:
		return recommend.NewRatings(mat.DenseCopyOf(m.T()), colIDs, rowIDs)
	default:
		return nil, fmt.Errorf("unknown orientation %q: %w", opts.Orientation, recommend.ErrConfiguration)
	}
}

// parseCell converts one field. Empty means unobserved.
func parseCell(field string) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rating %q: %w", field, recommend.ErrDataFormat)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite rating %q: %w", field, recommend.ErrDataFormat)
	}
	return v, nil
}

// wrapReadError classifies csv.Reader failures. Parse errors (ragged rows,
// bad quoting) are format errors; anything else came from the reader.
func wrapReadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %w", parseErr, recommend.ErrDataFormat)
	}
	return fmt.Errorf("read ratings: %w: %w", err, recommend.ErrIO)
}

// checkIDs rejects empty and duplicate identifiers.
func checkIDs(axis string, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("%s %d has an empty identifier: %w", axis, i, recommend.ErrDataFormat)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate %s identifier %q: %w", axis, id, recommend.ErrDataFormat)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
