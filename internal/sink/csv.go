// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/latentrank/internal/recommend"
)

// CSVSink writes recommendations to a delimited file, replacing it.
type CSVSink struct {
	path      string
	delimiter rune
}

// NewCSVSink creates a sink for path. A zero delimiter means ','.
func NewCSVSink(path string, delimiter rune) *CSVSink {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVSink{path: path, delimiter: delimiter}
}

// Name identifies the sink in logs and metrics.
func (s *CSVSink) Name() string {
	return "csv"
}

// Write creates the file and writes one line per recommendation. Users with
// no recommendations get a line holding only their ID.
func (s *CSVSink) Write(ctx context.Context, recs []recommend.Recommendation) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", s.path, err, recommend.ErrIO)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w: %w", s.path, cerr, recommend.ErrIO)
		}
	}()

	if err := WriteCSV(f, recs, s.delimiter); err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; Write closes the file it creates.
func (s *CSVSink) Close() error {
	return nil
}

// WriteCSV writes recs to w, one record per user, quoting only where a field
// requires it.
func WriteCSV(w io.Writer, recs []recommend.Recommendation, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	for _, rec := range recs {
		if err := cw.Write(rec.Record()); err != nil {
			return fmt.Errorf("write recommendations for %q: %w: %w", rec.UserID, err, recommend.ErrIO)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush recommendations: %w: %w", err, recommend.ErrIO)
	}
	return nil
}
