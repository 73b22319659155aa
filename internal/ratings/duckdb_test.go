// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package ratings

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/latentrank/internal/recommend"
)

// createRatingsDB writes the given statements to a fresh database file and
// returns its path.
func createRatingsDB(t *testing.T, statements ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ratings.duckdb")
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer conn.Close()

	for _, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("Exec(%q) error = %v", stmt, err)
		}
	}
	return path
}

func TestDuckDBSource_Load(t *testing.T) {
	path := createRatingsDB(t,
		`CREATE TABLE ratings (item_id VARCHAR, user_id VARCHAR, rating DOUBLE)`,
		`INSERT INTO ratings VALUES
			('I3', 'U1', 3), ('I1', 'U1', 5), ('I2', 'U2', 4),
			('I3', 'U2', 3), ('I4', 'U2', 0), ('I4', 'U1', NULL)`,
	)

	ctx := context.Background()
	src, err := OpenDuckDB(ctx, path, DefaultDuckDBOptions())
	if err != nil {
		t.Fatalf("OpenDuckDB() error = %v", err)
	}
	defer src.Close()

	got, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := []string{"I1", "I2", "I3", "I4"}; !slices.Equal(got.ItemIDs, want) {
		t.Errorf("ItemIDs = %v, want %v", got.ItemIDs, want)
	}
	if want := []string{"U1", "U2"}; !slices.Equal(got.UserIDs, want) {
		t.Errorf("UserIDs = %v, want %v", got.UserIDs, want)
	}

	want := mat.NewDense(4, 2, []float64{
		5, 0,
		0, 4,
		3, 3,
		0, 0,
	})
	if !mat.Equal(got.R, want) {
		t.Errorf("R = %v, want %v", mat.Formatted(got.R), mat.Formatted(want))
	}
	if got.Observed() != 4 {
		t.Errorf("Observed() = %d, want 4", got.Observed())
	}
}

func TestDuckDBSource_CustomColumns(t *testing.T) {
	path := createRatingsDB(t,
		`CREATE SCHEMA feedback`,
		`CREATE TABLE feedback.scores ("movie id" INTEGER, viewer INTEGER, stars INTEGER)`,
		`INSERT INTO feedback.scores VALUES (10, 1, 4), (20, 2, 2)`,
	)

	ctx := context.Background()
	src, err := OpenDuckDB(ctx, path, DuckDBOptions{
		Table:        "feedback.scores",
		ItemColumn:   "movie id",
		UserColumn:   "viewer",
		RatingColumn: "stars",
	})
	if err != nil {
		t.Fatalf("OpenDuckDB() error = %v", err)
	}
	defer src.Close()

	got, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := []string{"10", "20"}; !slices.Equal(got.ItemIDs, want) {
		t.Errorf("ItemIDs = %v, want %v", got.ItemIDs, want)
	}
	if got.R.At(0, 0) != 4 || got.R.At(1, 1) != 2 {
		t.Errorf("R = %v, want diag(4, 2)", mat.Formatted(got.R))
	}
}

func TestDuckDBSource_Load_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statements []string
		opts       DuckDBOptions
		wantErr    error
	}{
		{
			name: "duplicate pair",
			statements: []string{
				`CREATE TABLE ratings (item_id VARCHAR, user_id VARCHAR, rating DOUBLE)`,
				`INSERT INTO ratings VALUES ('I1', 'U1', 5), ('I1', 'U1', 3)`,
			},
			opts:    DefaultDuckDBOptions(),
			wantErr: recommend.ErrDataFormat,
		},
		{
			name: "empty table",
			statements: []string{
				`CREATE TABLE ratings (item_id VARCHAR, user_id VARCHAR, rating DOUBLE)`,
			},
			opts:    DefaultDuckDBOptions(),
			wantErr: recommend.ErrDataFormat,
		},
		{
			name: "null identifier",
			statements: []string{
				`CREATE TABLE ratings (item_id VARCHAR, user_id VARCHAR, rating DOUBLE)`,
				`INSERT INTO ratings VALUES (NULL, 'U1', 5)`,
			},
			opts:    DefaultDuckDBOptions(),
			wantErr: recommend.ErrDataFormat,
		},
		{
			name: "missing table",
			statements: []string{
				`CREATE TABLE other (x INTEGER)`,
			},
			opts:    DefaultDuckDBOptions(),
			wantErr: recommend.ErrIO,
		},
		{
			name: "empty column name",
			statements: []string{
				`CREATE TABLE ratings (item_id VARCHAR, user_id VARCHAR, rating DOUBLE)`,
			},
			opts:    DuckDBOptions{Table: "ratings", ItemColumn: "", UserColumn: "user_id", RatingColumn: "rating"},
			wantErr: recommend.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createRatingsDB(t, tt.statements...)

			ctx := context.Background()
			src, err := OpenDuckDB(ctx, path, tt.opts)
			if err != nil {
				t.Fatalf("OpenDuckDB() error = %v", err)
			}
			defer src.Close()

			_, err = src.Load(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "ratings", want: `"ratings"`},
		{in: "main.ratings", want: `"main"."ratings"`},
		{in: `we"ird`, want: `"we""ird"`},
		{in: "", wantErr: true},
		{in: "a..b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := quoteIdentifier(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("quoteIdentifier(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("quoteIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
