// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package ratings

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/latentrank/internal/logging"
	"github.com/tomtom215/latentrank/internal/recommend"
)

// DuckDBOptions names the long-format ratings table and its columns.
type DuckDBOptions struct {
	Table        string
	ItemColumn   string
	UserColumn   string
	RatingColumn string
}

// DefaultDuckDBOptions reads ratings(item_id, user_id, rating).
func DefaultDuckDBOptions() DuckDBOptions {
	return DuckDBOptions{
		Table:        "ratings",
		ItemColumn:   "item_id",
		UserColumn:   "user_id",
		RatingColumn: "rating",
	}
}

// DuckDBSource reads ratings from a DuckDB database file opened read-only.
type DuckDBSource struct {
	conn *sql.DB
	path string
	opts DuckDBOptions
}

// OpenDuckDB opens the database at path in read-only mode and verifies the
// connection.
func OpenDuckDB(ctx context.Context, path string, opts DuckDBOptions) (*DuckDBSource, error) {
	// Extensions are never needed for a plain pivot, and autoloading them can
	// hang without network access.
	connStr := path + "?access_mode=read_only&autoinstall_known_extensions=false&autoload_known_extensions=false"

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w: %w", path, err, recommend.ErrIO)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close() // best effort, the ping error is what matters
		return nil, fmt.Errorf("connect duckdb %s: %w: %w", path, err, recommend.ErrIO)
	}

	return &DuckDBSource{conn: conn, path: path, opts: opts}, nil
}

// Name identifies the source in logs and metrics.
func (s *DuckDBSource) Name() string {
	return "duckdb"
}

// Load queries every (item, user, rating) row and pivots them into a dense
// matrix. Item and user identifiers are sorted ascending. Rows whose rating
// is NULL or 0 still register their identifiers but leave the cell
// unobserved.
func (s *DuckDBSource) Load(ctx context.Context) (*recommend.Ratings, error) {
	query, err := s.selectQuery()
	if err != nil {
		return nil, err
	}

	logging.Debug().Str("query", query).Msg("Loading ratings from DuckDB")

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w: %w", err, recommend.ErrIO)
	}
	defer rows.Close()

	var triples []rating
	for rows.Next() {
		var item, user sql.NullString
		var value sql.NullFloat64
		if err := rows.Scan(&item, &user, &value); err != nil {
			return nil, fmt.Errorf("scan rating row: %w: %w", err, recommend.ErrDataFormat)
		}
		if !item.Valid || !user.Valid || item.String == "" || user.String == "" {
			return nil, fmt.Errorf("rating row %d has a missing identifier: %w", len(triples)+1, recommend.ErrDataFormat)
		}
		triples = append(triples, rating{item: item.String, user: user.String, value: value.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w: %w", err, recommend.ErrIO)
	}

	return pivot(triples)
}

// Close releases the connection.
func (s *DuckDBSource) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("close duckdb %s: %w: %w", s.path, err, recommend.ErrIO)
	}
	return nil
}

func (s *DuckDBSource) selectQuery() (string, error) {
	table, err := quoteIdentifier(s.opts.Table)
	if err != nil {
		return "", err
	}
	item, err := quoteIdentifier(s.opts.ItemColumn)
	if err != nil {
		return "", err
	}
	user, err := quoteIdentifier(s.opts.UserColumn)
	if err != nil {
		return "", err
	}
	value, err := quoteIdentifier(s.opts.RatingColumn)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"SELECT CAST(%s AS VARCHAR), CAST(%s AS VARCHAR), CAST(%s AS DOUBLE) FROM %s",
		item, user, value, table,
	), nil
}

// quoteIdentifier quotes each dot-separated part of name as a SQL identifier.
func quoteIdentifier(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty SQL identifier: %w", recommend.ErrConfiguration)
	}

	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "" {
			return "", fmt.Errorf("invalid SQL identifier %q: %w", name, recommend.ErrConfiguration)
		}
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, "."), nil
}

type rating struct {
	item  string
	user  string
	value float64
}

// pivot turns long-format rows into a dense items x users matrix.
func pivot(triples []rating) (*recommend.Ratings, error) {
	itemSet := make(map[string]int)
	userSet := make(map[string]int)
	for _, t := range triples {
		itemSet[t.item] = 0
		userSet[t.user] = 0
	}

	itemIDs := slices.Sorted(maps.Keys(itemSet))
	userIDs := slices.Sorted(maps.Keys(userSet))
	for i, id := range itemIDs {
		itemSet[id] = i
	}
	for u, id := range userIDs {
		userSet[id] = u
	}

	if len(itemIDs) == 0 || len(userIDs) == 0 {
		return nil, fmt.Errorf("ratings table has no rows: %w", recommend.ErrDataFormat)
	}

	m := mat.NewDense(len(itemIDs), len(userIDs), nil)
	for _, t := range triples {
		if t.value == 0 {
			continue
		}
		if math.IsNaN(t.value) || math.IsInf(t.value, 0) {
			return nil, fmt.Errorf("non-finite rating for item %q, user %q: %w", t.item, t.user, recommend.ErrDataFormat)
		}

		i, u := itemSet[t.item], userSet[t.user]
		if m.At(i, u) != 0 {
			return nil, fmt.Errorf("duplicate rating for item %q, user %q: %w", t.item, t.user, recommend.ErrDataFormat)
		}
		m.Set(i, u, t.value)
	}

	return recommend.NewRatings(m, itemIDs, userIDs)
}
