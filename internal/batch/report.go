// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package batch

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/latentrank/internal/recommend"
)

// Report summarizes one run. It is filled in as stages complete, so a run
// that fails part way still reports what it got through.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Source     string    `json:"source"`
	Sink       string    `json:"sink"`

	Hyperparameters recommend.Hyperparameters `json:"hyperparameters"`
	Seed            int64                     `json:"seed"`
	MaxItems        int                       `json:"max_items"`

	Items    int `json:"items"`
	Users    int `json:"users"`
	Observed int `json:"observed"`

	LossTrace LossTrace `json:"loss_trace"`
	FinalLoss Float     `json:"final_loss"`

	// StageSeconds holds the wall time of each completed stage.
	StageSeconds map[string]float64 `json:"stage_seconds"`

	ItemsRecommended            int `json:"items_recommended"`
	UsersWithRecommendations    int `json:"users_with_recommendations"`
	UsersWithoutRecommendations int `json:"users_without_recommendations"`

	Error string `json:"error,omitempty"`
}

// Float is a float64 that encodes NaN and infinities as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	return appendFloat(nil, float64(f)), nil
}

// LossTrace is a loss series whose non-finite entries encode as null, so a
// diverged run still produces a valid document.
type LossTrace []float64

// MarshalJSON implements json.Marshaler.
func (lt LossTrace) MarshalJSON() ([]byte, error) {
	if lt == nil {
		return []byte("[]"), nil
	}

	buf := make([]byte, 0, 2+len(lt)*12)
	buf = append(buf, '[')
	for i, v := range lt {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendFloat(buf, v)
	}
	return append(buf, ']'), nil
}

func appendFloat(buf []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(buf, "null"...)
	}
	return strconv.AppendFloat(buf, v, 'g', -1, 64)
}

// WriteFile writes the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report is meant to be readable by collectors
		return fmt.Errorf("write run report %s: %w: %w", path, err, recommend.ErrIO)
	}
	return nil
}
