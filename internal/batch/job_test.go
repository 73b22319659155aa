// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package batch

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/latentrank/internal/logging"
	"github.com/tomtom215/latentrank/internal/metrics"
	"github.com/tomtom215/latentrank/internal/recommend"
)

type fakeSource struct {
	ratings *recommend.Ratings
	err     error
	onLoad  func()
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Load(context.Context) (*recommend.Ratings, error) {
	if s.onLoad != nil {
		s.onLoad()
	}
	return s.ratings, s.err
}

type fakeSink struct {
	got   []recommend.Recommendation
	calls int
	err   error
}

func (s *fakeSink) Name() string { return "memory" }

func (s *fakeSink) Write(_ context.Context, recs []recommend.Recommendation) error {
	s.calls++
	s.got = recs
	return s.err
}

func smallRatings(t *testing.T) *recommend.Ratings {
	t.Helper()

	r, err := recommend.NewRatings(
		mat.NewDense(3, 2, []float64{5, 0, 0, 4, 3, 3}),
		[]string{"I1", "I2", "I3"},
		[]string{"U1", "U2"},
	)
	if err != nil {
		t.Fatalf("NewRatings() error = %v", err)
	}
	return r
}

func defaultOptions() Options {
	return Options{
		Hyperparameters: recommend.DefaultHyperparameters(),
		Seed:            recommend.DefaultSeed,
		LogEvery:        100,
	}
}

func TestNewJob(t *testing.T) {
	src := &fakeSource{}
	snk := &fakeSink{}

	tests := []struct {
		name    string
		source  Source
		sink    Sink
		modify  func(*Options)
		wantErr bool
	}{
		{name: "valid", source: src, sink: snk, modify: func(*Options) {}},
		{name: "nil source", source: nil, sink: snk, modify: func(*Options) {}, wantErr: true},
		{name: "nil sink", source: src, sink: nil, modify: func(*Options) {}, wantErr: true},
		{name: "bad hyperparameters", source: src, sink: snk, modify: func(o *Options) { o.Hyperparameters.Alpha = 0 }, wantErr: true},
		{name: "negative cap", source: src, sink: snk, modify: func(o *Options) { o.MaxItems = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			tt.modify(&opts)

			_, err := NewJob(tt.source, tt.sink, opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewJob() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, recommend.ErrConfiguration) {
				t.Errorf("NewJob() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestJob_Run(t *testing.T) {
	ratings := smallRatings(t)
	snk := &fakeSink{}

	job, err := NewJob(&fakeSource{ratings: ratings}, snk, defaultOptions())
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	ctx := logging.ContextWithRunID(context.Background(), "run-under-test")
	report, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if snk.calls != 1 {
		t.Fatalf("sink called %d times, want 1", snk.calls)
	}
	if len(snk.got) != 2 || snk.got[0].UserID != "U1" || snk.got[1].UserID != "U2" {
		t.Fatalf("sink got %+v, want one list per user in input order", snk.got)
	}
	for _, rec := range snk.got {
		for _, item := range rec.ItemIDs {
			if item == "I3" {
				t.Errorf("user %s was recommended I3, which every user rated", rec.UserID)
			}
		}
	}

	if report.RunID != "run-under-test" {
		t.Errorf("RunID = %q, want run-under-test", report.RunID)
	}
	if report.Items != 3 || report.Users != 2 || report.Observed != 4 {
		t.Errorf("dims = (%d, %d, %d observed), want (3, 2, 4)", report.Items, report.Users, report.Observed)
	}
	if len(report.LossTrace) != 500 {
		t.Errorf("len(LossTrace) = %d, want 500", len(report.LossTrace))
	}
	if float64(report.FinalLoss) != report.LossTrace[len(report.LossTrace)-1] {
		t.Errorf("FinalLoss = %v, want last trace entry", report.FinalLoss)
	}
	for _, stage := range []string{metrics.StageLoad, metrics.StageTrain, metrics.StageRecommend, metrics.StageWrite} {
		if _, ok := report.StageSeconds[stage]; !ok {
			t.Errorf("StageSeconds missing %q", stage)
		}
	}
	if report.UsersWithRecommendations+report.UsersWithoutRecommendations != 2 {
		t.Errorf("users with + without = %d, want 2",
			report.UsersWithRecommendations+report.UsersWithoutRecommendations)
	}
	if report.Error != "" {
		t.Errorf("Error = %q, want empty", report.Error)
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Errorf("FinishedAt %v before StartedAt %v", report.FinishedAt, report.StartedAt)
	}
}

func TestJob_Run_Deterministic(t *testing.T) {
	run := func() []recommend.Recommendation {
		snk := &fakeSink{}
		job, err := NewJob(&fakeSource{ratings: smallRatings(t)}, snk, defaultOptions())
		if err != nil {
			t.Fatalf("NewJob() error = %v", err)
		}
		if _, err := job.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return snk.got
	}

	a, b := run(), run()
	for i := range a {
		if !slices.Equal(a[i].ItemIDs, b[i].ItemIDs) {
			t.Errorf("user %s: %v vs %v across identical runs", a[i].UserID, a[i].ItemIDs, b[i].ItemIDs)
		}
	}
}

func TestJob_Run_SourceError(t *testing.T) {
	snk := &fakeSink{}
	job, err := NewJob(&fakeSource{err: recommend.ErrDataFormat}, snk, defaultOptions())
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	report, err := job.Run(context.Background())
	if !errors.Is(err, recommend.ErrDataFormat) {
		t.Fatalf("Run() error = %v, want ErrDataFormat", err)
	}
	if snk.calls != 0 {
		t.Errorf("sink called %d times after failed load", snk.calls)
	}
	if report == nil || report.Error == "" {
		t.Fatalf("report = %+v, want error recorded", report)
	}
	if _, ok := report.StageSeconds[metrics.StageLoad]; ok {
		t.Error("failed load stage should not have a duration")
	}
}

func TestJob_Run_SinkError(t *testing.T) {
	snk := &fakeSink{err: recommend.ErrIO}
	job, err := NewJob(&fakeSource{ratings: smallRatings(t)}, snk, defaultOptions())
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	before := testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("memory"))

	report, err := job.Run(context.Background())
	if !errors.Is(err, recommend.ErrIO) {
		t.Fatalf("Run() error = %v, want ErrIO", err)
	}
	if !strings.Contains(report.Error, "memory") {
		t.Errorf("report.Error = %q, want sink name", report.Error)
	}
	if len(report.LossTrace) != 500 {
		t.Errorf("len(LossTrace) = %d, want training recorded before the failed write", len(report.LossTrace))
	}
	if got := testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("memory")); got != before+1 {
		t.Errorf("sink errors = %v, want %v", got, before+1)
	}
}

func TestJob_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snk := &fakeSink{}
	src := &fakeSource{ratings: smallRatings(t), onLoad: cancel}
	job, err := NewJob(src, snk, defaultOptions())
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	if _, err := job.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if snk.calls != 0 {
		t.Errorf("sink called %d times after cancellation", snk.calls)
	}
}

func TestJob_Run_DivergenceWarns(t *testing.T) {
	var buf bytes.Buffer
	original := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(original)

	opts := defaultOptions()
	opts.Hyperparameters.Alpha = 50
	opts.Hyperparameters.Iterations = 200

	job, err := NewJob(&fakeSource{ratings: smallRatings(t)}, &fakeSink{}, opts)
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	report, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want divergence to pass through", err)
	}
	if metrics.LossIsFinite(float64(report.FinalLoss)) {
		t.Fatalf("FinalLoss = %v, want non-finite with alpha=50", report.FinalLoss)
	}
	if !strings.Contains(buf.String(), "Training diverged") {
		t.Errorf("expected divergence warning in log, got: %s", buf.String())
	}
}
