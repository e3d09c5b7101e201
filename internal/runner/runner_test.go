package runner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"crossroads/internal/config"
	"crossroads/internal/sims/intersection"
	"crossroads/internal/store"
)

func testConfig(seed int64) *config.RunConfig {
	cfg := config.Default()
	cfg.Seed = &seed
	cfg.TrialTime = 2
	cfg.DT = 0.25
	cfg.Scenario = intersection.ScenarioRushHour
	return cfg
}

func TestEpisodeEndsAtHorizon(t *testing.T) {
	res, err := New(testConfig(1), nil, nil).Episode(context.Background(), 1)
	if err != nil {
		t.Fatalf("Episode: %v", err)
	}
	if res.Steps != 8 {
		t.Fatalf("steps = %d, want 8", res.Steps)
	}
	if !res.Metrics.Truncated || res.Metrics.Time != 2 {
		t.Fatalf("final metrics %+v", res.Metrics)
	}
	if res.Sim == nil || res.Sim.Status() != intersection.StatusTruncated {
		t.Fatal("result should carry the finished simulation")
	}
}

func TestRunUsesConsecutiveSeeds(t *testing.T) {
	cfg := testConfig(10)
	cfg.Episodes = 3
	first, err := New(cfg, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := New(cfg, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("episodes = %d, want 3", len(first))
	}
	for i, res := range first {
		if res.Seed != int64(10+i) {
			t.Errorf("episode %d seed = %d", i, res.Seed)
		}
		if res.TotalReward != second[i].TotalReward || res.Metrics != second[i].Metrics {
			t.Errorf("episode %d not reproducible", i)
		}
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(1)
	cfg.DT = 0
	if _, err := New(cfg, nil, nil).Run(context.Background()); !errors.Is(err, intersection.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestEpisodeHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(testConfig(1), nil, nil).Episode(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestEpisodeRecordsToStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	st.SetSampleEvery(1)

	res, err := New(testConfig(4), st, nil).Episode(ctx, 4)
	if err != nil {
		t.Fatalf("Episode: %v", err)
	}
	ticks, err := st.Ticks(ctx, res.EpisodeID)
	if err != nil {
		t.Fatalf("Ticks: %v", err)
	}
	if len(ticks) != res.Steps {
		t.Fatalf("recorded %d ticks for %d steps", len(ticks), res.Steps)
	}
	eps, err := st.ListEpisodes(ctx, 10)
	if err != nil {
		t.Fatalf("ListEpisodes: %v", err)
	}
	if len(eps) != 1 || !eps[0].Finished || eps[0].Info.Seed != 4 || eps[0].Info.Controller != "fixed" {
		t.Fatalf("episodes = %+v", eps)
	}
	if eps[0].Steps != res.Steps || eps[0].CarsPassed != res.Metrics.CarsPassed {
		t.Fatalf("stored summary %+v does not match result", eps[0])
	}
}
