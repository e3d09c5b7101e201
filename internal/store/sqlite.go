package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"crossroads/internal/sims/intersection"
)

// Store is an SQLite-backed episode history. It is safe for concurrent use;
// writes are serialized on a single connection.
type Store struct {
	db          *sql.DB
	sampleEvery int
}

// EpisodeInfo describes an episode when it starts.
type EpisodeInfo struct {
	Scenario       intersection.Scenario
	RewardFunction string
	Controller     string
	Seed           int64
	TrialTime      float64
	DT             float64
}

// EpisodeResult is what FinishEpisode stores.
type EpisodeResult struct {
	Steps       int
	TotalReward float64
	Metrics     intersection.Metrics
}

// Episode is a row of the episodes table.
type Episode struct {
	ID         int64
	Info       EpisodeInfo
	StartedAt  time.Time
	FinishedAt time.Time
	Finished   bool

	Steps       int
	TotalReward float64
	SimTime     float64
	TotalWait   float64
	AverageWait float64
	CarsPassed  int
	NumCrashes  int
	Spawned     int
	Truncated   bool
	Terminated  bool
}

// Tick is a sampled row of the ticks table.
type Tick struct {
	Step        int
	Time        float64
	Reward      float64
	HorizLight  intersection.Light
	VertLight   intersection.Light
	CarsPerLane [intersection.NumLanes]int
	TotalWait   float64
	CarsPassed  int
	NumCrashes  int
}

// Open opens (creating if needed) the database at path. Ticks are sampled
// every step until SetSampleEvery says otherwise.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, sampleEvery: 1}, nil
}

// SetSampleEvery makes RecordTick keep one step in n. Values below 1 mean 1.
func (s *Store) SetSampleEvery(n int) {
	s.sampleEvery = max(n, 1)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginEpisode inserts an unfinished episode and returns its id.
func (s *Store) BeginEpisode(ctx context.Context, info EpisodeInfo) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes (scenario, reward_function, controller, seed, trial_time, dt, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.Scenario.String(), info.RewardFunction, info.Controller, info.Seed,
		info.TrialTime, info.DT, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to insert episode: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read episode id: %w", err)
	}
	return id, nil
}

// RecordTick stores step's metrics if step falls on the sampling interval
// or the episode is done. It reports whether a row was written.
func (s *Store) RecordTick(ctx context.Context, episodeID int64, step int, reward float64, m intersection.Metrics) (bool, error) {
	if step%s.sampleEvery != 0 && !m.Done() {
		return false, nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ticks (episode_id, step, sim_time, reward, horiz_light, vert_light,
			cars_lr, cars_rl, cars_ud, cars_du, total_wait, cars_passed, num_crashes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		episodeID, step, m.Time, reward, m.HorizLight.Short(), m.VertLight.Short(),
		m.CarsPerLane[intersection.LaneLeftRight], m.CarsPerLane[intersection.LaneRightLeft],
		m.CarsPerLane[intersection.LaneUpDown], m.CarsPerLane[intersection.LaneDownUp],
		m.TotalWaitTime, m.CarsPassed, m.NumCrashes)
	if err != nil {
		return false, fmt.Errorf("failed to insert tick %d: %w", step, err)
	}
	return true, nil
}

// FinishEpisode stores the final counters of an episode.
func (s *Store) FinishEpisode(ctx context.Context, episodeID int64, r EpisodeResult) error {
	m := r.Metrics
	res, err := s.db.ExecContext(ctx, `
		UPDATE episodes SET finished_at = ?, steps = ?, total_reward = ?, sim_time = ?,
			total_wait = ?, average_wait = ?, cars_passed = ?, num_crashes = ?, spawned = ?,
			truncated = ?, terminated = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), r.Steps, r.TotalReward, m.Time,
		m.TotalWaitTime, m.AverageWaitTime, m.CarsPassed, m.NumCrashes, m.Spawned,
		boolToInt(m.Truncated), boolToInt(m.Terminated), episodeID)
	if err != nil {
		return fmt.Errorf("failed to finish episode %d: %w", episodeID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("episode %d not found", episodeID)
	}
	return nil
}

// ListEpisodes returns the most recent episodes first. limit <= 0 returns all.
func (s *Store) ListEpisodes(ctx context.Context, limit int) ([]Episode, error) {
	query := `
		SELECT id, scenario, reward_function, controller, seed, trial_time, dt, started_at,
			finished_at, steps, total_reward, sim_time, total_wait, average_wait,
			cars_passed, num_crashes, spawned, truncated, terminated
		FROM episodes ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		var (
			e          Episode
			scenario   string
			startedAt  string
			finishedAt sql.NullString
			truncated  int
			terminated int
		)
		if err := rows.Scan(&e.ID, &scenario, &e.Info.RewardFunction, &e.Info.Controller,
			&e.Info.Seed, &e.Info.TrialTime, &e.Info.DT, &startedAt, &finishedAt,
			&e.Steps, &e.TotalReward, &e.SimTime, &e.TotalWait, &e.AverageWait,
			&e.CarsPassed, &e.NumCrashes, &e.Spawned, &truncated, &terminated); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		if sc, err := intersection.ParseScenario(scenario); err == nil {
			e.Info.Scenario = sc
		}
		e.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if finishedAt.Valid {
			e.Finished = true
			e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt.String)
		}
		e.Truncated = truncated != 0
		e.Terminated = terminated != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate episodes: %w", err)
	}
	return out, nil
}

// Ticks returns the sampled ticks of an episode in step order.
func (s *Store) Ticks(ctx context.Context, episodeID int64) ([]Tick, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, sim_time, reward, horiz_light, vert_light,
			cars_lr, cars_rl, cars_ud, cars_du, total_wait, cars_passed, num_crashes
		FROM ticks WHERE episode_id = ? ORDER BY step`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticks: %w", err)
	}
	defer rows.Close()

	var out []Tick
	for rows.Next() {
		var (
			tk          Tick
			horiz, vert string
		)
		if err := rows.Scan(&tk.Step, &tk.Time, &tk.Reward, &horiz, &vert,
			&tk.CarsPerLane[0], &tk.CarsPerLane[1], &tk.CarsPerLane[2], &tk.CarsPerLane[3],
			&tk.TotalWait, &tk.CarsPassed, &tk.NumCrashes); err != nil {
			return nil, fmt.Errorf("failed to scan tick: %w", err)
		}
		tk.HorizLight, _ = intersection.ParseLight(horiz)
		tk.VertLight, _ = intersection.ParseLight(vert)
		out = append(out, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ticks: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
