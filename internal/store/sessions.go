package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hakbang/internal/activity"
	"hakbang/internal/goal"
	"hakbang/internal/reps"
	"hakbang/internal/sensor"
	"hakbang/internal/session"
)

const sessionColumns = `
	id, kind, strategy, started_at, ended_at, paused_seconds,
	distance_meters, duration_seconds, pace_seconds_per_km, avg_speed_kph,
	rep_count, calories, goal_id, goal_unit, goal_target, goal_progress,
	accepted_fixes, rejected_fixes, baseline_area, down_threshold, up_threshold,
	created_at`

// SaveSession writes a finished session and its trail in one transaction.
// Saving the same ID twice replaces the earlier row and trail.
func (db *DB) SaveSession(ctx context.Context, s session.FinalizedSession) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var goalID, goalUnit sql.NullString
	var goalTarget, goalProgress sql.NullFloat64
	if s.Goal != nil {
		goalID = sql.NullString{String: s.Goal.ID, Valid: s.Goal.ID != ""}
		goalUnit = sql.NullString{String: string(s.Goal.Unit), Valid: true}
		goalTarget = sql.NullFloat64{Float64: s.Goal.Target, Valid: true}
		goalProgress = sql.NullFloat64{Float64: s.GoalProgress, Valid: true}
	} else if s.GoalID != "" {
		goalID = sql.NullString{String: s.GoalID, Valid: true}
	}

	var baseline, down, up sql.NullFloat64
	if s.Calibration != nil {
		baseline = sql.NullFloat64{Float64: s.Calibration.BaselineArea, Valid: true}
		down = sql.NullFloat64{Float64: s.Calibration.DownThreshold, Valid: true}
		up = sql.NullFloat64{Float64: s.Calibration.UpThreshold, Valid: true}
	}

	m := s.Metrics
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (
			id, kind, strategy, started_at, ended_at, paused_seconds,
			distance_meters, duration_seconds, pace_seconds_per_km, avg_speed_kph,
			rep_count, calories, goal_id, goal_unit, goal_target, goal_progress,
			accepted_fixes, rejected_fixes, baseline_area, down_threshold, up_threshold
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			strategy = excluded.strategy,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			paused_seconds = excluded.paused_seconds,
			distance_meters = excluded.distance_meters,
			duration_seconds = excluded.duration_seconds,
			pace_seconds_per_km = excluded.pace_seconds_per_km,
			avg_speed_kph = excluded.avg_speed_kph,
			rep_count = excluded.rep_count,
			calories = excluded.calories,
			goal_id = excluded.goal_id,
			goal_unit = excluded.goal_unit,
			goal_target = excluded.goal_target,
			goal_progress = excluded.goal_progress,
			accepted_fixes = excluded.accepted_fixes,
			rejected_fixes = excluded.rejected_fixes,
			baseline_area = excluded.baseline_area,
			down_threshold = excluded.down_threshold,
			up_threshold = excluded.up_threshold
	`,
		s.ID, string(s.Kind.Name), string(s.Kind.Strategy),
		formatTime(s.StartedAt), formatTime(s.EndedAt), s.PausedTotal.Seconds(),
		m.DistanceMeters, m.DurationSeconds, m.PaceSecondsPerKm, m.AvgSpeedKph,
		m.RepCount, m.Calories, goalID, goalUnit, goalTarget, goalProgress,
		s.AcceptedFixes, s.RejectedFixes, baseline, down, up,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM trail_points WHERE session_id = ?`, s.ID); err != nil {
		return fmt.Errorf("clearing trail: %w", err)
	}

	if len(s.Trail) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO trail_points (session_id, seq, lat, lng, accuracy, speed, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing trail insert: %w", err)
		}
		defer stmt.Close()

		for i, p := range s.Trail {
			if _, err := stmt.ExecContext(ctx, s.ID, i, p.Lat, p.Lng, p.Accuracy, p.Speed, formatTime(p.Time)); err != nil {
				return fmt.Errorf("inserting trail point %d: %w", i, err)
			}
		}
	}

	return tx.Commit()
}

// ListSessions returns saved sessions, most recent first, without trails
func (db *DB) ListSessions(limit, offset int) ([]Session, error) {
	rows, err := db.Query(`
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// ListSessionsByKind returns saved sessions of one activity, most recent first
func (db *DB) ListSessionsByKind(name activity.Name) ([]Session, error) {
	rows, err := db.Query(`
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE kind = ?
		ORDER BY started_at DESC
	`, string(name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// GetSession retrieves a saved session with its trail
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	s.Trail, err = db.GetTrail(id)
	if err != nil {
		return nil, fmt.Errorf("loading trail: %w", err)
	}
	return s, nil
}

// GetTrail retrieves the trail of a session in recording order
func (db *DB) GetTrail(sessionID string) ([]sensor.Location, error) {
	rows, err := db.Query(`
		SELECT lat, lng, accuracy, speed, recorded_at
		FROM trail_points
		WHERE session_id = ?
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trail []sensor.Location
	for rows.Next() {
		var p sensor.Location
		var accuracy, speed sql.NullFloat64
		var recordedAt string
		if err := rows.Scan(&p.Lat, &p.Lng, &accuracy, &speed, &recordedAt); err != nil {
			return nil, err
		}
		p.Accuracy = accuracy.Float64
		p.Speed = speed.Float64
		if p.Time, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("parsing recorded_at %q: %w", recordedAt, err)
		}
		trail = append(trail, p)
	}
	return trail, rows.Err()
}

// FindSessionID resolves a full ID or a unique ID prefix
func (db *DB) FindSessionID(prefix string) (string, error) {
	if prefix == "" {
		return "", ErrSessionNotFound
	}

	var id string
	err := db.QueryRow(`SELECT id FROM sessions WHERE id = ?`, prefix).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	rows, err := db.Query(`SELECT id FROM sessions WHERE substr(id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", ErrSessionNotFound
	case 1:
		return matches[0], nil
	}
	return "", ErrAmbiguousID
}

// CountSessions returns the number of saved sessions
func (db *DB) CountSessions() (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// DeleteSession removes a session; its trail and personal records go with it
func (db *DB) DeleteSession(id string) error {
	res, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSession scans one sessions row selected with sessionColumns
func scanSession(row scanner) (*Session, error) {
	var s Session
	var kind, strategy, startedAt, endedAt string
	var createdAt sql.NullString
	var goalID, goalUnit sql.NullString
	var goalTarget, goalProgress sql.NullFloat64
	var baseline, down, up sql.NullFloat64

	err := row.Scan(
		&s.ID, &kind, &strategy, &startedAt, &endedAt, &s.PausedSeconds,
		&s.Metrics.DistanceMeters, &s.Metrics.DurationSeconds, &s.Metrics.PaceSecondsPerKm, &s.Metrics.AvgSpeedKph,
		&s.Metrics.RepCount, &s.Metrics.Calories, &goalID, &goalUnit, &goalTarget, &goalProgress,
		&s.AcceptedFixes, &s.RejectedFixes, &baseline, &down, &up,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	s.Kind = activity.Kind{Name: activity.Name(kind), Strategy: activity.Strategy(strategy)}

	if s.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	if s.EndedAt, err = parseTime(endedAt); err != nil {
		return nil, fmt.Errorf("parsing ended_at %q: %w", endedAt, err)
	}
	if createdAt.Valid {
		// CURRENT_TIMESTAMP uses SQLite's own layout
		s.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt.String)
	}

	if goalUnit.Valid {
		s.Goal = &goal.Goal{ID: goalID.String, Unit: goal.Unit(goalUnit.String), Target: goalTarget.Float64}
	}
	if goalProgress.Valid {
		p := goalProgress.Float64
		s.GoalProgress = &p
	}
	if baseline.Valid {
		s.Calibration = &reps.CalibrationProfile{
			BaselineArea:       baseline.Float64,
			DownThreshold:      down.Float64,
			UpThreshold:        up.Float64,
			LivenessOpenSeen:   true,
			LivenessClosedSeen: true,
		}
	}

	return &s, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
