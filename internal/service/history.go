package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"hakbang/internal/activity"
	"hakbang/internal/analysis"
	"hakbang/internal/session"
	"hakbang/internal/store"
)

// HistoryService persists finished sessions and answers queries over them
type HistoryService struct {
	store  *store.DB
	logger *slog.Logger
}

// NewHistoryService creates a new history service
func NewHistoryService(db *store.DB, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HistoryService{store: db, logger: logger}
}

// SessionDetail is a saved session with its post-session analysis
type SessionDetail struct {
	Session store.Session
	Summary analysis.Summary
	Signal  string                 // accepted-fix quality, empty for rep sessions
	Records []store.PersonalRecord // records this session currently holds
}

// SaveSession stores the session and updates the personal records it
// beats. It satisfies session.Persister.
func (h *HistoryService) SaveSession(ctx context.Context, fs session.FinalizedSession) error {
	if err := h.store.SaveSession(ctx, fs); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	for _, c := range recordCandidates(fs) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updated, err := h.store.SubmitRecord(&c.record, c.mode)
		if err != nil {
			return fmt.Errorf("updating record %s: %w", c.record.Category, err)
		}
		if updated {
			h.logger.Info("new personal record", "session", fs.ID, "category", c.record.Category, "value", c.record.Value)
		}
	}
	return nil
}

// List returns saved sessions, most recent first
func (h *HistoryService) List(limit, offset int) ([]store.Session, int, error) {
	if limit <= 0 {
		limit = RecentSessionsLimit
	}
	sessions, err := h.store.ListSessions(limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing sessions: %w", err)
	}
	total, err := h.store.CountSessions()
	if err != nil {
		return nil, 0, fmt.Errorf("counting sessions: %w", err)
	}
	return sessions, total, nil
}

// Detail loads a saved session and analyses its trail
func (h *HistoryService) Detail(id string) (*SessionDetail, error) {
	s, err := h.store.GetSession(id)
	if err != nil {
		return nil, err
	}

	detail := &SessionDetail{
		Session: *s,
		Summary: analysis.Summarize(s.Kind, s.Trail),
	}
	if s.Kind.DistanceBased() && s.AcceptedFixes+s.RejectedFixes > 0 {
		detail.Signal = analysis.SignalDescription(s.AcceptedRatio())
	}

	detail.Records, err = h.store.RecordsForSession(id)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	return detail, nil
}

// Records returns every personal record
func (h *HistoryService) Records() ([]store.PersonalRecord, error) {
	return h.store.Records()
}

// Delete removes a saved session with its trail and records
func (h *HistoryService) Delete(id string) error {
	if err := h.store.DeleteSession(id); err != nil {
		return err
	}
	h.logger.Info("session deleted", "session", id)
	return nil
}

type recordCandidate struct {
	record store.PersonalRecord
	mode   store.CompareMode
}

// recordCandidates lists the record categories a session competes in
func recordCandidates(fs session.FinalizedSession) []recordCandidate {
	name := string(fs.Kind.Name)
	m := fs.Metrics
	add := func(out []recordCandidate, category string, value float64, mode store.CompareMode) []recordCandidate {
		return append(out, recordCandidate{
			record: store.PersonalRecord{
				Category:   name + "_" + category,
				SessionID:  fs.ID,
				Value:      value,
				AchievedAt: fs.EndedAt,
			},
			mode: mode,
		})
	}

	var out []recordCandidate
	if fs.Kind.RepetitionBased() {
		out = add(out, "most_reps", float64(m.RepCount), store.CompareHigher)
		return add(out, "most_calories", m.Calories, store.CompareHigher)
	}

	out = add(out, "longest", m.DistanceMeters, store.CompareHigher)
	if m.DistanceMeters >= MinPaceRecordMeters && m.PaceSecondsPerKm > 0 {
		out = add(out, "fastest_pace", m.PaceSecondsPerKm, store.CompareLower)
	}

	efforts := analysis.BestEfforts(analysis.Cumulate(fs.Trail, activity.MinStepMeters(fs.Kind)))
	for _, d := range analysis.EffortDistances {
		if e, ok := efforts[d]; ok {
			out = add(out, "effort_"+strings.ReplaceAll(analysis.EffortLabels[d], " ", ""), e.DurationSeconds, store.CompareLower)
		}
	}
	return out
}
