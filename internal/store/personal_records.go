package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned when no session holds a category yet
var ErrRecordNotFound = errors.New("personal record not found")

// CompareMode says which direction beats the standing record
type CompareMode int

const (
	CompareHigher CompareMode = iota // distance, reps, calories
	CompareLower                     // pace, effort durations
)

func (m CompareMode) operator() string {
	if m == CompareLower {
		return "<"
	}
	return ">"
}

const recordColumns = `id, category, session_id, value, achieved_at`

// SubmitRecord offers pr as a candidate for its category. The comparison
// happens inside the upsert, so ties and worse values leave the standing
// record alone. It reports whether pr became the record.
func (db *DB) SubmitRecord(pr *PersonalRecord, mode CompareMode) (bool, error) {
	res, err := db.Exec(fmt.Sprintf(`
		INSERT INTO personal_records (category, session_id, value, achieved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET
			session_id = excluded.session_id,
			value = excluded.value,
			achieved_at = excluded.achieved_at
		WHERE excluded.value %s personal_records.value
	`, mode.operator()), pr.Category, pr.SessionID, pr.Value, formatTime(pr.AchievedAt))
	if err != nil {
		return false, fmt.Errorf("submitting %s record: %w", pr.Category, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordByCategory returns the standing record for category.
func (db *DB) RecordByCategory(category string) (*PersonalRecord, error) {
	row := db.QueryRow(`SELECT `+recordColumns+` FROM personal_records WHERE category = ?`, category)

	pr, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return pr, err
}

// Records returns every standing record by category.
func (db *DB) Records() ([]PersonalRecord, error) {
	return db.queryRecords(`SELECT ` + recordColumns + ` FROM personal_records ORDER BY category`)
}

// RecordsForSession returns the records sessionID currently holds.
// Records move to newer sessions as they are beaten, and vanish with
// the session when it is deleted.
func (db *DB) RecordsForSession(sessionID string) ([]PersonalRecord, error) {
	return db.queryRecords(`SELECT `+recordColumns+` FROM personal_records WHERE session_id = ? ORDER BY category`, sessionID)
}

func (db *DB) queryRecords(query string, args ...any) ([]PersonalRecord, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PersonalRecord
	for rows.Next() {
		pr, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *pr)
	}
	return records, rows.Err()
}

func scanRecord(row scanner) (*PersonalRecord, error) {
	var (
		pr         PersonalRecord
		achievedAt string
	)
	if err := row.Scan(&pr.ID, &pr.Category, &pr.SessionID, &pr.Value, &achievedAt); err != nil {
		return nil, err
	}

	var err error
	if pr.AchievedAt, err = parseTime(achievedAt); err != nil {
		return nil, fmt.Errorf("parsing achieved_at %q: %w", achievedAt, err)
	}
	return &pr, nil
}
