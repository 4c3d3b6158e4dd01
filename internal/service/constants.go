package service

const (
	// Pagination limits
	RecentSessionsLimit = 20

	// Pace records need at least this much distance to count
	MinPaceRecordMeters = 1000

	// Replay progress is reported every this many samples
	ProgressEvery = 10
)
