package types

import (
	"time"
)

// Category names the list a code was extracted into.
type Category string

const (
	CategoryTimeLimited Category = "time-limited"
	CategoryNewPlayer   Category = "new-player"
)

// UnknownUpdateLabel is reported when no update cue is found on the page.
const UnknownUpdateLabel = "Unknown"

type CodeRecord struct {
	Code   string
	Reward string
}

type ExtractionResult struct {
	// TimeLimited is in page order; the first entry is treated as the newest.
	TimeLimited []CodeRecord
	NewPlayer   []CodeRecord
	UpdateLabel string
	FetchedAt   time.Time
}

// Empty reports whether neither category produced a record.
func (r ExtractionResult) Empty() bool {
	return len(r.TimeLimited) == 0 && len(r.NewPlayer) == 0
}

type NewCodeEvent struct {
	Code       string
	Reward     string
	DetectedAt time.Time
	Test       bool
}
