package submission

import (
	"fmt"

	"github.com/dmitrymomot/rtss/core/relay"
)

// ID identifies a submission; it is the relay key.
type ID = int32

// Update is the judge's progress report for one submission.
type Update struct {
	ID     ID      `json:"id" db:"id"`
	Groups []Group `json:"groups" db:"groups"`
	Score  int32   `json:"score" db:"score"`
	Status string  `json:"status" db:"status"`
}

// Group is the result of one test group.
type Group struct {
	Score        float64     `json:"score"`
	FullScore    float64     `json:"full_score"`
	SubmissionID string      `json:"submission_id"`
	GroupIndex   int32       `json:"group_index"`
	RunResult    []RunResult `json:"run_result"`
}

// RunResult is the verdict of one test case.
type RunResult struct {
	SubmissionID string  `json:"submission_id"`
	TestIndex    int32   `json:"test_index"`
	Status       string  `json:"status"`
	TimeUsage    float64 `json:"time_usage"`
	MemoryUsage  int32   `json:"memory_usage"`
	Score        float64 `json:"score"`
	Message      string  `json:"message"`
}

// Key returns the relay key of u.
func Key(u Update) ID {
	return u.ID
}

// String is used in log lines.
func (u Update) String() string {
	return fmt.Sprintf("submission %d status=%q score=%d", u.ID, u.Status, u.Score)
}

// Decode turns a JSON notification body into a keyed update.
var Decode relay.Decoder[ID, Update] = relay.JSONDecoder(Key)
