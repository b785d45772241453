package mailqueue

import (
	"time"

	"github.com/google/uuid"
)

// Job represents a pending outbound email. Jobs survive process restarts;
// delivery is at-least-once up to the dispatcher's retry budget.
type Job struct {
	ID        string            `json:"id"`
	To        string            `json:"to"`
	Template  string            `json:"template"`
	Params    map[string]string `json:"params,omitempty"`
	Retries   int               `json:"retries"`
	Timestamp time.Time         `json:"timestamp"`

	bucketKey []byte
}

func (j *Job) normalize() {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Timestamp.IsZero() {
		j.Timestamp = time.Now()
	}
}
