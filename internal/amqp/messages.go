package amqp

import (
	"encoding/json"
	"time"
)

// ExportRequested announces a stored export job. The worker loads the job,
// with its chart snapshot, from the database.
type ExportRequested struct {
	JobID     string    `json:"job_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportRequested(jobID string) *ExportRequested {
	return &ExportRequested{
		JobID:     jobID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ExportRequested) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestedFromJSON decodes a message; a missing job id is an error.
func ExportRequestedFromJSON(data []byte) (*ExportRequested, error) {
	var msg ExportRequested
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.JobID == "" {
		return nil, errMissingJobID
	}
	return &msg, nil
}
