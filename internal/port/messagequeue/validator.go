package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Subjects without a schema only need
// to be valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch subject {
	case SubjectSessionStatus:
		var p SessionStatusPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.SessionID == "" || p.Status == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("session_id and status are required"))
		}
	case SubjectExecutionCompleted:
		var p ExecutionCompletedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.SessionID == "" || p.ExecutionID == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("session_id and execution_id are required"))
		}
	}
	return nil
}
