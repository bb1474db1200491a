package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/educacao-adventista/matriculometro/internal/model"
)

// ExpectedShape is shown to callers that send something other than an array.
const ExpectedShape = `[
  {
    "id": 56,
    "category": "1º ano manhã",
    "target": 20,
    "achieved": 0,
    "createdAt": "2025-10-01T20:59:02.670Z",
    "updatedAt": "2025-10-02T12:02:36.059Z"
  }
]`

var (
	ErrNotArray  = errors.New("invalid format: expected an array of goal objects")
	ErrMalformed = errors.New("malformed goal payload")
)

// WriteJSON writes goals as a plain JSON array.
func WriteJSON(w io.Writer, goals []*model.Goal) error {
	if goals == nil {
		goals = []*model.Goal{}
	}
	err := json.NewEncoder(w).Encode(goals)
	if err != nil {
		return fmt.Errorf("failed to encode goals: %w", err)
	}
	return nil
}

// DecodeImport reads a JSON import payload. The payload must be an array;
// anything else yields ErrNotArray.
func DecodeImport(r io.Reader) ([]model.ImportRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, ErrNotArray
	}

	var records []model.ImportRecord
	err = json.Unmarshal(data, &records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return records, nil
}
