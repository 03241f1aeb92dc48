package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ReagentList stores the reagents a process step consumes as a JSON array
// in a text column.
type ReagentList []string

func (l *ReagentList) Scan(value any) error {
	raw, err := jsonColumnBytes(value, "ReagentList")
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, l)
}

func (l ReagentList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode reagent list: %w", err)
	}
	return string(b), nil
}

// JSONMap stores loosely structured payloads as JSON in a text column:
// the equipment snapshot captured when a batch is released, and audit
// event detail.
type JSONMap map[string]any

func (m *JSONMap) Scan(value any) error {
	raw, err := jsonColumnBytes(value, "JSONMap")
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode json map: %w", err)
	}
	return string(b), nil
}

// jsonColumnBytes normalizes the driver representations of a JSON text
// column. NULL and the empty string both read as absent.
func jsonColumnBytes(value any, typeName string) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported column type %T for %s", value, typeName)
	}
}
