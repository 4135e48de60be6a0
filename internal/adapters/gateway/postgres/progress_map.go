package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ProgressMap stores the subject-id -> watched-units mapping as jsonb.
type ProgressMap map[string]int

// Value implements driver.Valuer.
func (p ProgressMap) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal progress: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (p *ProgressMap) Scan(src interface{}) error {
	if src == nil {
		*p = ProgressMap{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported progress column type %T", src)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal progress: %w", err)
	}
	return nil
}
