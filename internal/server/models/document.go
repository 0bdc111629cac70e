// Package models defines server-side data models persisted in the database.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Document is a free-form JSON object stored in a JSONB column
// (user profiles, order details).
type Document map[string]any

// Value implements driver.Valuer. A nil document is stored as "{}".
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(d))
}

// Scan implements sql.Scanner for JSONB read as bytes or text.
func (d *Document) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*d = Document{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("models: cannot scan %T into Document", src)
	}

	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = m
	return nil
}
