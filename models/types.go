package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSlice stores a list of strings as a JSON array column.
type StringSlice []string

func (ss StringSlice) Value() (driver.Value, error) {
	if ss == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(ss))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (ss *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*ss = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, (*[]string)(ss))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(ss))
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// GormDataType returns the data type for GORM
func (StringSlice) GormDataType() string {
	return "json"
}

func (ss StringSlice) MarshalJSON() ([]byte, error) {
	if ss == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(ss))
}
