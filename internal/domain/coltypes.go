package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// StringArray is a dialect-portable ordered string list: a native text[]
// on Postgres, JSON text everywhere else. Models are written once and the
// same schema drives production and the sqlite test store.
type StringArray []string

func (StringArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (a StringArray) GormValue(_ context.Context, db *gorm.DB) clause.Expr {
	if db.Dialector.Name() == "postgres" {
		return gorm.Expr("?", pq.Array([]string(a)))
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return gorm.Expr("?", "[]")
	}
	return gorm.Expr("?", string(data))
}

// Value is the fallback binding for dialects without a GormValue hook
// and lets the schema parser type the column. Postgres writes still go
// through GormValue.
func (a StringArray) Value() (driver.Value, error) {
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringArray: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*a = nil
		return nil
	}
	if raw[0] == '{' {
		var arr pq.StringArray
		if err := arr.Scan(raw); err != nil {
			return err
		}
		*a = StringArray(arr)
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

// UUID is stored natively on Postgres and as its 36-char text form on
// sqlite.
type UUID uuid.UUID

func NewUUID() UUID { return UUID(uuid.New()) }

func (UUID) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "uuid"
	}
	return "varchar(36)"
}

func (u UUID) String() string { return uuid.UUID(u).String() }

func (u UUID) IsNil() bool { return uuid.UUID(u) == uuid.Nil }

func (u UUID) Value() (driver.Value, error) {
	return uuid.UUID(u).String(), nil
}

func (u *UUID) Scan(value interface{}) error {
	var parsed uuid.UUID
	var err error
	switch v := value.(type) {
	case nil:
		*u = UUID(uuid.Nil)
		return nil
	case []byte:
		parsed, err = uuid.ParseBytes(v)
	case string:
		parsed, err = uuid.Parse(v)
	default:
		return fmt.Errorf("UUID: unsupported scan type %T", value)
	}
	if err != nil {
		return err
	}
	*u = UUID(parsed)
	return nil
}

func (u UUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

func (u *UUID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*u = UUID(parsed)
	return nil
}
