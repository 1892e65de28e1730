package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingEvent records one lifecycle transition. Bookings are never hard
// deleted, so the event trail is the authoritative history of who moved a
// booking and when.
type BookingEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;index" json:"booking_id"`
	// Actor is "user:<id>", "provider:<id>" or "system".
	Actor      string        `gorm:"type:varchar(100);not null" json:"actor"`
	FromStatus BookingStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   BookingStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	Note       string        `gorm:"type:text" json:"note,omitempty"`
	Metadata   JSON          `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
}

func (BookingEvent) TableName() string {
	return "booking_events"
}

// JSON type for GORM JSONB support
type JSON map[string]interface{}

// Value returns json value, implement driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan scan value into Jsonb, implements sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("failed to unmarshal JSONB value:", value))
	}
	return json.Unmarshal(bytes, j)
}
