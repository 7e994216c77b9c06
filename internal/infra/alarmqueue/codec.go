package alarmqueue

import (
	"encoding/json"
	"time"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

type alarmRecord struct {
	ID      string              `json:"id"`
	UserID  string              `json:"user_id"`
	FireAt  time.Time           `json:"fire_at"`
	Payload domain.AlarmPayload `json:"payload"`
}

// DecodeAlarm reads the body a queued alarm is delivered with.
func DecodeAlarm(data []byte) (domain.Alarm, error) {
	var record alarmRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.Alarm{}, ErrInvalidAlarm
	}
	if record.ID == "" || record.UserID == "" {
		return domain.Alarm{}, ErrInvalidAlarm
	}
	return domain.Alarm{
		ID:      record.ID,
		UserID:  record.UserID,
		FireAt:  record.FireAt,
		Payload: record.Payload,
	}, nil
}

// EncodeAlarm is the inverse of DecodeAlarm.
func EncodeAlarm(alarm domain.Alarm) ([]byte, error) {
	data, err := json.Marshal(alarmRecord{
		ID:      alarm.ID,
		UserID:  alarm.UserID,
		FireAt:  alarm.FireAt,
		Payload: alarm.Payload,
	})
	if err != nil {
		return nil, ErrInvalidAlarm
	}
	return data, nil
}
