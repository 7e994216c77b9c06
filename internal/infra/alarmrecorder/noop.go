package alarmrecorder

import (
	"context"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.AlarmResultRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordResults(_ context.Context, _ []domain.AlarmResultRecord) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
