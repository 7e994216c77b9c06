package alarm

import (
	"sync"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

// batchState serializes scheduling work for one reminder. generation is
// bumped whenever the reminder's alarm set is replaced; fired payloads
// carrying an older generation are stale.
type batchState struct {
	mu         sync.Mutex
	generation uint64
	mode       domain.AlarmMode
}

type stateKey struct {
	userID     string
	reminderID string
}

type stateTable struct {
	mu     sync.Mutex
	states map[stateKey]*batchState
}

func newStateTable() *stateTable {
	return &stateTable{
		states: make(map[stateKey]*batchState),
	}
}

func (t *stateTable) get(userID, reminderID string) *batchState {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := stateKey{userID: userID, reminderID: reminderID}
	st, ok := t.states[key]
	if !ok {
		st = &batchState{mode: domain.AlarmModeIdle}
		t.states[key] = st
	}
	return st
}

// Mode reports the last mode recorded for a reminder.
func (t *stateTable) Mode(userID, reminderID string) domain.AlarmMode {
	st := t.get(userID, reminderID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.mode
}
