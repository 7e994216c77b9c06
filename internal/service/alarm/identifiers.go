package alarm

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

const maxEchoedIDLength = 64

var (
	safeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	// baseIDNamespace scopes derived base ids. Changing it orphans every
	// scheduled alarm.
	baseIDNamespace = uuid.MustParse("5b8f3c1e-8f5e-4a55-9a0c-6f3d2f1c7e10")
)

// BaseID derives the alarm identifier namespace of a reminder. Short ids made
// of letters, digits and underscores are used as is; anything else is hashed
// into a name-based UUID so the "-{index}" suffix stays unambiguous.
func BaseID(reminderID string) string {
	if len(reminderID) <= maxEchoedIDLength && safeIDPattern.MatchString(reminderID) {
		return reminderID
	}
	return uuid.NewSHA1(baseIDNamespace, []byte(reminderID)).String()
}

func AlarmID(baseID string, index int) string {
	return fmt.Sprintf("%s-%d", baseID, index)
}

// IndexedIDs lists {baseID}-0 .. {baseID}-(count-1).
func IndexedIDs(baseID string, count int) []string {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		ids = append(ids, AlarmID(baseID, i))
	}
	return ids
}

// AllIDs lists every identifier a reminder may own: the bare base id plus
// the indexed range.
func AllIDs(baseID string, count int) []string {
	return append([]string{baseID}, IndexedIDs(baseID, count)...)
}
