package alarm

import "strings"

const defaultSoundFile = "chord_iphone.WAV"

var soundFiles = map[string]string{
	"alert":     "notification_alert.wav",
	"xylophone": "xylophone.wav",
	"marimba 1": "marimba1.wav",
	"marimba 2": "marimba2.wav",
}

// SoundFile maps a user-facing sound name to the bundled file. Unknown names
// get the default chord.
func SoundFile(name string) string {
	if f, ok := soundFiles[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f
	}
	return defaultSoundFile
}
