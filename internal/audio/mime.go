package audio

import (
	"path/filepath"
	"strings"
)

// MIMETypeForFilename maps an audio filename to its MIME type. Unknown
// extensions fall back to wav, which is what the trim pipeline emits anyway.
func MIMETypeForFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "audio/wav"
	}
}
