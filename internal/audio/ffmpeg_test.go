package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimArgsWindow(t *testing.T) {
	args := trimArgs("in.mp3", "out.wav", 1.5, 4.25)
	assert.Contains(t, args, "-ss")
	assert.Contains(t, args, "1.500")
	assert.Contains(t, args, "-to")
	assert.Contains(t, args, "4.250")
	assert.Contains(t, args, "pcm_s16le")
	assert.Equal(t, "out.wav", args[len(args)-1])
}

func TestTrimArgsClampsNegativeStart(t *testing.T) {
	args := trimArgs("in.wav", "out.wav", -3, 2)
	assert.Contains(t, args, "0.000")
	assert.Contains(t, args, "2.000")
}

func TestTrimArgsDegenerateWindow(t *testing.T) {
	// end at or before start becomes a 100ms slice
	args := trimArgs("in.wav", "out.wav", 5, 5)
	assert.Contains(t, args, "5.000")
	assert.Contains(t, args, "5.100")

	args = trimArgs("in.wav", "out.wav", 5, 2)
	assert.Contains(t, args, "5.100")
}

func TestSpectrogramArgs(t *testing.T) {
	args := spectrogramArgs("in.wav", "out.png")
	assert.Contains(t, args, "-lavfi")
	assert.Contains(t, args, "showspectrumpic=s=1024x512:legend=1")
	assert.Equal(t, "out.png", args[len(args)-1])
}

func TestMIMETypeForFilename(t *testing.T) {
	cases := map[string]string{
		"clip.wav":      "audio/wav",
		"CLIP.WAV":      "audio/wav",
		"song.mp3":      "audio/mpeg",
		"take.flac":     "audio/flac",
		"loop.ogg":      "audio/ogg",
		"bounce.m4a":    "audio/mp4",
		"mystery.xyz":   "audio/wav",
		"noextension":   "audio/wav",
		"dir/track.mp3": "audio/mpeg",
	}
	for name, want := range cases {
		assert.Equal(t, want, MIMETypeForFilename(name), "file %q", name)
	}
}

func TestNewFFmpegProcessorDefaultBinary(t *testing.T) {
	p := NewFFmpegProcessor("")
	assert.Equal(t, "ffmpeg", p.binary)

	p = NewFFmpegProcessor("/opt/ffmpeg/bin/ffmpeg")
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", p.binary)
}
