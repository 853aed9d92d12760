package audio

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

const minSliceSeconds = 0.1

// Processor trims audio clips and renders spectrogram previews. The chat
// core never imports this package; handlers feed it audio before a session
// starts.
type Processor interface {
	Trim(ctx context.Context, data []byte, ext string, startSec, endSec float64) ([]byte, error)
	SpectrogramPNG(ctx context.Context, wav []byte) ([]byte, error)
}

// FFmpegProcessor shells out to ffmpeg. Trims decode to 16-bit PCM wav so
// every upstream provider gets a format it accepts.
type FFmpegProcessor struct {
	binary string
}

// NewFFmpegProcessor uses the given ffmpeg binary, or "ffmpeg" from PATH
// when empty.
func NewFFmpegProcessor(binary string) *FFmpegProcessor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegProcessor{binary: binary}
}

// trimArgs builds the ffmpeg invocation for a trim. Kept as a pure function
// so the window clamping is testable without a subprocess.
func trimArgs(inPath, outPath string, startSec, endSec float64) []string {
	if startSec < 0 {
		startSec = 0
	}
	if endSec <= startSec {
		endSec = startSec + minSliceSeconds
	}
	return []string{
		"-y",
		"-i", inPath,
		"-ss", fmt.Sprintf("%.3f", startSec),
		"-to", fmt.Sprintf("%.3f", endSec),
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		outPath,
	}
}

// spectrogramArgs builds the ffmpeg invocation for a spectrogram render
func spectrogramArgs(inPath, outPath string) []string {
	return []string{
		"-y",
		"-i", inPath,
		"-lavfi", "showspectrumpic=s=1024x512:legend=1",
		outPath,
	}
}

// Trim cuts [startSec, endSec) out of the clip and returns it as wav.
// The window is clamped to the clip by ffmpeg itself; a degenerate window
// becomes a 100ms slice.
func (p *FFmpegProcessor) Trim(ctx context.Context, data []byte, ext string, startSec, endSec float64) ([]byte, error) {
	workDir, err := os.MkdirTemp("", "trim-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inPath := filepath.Join(workDir, "in"+ext)
	outPath := filepath.Join(workDir, "out.wav")
	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write input clip: %w", err)
	}

	log.Printf("🎵 Trimming clip (%.3fs - %.3fs, %d bytes in)", startSec, endSec, len(data))
	if err := p.run(ctx, trimArgs(inPath, outPath, startSec, endSec)); err != nil {
		return nil, err
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read trimmed clip: %w", err)
	}
	return out, nil
}

// SpectrogramPNG renders a spectrogram image of the wav clip
func (p *FFmpegProcessor) SpectrogramPNG(ctx context.Context, wav []byte) ([]byte, error) {
	workDir, err := os.MkdirTemp("", "spectro-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inPath := filepath.Join(workDir, "in.wav")
	outPath := filepath.Join(workDir, "out.png")
	if err := os.WriteFile(inPath, wav, 0o600); err != nil {
		return nil, fmt.Errorf("write input clip: %w", err)
	}

	log.Printf("📊 Rendering spectrogram (%d bytes in)", len(wav))
	if err := p.run(ctx, spectrogramArgs(inPath, outPath)); err != nil {
		return nil, err
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read spectrogram: %w", err)
	}
	return out, nil
}

func (p *FFmpegProcessor) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, p.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// lastLine picks the final non-empty stderr line, which is where ffmpeg
// puts its actual error.
func lastLine(s string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
