// Package capture runs verified capture attempts against a target window.
package capture

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"

	kbscreenshot "github.com/kbinani/screenshot"

	"github.com/vericap/vericap/core"
	"github.com/vericap/vericap/window"
)

// Capturer produces a raw artifact on disk for the given screen bounds
type Capturer interface {
	Capture(bounds window.Rect, cfg *core.CaptureConfig, outputPath string) error
	NativeFormat() core.Format
}

// Converter re-encodes a raw artifact into the requested output format
type Converter interface {
	Convert(rawPath string, cfg *core.CaptureConfig, outputPath string) error
}

// RegionCapturer grabs a screen region natively and writes it as PNG
type RegionCapturer struct{}

// NewRegionCapturer creates the native still-image backend
func NewRegionCapturer() *RegionCapturer {
	return &RegionCapturer{}
}

// Capture grabs the region and encodes it to outputPath
func (c *RegionCapturer) Capture(bounds window.Rect, cfg *core.CaptureConfig, outputPath string) error {
	rect := image.Rect(bounds.X, bounds.Y, bounds.X+bounds.Width, bounds.Y+bounds.Height)
	img, err := kbscreenshot.CaptureRect(rect)
	if err != nil {
		return fmt.Errorf("screen capture failed: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// NativeFormat reports the format the backend produces without conversion
func (c *RegionCapturer) NativeFormat() core.Format {
	return core.FormatPNG
}

// StreamCapturer records a screen region to H.264 through ffmpeg x11grab
type StreamCapturer struct {
	binary  string
	display string
}

// NewStreamCapturer creates the ffmpeg video backend
func NewStreamCapturer() *StreamCapturer {
	display := os.Getenv("DISPLAY")
	if display == "" {
		display = ":0"
	}
	return &StreamCapturer{binary: "ffmpeg", display: display}
}

// Capture records bounds for the configured duration to outputPath
func (c *StreamCapturer) Capture(bounds window.Rect, cfg *core.CaptureConfig, outputPath string) error {
	fps := cfg.FPS
	if fps <= 0 {
		fps = 10
	}
	// x11grab needs even dimensions for yuv420p
	w := bounds.Width &^ 1
	h := bounds.Height &^ 1

	args := []string{
		"-y",
		"-f", "x11grab",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-framerate", strconv.Itoa(fps),
		"-i", fmt.Sprintf("%s+%d,%d", c.display, bounds.X, bounds.Y),
		"-t", fmt.Sprintf("%.3f", cfg.Duration.Seconds()),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		outputPath,
	}
	if out, err := exec.Command(c.binary, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("screen recording failed: %w (%s)", err, tail(string(out)))
	}
	return nil
}

// NativeFormat reports the format the backend produces without conversion
func (c *StreamCapturer) NativeFormat() core.Format {
	return core.FormatMP4
}

// FFmpegConverter re-encodes artifacts with format-specific parameter sets
type FFmpegConverter struct {
	binary string
}

// NewConverter creates the ffmpeg-backed converter
func NewConverter() *FFmpegConverter {
	return &FFmpegConverter{binary: "ffmpeg"}
}

// Convert re-encodes rawPath into cfg.Format at outputPath
func (c *FFmpegConverter) Convert(rawPath string, cfg *core.CaptureConfig, outputPath string) error {
	args := []string{"-y", "-i", rawPath}

	switch cfg.Format {
	case core.FormatGIF:
		fps := cfg.FPS
		if fps <= 0 {
			fps = 10
		}
		args = append(args,
			"-filter_complex",
			fmt.Sprintf("fps=%d,split[a][b];[a]palettegen[p];[b][p]paletteuse", fps))
	case core.FormatWebP:
		quality := cfg.Quality
		if quality <= 0 {
			quality = 75
		}
		args = append(args, "-c:v", "libwebp", "-quality", strconv.Itoa(quality), "-loop", "0")
	case core.FormatMP4:
		args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p")
	case core.FormatJPEG:
		quality := cfg.Quality
		if quality <= 0 {
			quality = 90
		}
		// ffmpeg's mjpeg qscale runs 2 (best) to 31
		args = append(args, "-q:v", strconv.Itoa(2+(100-quality)*29/100))
	case core.FormatPNG:
		// container rewrite only
	default:
		return fmt.Errorf("unsupported target format %q", cfg.Format)
	}
	args = append(args, outputPath)

	if out, err := exec.Command(c.binary, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("conversion to %s failed: %w (%s)", cfg.Format, err, tail(string(out)))
	}
	return nil
}

// SelectCapturer picks the backend matching the requested output format
func SelectCapturer(format core.Format) Capturer {
	if format.Video() {
		return NewStreamCapturer()
	}
	return NewRegionCapturer()
}

// tail returns the last few lines of command output for error messages
func tail(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
