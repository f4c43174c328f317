package verify

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// OCR recognizes text in an image artifact
type OCR interface {
	Recognize(path string) (string, error)
}

// TesseractOCR shells out to the tesseract binary
type TesseractOCR struct {
	binary string
	lang   string
}

// NewTesseractOCR creates the default OCR backend
func NewTesseractOCR() *TesseractOCR {
	return &TesseractOCR{binary: "tesseract", lang: "eng"}
}

// Recognize runs tesseract and returns the recognized text
func (t *TesseractOCR) Recognize(path string) (string, error) {
	out, err := exec.Command(t.binary, path, "stdout", "-l", t.lang).Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed for %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// FrameExtractor pulls a single frame out of a video artifact
type FrameExtractor interface {
	ExtractFrame(videoPath string, offset time.Duration, outPath string) error
}

// FFmpegExtractor extracts frames through ffmpeg
type FFmpegExtractor struct {
	binary string
}

// NewFFmpegExtractor creates the default frame extractor
func NewFFmpegExtractor() *FFmpegExtractor {
	return &FFmpegExtractor{binary: "ffmpeg"}
}

// ExtractFrame writes the frame at the given offset to outPath as PNG
func (f *FFmpegExtractor) ExtractFrame(videoPath string, offset time.Duration, outPath string) error {
	out, err := exec.Command(f.binary,
		"-y",
		"-ss", fmt.Sprintf("%.3f", offset.Seconds()),
		"-i", videoPath,
		"-frames:v", "1",
		outPath,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("frame extraction failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}
