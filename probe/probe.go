// Package probe reads media metadata from captured artifacts.
package probe

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Metadata describes a video artifact
type Metadata struct {
	Duration   time.Duration
	FrameCount int
	FPS        float64
	Width      int
	Height     int
	SizeBytes  int64
}

// Prober extracts video metadata from a file on disk
type Prober interface {
	Probe(path string) (*Metadata, error)
}

// FFProbe shells out to ffprobe for video metadata
type FFProbe struct {
	binary string
}

// NewFFProbe creates an ffprobe-backed prober
func NewFFProbe() *FFProbe {
	return &FFProbe{binary: "ffprobe"}
}

// Probe runs ffprobe and parses its JSON output
func (p *FFProbe) Probe(path string) (*Metadata, error) {
	out, err := exec.Command(p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-count_frames",
		path,
	).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	meta, err := ParseFFProbeOutput(out)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(path); err == nil {
		meta.SizeBytes = fi.Size()
	}
	return meta, nil
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		NbReadFrames string `json:"nb_read_frames"`
		NbFrames     string `json:"nb_frames"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseFFProbeOutput decodes ffprobe JSON into Metadata
func ParseFFProbeOutput(data []byte) (*Metadata, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	meta := &Metadata{}
	if secs, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		meta.Duration = time.Duration(secs * float64(time.Second))
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		meta.Width = s.Width
		meta.Height = s.Height
		if n, err := strconv.Atoi(s.NbReadFrames); err == nil {
			meta.FrameCount = n
		} else if n, err := strconv.Atoi(s.NbFrames); err == nil {
			meta.FrameCount = n
		}
		meta.FPS = parseFrameRate(s.AvgFrameRate)
		if meta.Duration == 0 {
			if secs, err := strconv.ParseFloat(s.Duration, 64); err == nil {
				meta.Duration = time.Duration(secs * float64(time.Second))
			}
		}
		break
	}

	if meta.Width == 0 && meta.Height == 0 {
		return nil, fmt.Errorf("no video stream in ffprobe output")
	}
	return meta, nil
}

// parseFrameRate parses ffprobe's fractional rate notation, e.g. "30000/1001"
func parseFrameRate(rate string) float64 {
	parts := strings.SplitN(rate, "/", 2)
	if len(parts) == 2 {
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 == nil && err2 == nil && den != 0 {
			return num / den
		}
		return 0
	}
	f, _ := strconv.ParseFloat(rate, 64)
	return f
}

// ImageSize decodes just enough of an image file to report its dimensions
func ImageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
