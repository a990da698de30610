package media

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"moshpit/internal/frameindex"
)

// vfrTolerance is the allowed relative drift between the container's nominal
// and averaged frame rates before a source counts as variable frame rate.
const vfrTolerance = 0.005

// FFmpegProvider probes and decodes through the ffprobe/ffmpeg binaries.
type FFmpegProvider struct {
	FFprobe string
	FFmpeg  string
}

// NewFFmpegProvider builds a provider; empty binary paths fall back to the
// commands on PATH.
func NewFFmpegProvider(ffprobe, ffmpeg string) *FFmpegProvider {
	if strings.TrimSpace(ffprobe) == "" {
		ffprobe = "ffprobe"
	}
	if strings.TrimSpace(ffmpeg) == "" {
		ffmpeg = "ffmpeg"
	}
	return &FFmpegProvider{FFprobe: ffprobe, FFmpeg: ffmpeg}
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_read_frames"`
	Duration     string `json:"duration"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// Probe inspects the source container and first video stream.
func (p *FFmpegProvider) Probe(ctx context.Context, path string) (Info, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Info{}, fmt.Errorf("%w: empty path", ErrUnreadableSource)
	}

	cmd := exec.CommandContext(ctx, p.FFprobe,
		"-v", "error", "-hide_banner",
		"-count_frames",
		"-select_streams", "v:0",
		"-show_streams", "-show_format",
		"-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Info{}, fmt.Errorf("%w: ffprobe: %v: %s", ErrUnreadableSource, err, strings.TrimSpace(string(output)))
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return Info{}, fmt.Errorf("%w: parse ffprobe output: %v", ErrUnreadableSource, err)
	}

	var video *probeStream
	for i := range result.Streams {
		if strings.EqualFold(result.Streams[i].CodecType, "video") {
			video = &result.Streams[i]
			break
		}
	}
	if video == nil {
		return Info{}, fmt.Errorf("%w: no video stream", ErrUnreadableSource)
	}

	nominal, err := parseRational(video.RFrameRate)
	if err != nil || nominal <= 0 {
		return Info{}, fmt.Errorf("%w: frame rate %q", ErrUnreadableSource, video.RFrameRate)
	}
	averaged, err := parseRational(video.AvgFrameRate)
	if err == nil && averaged > 0 {
		if math.Abs(nominal-averaged)/nominal > vfrTolerance {
			return Info{}, fmt.Errorf("%w: nominal %.3f vs averaged %.3f fps", ErrUnsupportedFrameRate, nominal, averaged)
		}
	}

	durationStr := video.Duration
	if strings.TrimSpace(durationStr) == "" {
		durationStr = result.Format.Duration
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(durationStr), 64)
	if err != nil || seconds <= 0 {
		return Info{}, fmt.Errorf("%w: duration %q", ErrUnreadableSource, durationStr)
	}
	duration := time.Duration(seconds * float64(time.Second))

	frameCount, _ := strconv.Atoi(strings.TrimSpace(video.NBFrames))
	if frameCount <= 0 {
		frameCount = int(math.Round(seconds * nominal))
	}

	return Info{
		FrameCount: frameCount,
		FrameRate:  nominal,
		Duration:   duration,
		Width:      video.Width,
		Height:     video.Height,
	}, nil
}

// ScanFrames reads the per-frame picture types and timestamps.
func (p *FFmpegProvider) ScanFrames(ctx context.Context, path string) ([]frameindex.Frame, error) {
	cmd := exec.CommandContext(ctx, p.FFprobe,
		"-v", "error", "-hide_banner",
		"-select_streams", "v:0",
		"-show_frames",
		"-show_entries", "frame=pict_type,pts_time",
		"-of", "csv=p=0", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: frame scan: %v", ErrUnreadableSource, err)
	}

	var frames []frameindex.Frame
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		seconds, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			continue
		}
		typ := frameindex.Type(strings.ToUpper(strings.TrimSpace(parts[1])))
		if !typ.Valid() {
			// Some codecs report SI/SP and similar; treat them as deltas.
			typ = frameindex.TypeP
		}
		frames = append(frames, frameindex.Frame{
			Index:     len(frames),
			Timestamp: time.Duration(seconds * float64(time.Second)),
			Type:      typ,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: frame scan read: %v", ErrUnreadableSource, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: frame scan produced no frames", ErrUnreadableSource)
	}
	return frames, nil
}

// DecodeFrame extracts a single raw frame scaled to quality percent.
func (p *FFmpegProvider) DecodeFrame(ctx context.Context, path string, index int, quality int) (PixelBuffer, error) {
	if !ValidQuality(quality) {
		return PixelBuffer{}, fmt.Errorf("%w: quality %d", ErrDecode, quality)
	}
	info, err := p.Probe(ctx, path)
	if err != nil {
		return PixelBuffer{}, err
	}
	width := scaleDimension(info.Width, quality)
	height := scaleDimension(info.Height, quality)

	filter := fmt.Sprintf("select=eq(n\\,%d),scale=%d:%d", index, width, height)
	cmd := exec.CommandContext(ctx, p.FFmpeg,
		"-v", "error", "-hide_banner",
		"-i", path,
		"-vf", filter,
		"-vsync", "vfr",
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return PixelBuffer{}, fmt.Errorf("%w: frame %d: %v: %s", ErrDecode, index, err, strings.TrimSpace(stderr.String()))
	}
	data := stdout.Bytes()
	if expected := width * height * 3; len(data) != expected {
		return PixelBuffer{}, fmt.Errorf("%w: frame %d: got %d bytes, want %d", ErrDecode, index, len(data), expected)
	}
	return PixelBuffer{Width: width, Height: height, Data: data}, nil
}

func scaleDimension(dim, quality int) int {
	scaled := dim * quality / 100
	if scaled < 2 {
		scaled = 2
	}
	// Keep even dimensions for rawvideo consumers.
	return scaled &^ 1
}

func parseRational(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0/0" {
		return 0, fmt.Errorf("empty rational")
	}
	if num, den, found := strings.Cut(value, "/"); found {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator")
		}
		return n / d, nil
	}
	return strconv.ParseFloat(value, 64)
}
