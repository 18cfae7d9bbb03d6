package encoder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	ffmpegBin  = "ffmpeg"
	ffprobeBin = "ffprobe"
)

// FFmpeg encodes frame groups with the system ffmpeg. Frames are staged
// under sequential names in a scratch directory because ffmpeg's image
// demuxer wants a printf pattern, and capture frames carry arbitrary
// extensionless names.
type FFmpeg struct{}

var _ Encoder = (*FFmpeg)(nil)

func NewFFmpeg() *FFmpeg { return &FFmpeg{} }

// Available reports whether both ffmpeg and ffprobe are on PATH.
func (e *FFmpeg) Available() bool {
	for _, bin := range []string{ffmpegBin, ffprobeBin} {
		if _, err := exec.LookPath(bin); err != nil {
			return false
		}
	}
	return true
}

// Encode writes an H.264 yuv420p video to dst from the ordered frames.
func (e *FFmpeg) Encode(ctx context.Context, framePaths []string, dst string, opts Options) (*Result, error) {
	if len(framePaths) == 0 {
		return nil, fmt.Errorf("encoding %s: no frames", dst)
	}

	stageDir, err := os.MkdirTemp("", "playback-encode-")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(stageDir)

	for i, src := range framePaths {
		target := filepath.Join(stageDir, fmt.Sprintf("frame_%05d.png", i+1))
		if err := copyFile(src, target); err != nil {
			return nil, fmt.Errorf("staging frame %s: %w", src, err)
		}
	}

	args := []string{
		"-y",
		"-framerate", strconv.FormatFloat(opts.FPS, 'f', -1, 64),
		"-i", filepath.Join(stageDir, "frame_%05d.png"),
		"-c:v", "libx264",
		"-preset", opts.Preset,
		"-crf", strconv.Itoa(opts.CRF),
		"-pix_fmt", "yuv420p",
		dst,
	}

	cmd := exec.CommandContext(ctx, ffmpegBin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg %s: %w: %s", dst, err, truncateOutput(out))
	}

	info, err := os.Stat(dst)
	if err != nil {
		return nil, fmt.Errorf("stating encoded chunk %s: %w", dst, err)
	}

	result := &Result{SizeBytes: info.Size()}
	if w, h, err := probeSize(ctx, dst); err == nil {
		result.Width, result.Height = &w, &h
	}
	return result, nil
}

// ProbeImageSize reports a frame's pixel dimensions via ffprobe.
func (e *FFmpeg) ProbeImageSize(path string) (int, int, error) {
	return probeSize(context.Background(), path)
}

func probeSize(ctx context.Context, path string) (int, int, error) {
	cmd := exec.CommandContext(ctx, ffprobeBin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0:s=x",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("probing %s: %w", path, err)
	}

	dims := strings.SplitN(strings.TrimSpace(string(out)), "x", 2)
	if len(dims) != 2 {
		return 0, 0, fmt.Errorf("probing %s: unexpected output %q", path, out)
	}
	w, werr := strconv.Atoi(dims[0])
	h, herr := strconv.Atoi(dims[1])
	if werr != nil || herr != nil {
		return 0, 0, fmt.Errorf("probing %s: unexpected output %q", path, out)
	}
	return w, h, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func truncateOutput(out []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(out))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
