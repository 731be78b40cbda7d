package headless

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/wavechat/audio"
	"github.com/kbukum/wavechat/process"
)

const defaultProbeTimeout = 30 * time.Second

// Prober reads the duration of an audio handle in seconds.
type Prober interface {
	Probe(ctx context.Context, h *audio.Handle) (float64, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, h *audio.Handle) (float64, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, h *audio.Handle) (float64, error) {
	return f(ctx, h)
}

// FFProbe asks ffprobe for the container duration. Sources on disk are
// passed by path, anything else is piped through stdin.
type FFProbe struct {
	Binary  string
	Runner  process.Runner
	Timeout time.Duration
}

// NewFFProbe creates a prober running binary (default "ffprobe").
func NewFFProbe(binary string, runner process.Runner) *FFProbe {
	if binary == "" {
		binary = "ffprobe"
	}
	if runner == nil {
		runner = process.NewExec()
	}
	return &FFProbe{Binary: binary, Runner: runner, Timeout: defaultProbeTimeout}
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe implements Prober.
func (p *FFProbe) Probe(ctx context.Context, h *audio.Handle) (float64, error) {
	cmd := process.Command{
		Binary:  p.Binary,
		Args:    []string{"-v", "error", "-show_entries", "format=duration", "-of", "json"},
		Timeout: p.Timeout,
	}

	if l, ok := h.Source().(audio.Locator); ok {
		cmd.Args = append(cmd.Args, l.Path())
	} else {
		rc, err := h.Open()
		if err != nil {
			return 0, err
		}
		defer rc.Close()
		cmd.Stdin = rc
		cmd.Args = append(cmd.Args, "pipe:0")
	}

	res, err := p.Runner.Run(ctx, cmd)
	if err != nil {
		if tail := res.StderrTail(); tail != "" {
			return 0, fmt.Errorf("ffprobe %s: %s: %w", h.Source().Name(), tail, err)
		}
		return 0, fmt.Errorf("ffprobe %s: %w", h.Source().Name(), err)
	}
	return parseDuration(res.Stdout)
}

func parseDuration(out []byte) (float64, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	raw := strings.TrimSpace(parsed.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	return d, nil
}
