package headless

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/wavechat/audio"
	"github.com/kbukum/wavechat/process"
	"github.com/kbukum/wavechat/selection"
	"github.com/kbukum/wavechat/testutil"
	"github.com/kbukum/wavechat/waveform"
)

func fixedDuration(d float64) Prober {
	return ProberFunc(func(context.Context, *audio.Handle) (float64, error) { return d, nil })
}

type eventLog struct {
	mu    sync.Mutex
	kinds []waveform.EventKind
}

func (l *eventLog) record(ev waveform.Event) {
	l.mu.Lock()
	l.kinds = append(l.kinds, ev.Kind)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []waveform.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]waveform.EventKind(nil), l.kinds...)
}

func loadedSurface(t *testing.T, d float64) (*Surface, *eventLog) {
	t.Helper()
	h, err := audio.NewRegistry().Acquire(audio.BytesSource("a.wav", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	surf, err := New(fixedDuration(d)).Create(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := surf.(*Surface)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log := &eventLog{}
	s.On(log.record)
	return s, log
}

func TestPlayToEndFinishes(t *testing.T) {
	s, log := loadedSurface(t, 0.03)
	if s.Duration() != 0.03 {
		t.Fatalf("expected duration 0.03, got %v", s.Duration())
	}
	if err := s.PlayPause(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.T(t).Eventually(time.Second, func() bool {
		return slices.Equal(log.snapshot(), []waveform.EventKind{waveform.EventPlay, waveform.EventFinish})
	}, "play then finish")
	if s.Position() != 0.03 {
		t.Errorf("expected playhead at end, got %v", s.Position())
	}
}

func TestPlayRegionLeavesRegion(t *testing.T) {
	s, log := loadedSurface(t, 10)
	if _, err := s.AddRegion(1, 1.02); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Play(1, 1.02); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []waveform.EventKind{waveform.EventPlay, waveform.EventRegionOut, waveform.EventPause}
	testutil.T(t).Eventually(time.Second, func() bool {
		return slices.Equal(log.snapshot(), want)
	}, "play, region-out, pause")
}

func TestPauseAndResume(t *testing.T) {
	s, log := loadedSurface(t, 60)
	s.PlayPause()
	time.Sleep(10 * time.Millisecond)
	s.PlayPause()

	pos := s.Position()
	if pos <= 0 || pos >= 60 {
		t.Fatalf("expected playhead inside the file, got %v", pos)
	}
	if got := log.snapshot(); !slices.Equal(got, []waveform.EventKind{waveform.EventPlay, waveform.EventPause}) {
		t.Fatalf("unexpected events %v", got)
	}

	// pausing while paused is silent
	s.Pause()
	if len(log.snapshot()) != 2 {
		t.Errorf("expected no extra pause event, got %v", log.snapshot())
	}
	s.Destroy()
}

func TestPlayRejectsBadRange(t *testing.T) {
	s, _ := loadedSurface(t, 5)
	if err := s.Play(4, 6); err == nil {
		t.Error("expected error past duration")
	}
	if err := s.Play(3, 3); err == nil {
		t.Error("expected error for empty range")
	}
}

func TestDestroy(t *testing.T) {
	s, log := loadedSurface(t, 0.02)
	s.PlayPause()
	if err := s.Destroy(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Destroy(); err == nil {
		t.Error("expected error destroying twice")
	}
	time.Sleep(40 * time.Millisecond)
	if got := log.snapshot(); !slices.Equal(got, []waveform.EventKind{waveform.EventPlay}) {
		t.Errorf("expected no events after destroy, got %v", got)
	}
	if err := s.Load(context.Background()); err == nil {
		t.Error("expected load after destroy to fail")
	}
	if _, err := s.AddRegion(0, 0.01); err == nil {
		t.Error("expected add region after destroy to fail")
	}
}

func TestRegionDragEmits(t *testing.T) {
	s, log := loadedSurface(t, 10)
	r, _ := s.AddRegion(0, 5)
	r.(*Region).Drag(2, 4)
	if start, end := r.Bounds(); start != 2 || end != 4 {
		t.Errorf("unexpected bounds [%v, %v]", start, end)
	}
	if got := log.snapshot(); !slices.Equal(got, []waveform.EventKind{waveform.EventRegionUpdated}) {
		t.Errorf("unexpected events %v", got)
	}

	s.UnAll()
	r.(*Region).Drag(1, 3)
	if len(log.snapshot()) != 1 {
		t.Errorf("expected no events after UnAll, got %v", log.snapshot())
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    float64
		wantErr bool
	}{
		{"ok", `{"format": {"duration": "184.032000"}}`, 184.032, false},
		{"missing", `{"format": {}}`, 0, true},
		{"not available", `{"format": {"duration": "N/A"}}`, 0, true},
		{"garbage", `nope`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDuration([]byte(tt.out))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFFProbeArgs(t *testing.T) {
	var calls []process.Command
	var stdin string
	runner := process.RunnerFunc(func(_ context.Context, cmd process.Command) (*process.Result, error) {
		calls = append(calls, cmd)
		if cmd.Stdin != nil {
			data, _ := io.ReadAll(cmd.Stdin)
			stdin = string(data)
		}
		return &process.Result{Stdout: []byte(`{"format":{"duration":"12.5"}}`)}, nil
	})
	probe := NewFFProbe("", runner)
	reg := audio.NewRegistry()

	onDisk, _ := reg.Acquire(audio.FileSource("/music/take.wav"))
	d, err := probe.Probe(context.Background(), onDisk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 12.5 {
		t.Errorf("expected 12.5, got %v", d)
	}
	if calls[0].Binary != "ffprobe" || calls[0].Args[len(calls[0].Args)-1] != "/music/take.wav" {
		t.Errorf("unexpected command %q", calls[0].String())
	}

	inMemory, _ := reg.Acquire(audio.BytesSource("clip.wav", []byte("RIFF")))
	if _, err := probe.Probe(context.Background(), inMemory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls[1].Args[len(calls[1].Args)-1] != "pipe:0" || stdin != "RIFF" {
		t.Errorf("expected stdin pipe, got %q with %q", calls[1].String(), stdin)
	}

	inMemory.Release()
	if _, err := probe.Probe(context.Background(), inMemory); err == nil {
		t.Error("expected released handle to fail")
	}
}

func TestFFProbeFailure(t *testing.T) {
	runner := process.RunnerFunc(func(context.Context, process.Command) (*process.Result, error) {
		return &process.Result{Stderr: []byte("pipe:0: Invalid data found when processing input\n"), ExitCode: 1},
			fmt.Errorf("process: exit code 1")
	})
	h, _ := audio.NewRegistry().Acquire(audio.BytesSource("bad.wav", nil))
	_, err := NewFFProbe("ffprobe", runner).Probe(context.Background(), h)
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestControllerWithHeadlessEngine(t *testing.T) {
	handles := audio.NewRegistry()
	model := selection.NewModel()
	ctrl := waveform.New(New(fixedDuration(1200)), handles, model)
	tu := testutil.T(t)
	tu.Setup(ctrl)

	ctrl.SetSource(audio.BytesSource("song.mp3", nil))
	tu.Eventually(2*time.Second, func() bool {
		return ctrl.Status().State == waveform.StateReady
	}, "controller ready")

	sel, ok := model.Current()
	want := selection.Selection{StartSec: 0, EndSec: 600, DurationSec: 1200}
	if !ok || sel != want {
		t.Fatalf("expected %v, got %v", want, sel)
	}

	ctrl.SelectFull()
	tu.Eventually(time.Second, func() bool {
		sel, _ := model.Current()
		return sel == selection.Full(1200)
	}, "full selection")

	ctrl.TogglePlay()
	tu.Eventually(time.Second, func() bool { return ctrl.Status().Playing }, "playing")
	ctrl.Teardown()
	tu.Eventually(time.Second, func() bool {
		return ctrl.Status().State == waveform.StateEmpty && handles.Live() == 0
	}, "torn down")
}
