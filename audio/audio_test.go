package audio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kbukum/wavechat/component"
	"github.com/kbukum/wavechat/errors"
)

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := FileSource(path)
	if src.Name() != "take.wav" {
		t.Errorf("expected name take.wav, got %q", src.Name())
	}
	if src.ContentType() != "audio/wav" {
		t.Errorf("expected audio/wav, got %q", src.ContentType())
	}
	for i := 0; i < 2; i++ {
		data, err := ReadAll(src)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "RIFF" {
			t.Errorf("read %d: unexpected content %q", i, data)
		}
	}
}

func TestFileSourceMissing(t *testing.T) {
	if _, err := ReadAll(FileSource(filepath.Join(t.TempDir(), "nope.mp3"))); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"a.mp3":  "audio/mpeg",
		"a.flac": "audio/flac",
		"a.json": "application/json",
		"a":      "application/octet-stream",
	}
	for name, want := range tests {
		if got := BytesSource(name, nil).ContentType(); got != want {
			t.Errorf("%s: expected %q, got %q", name, want, got)
		}
	}
}

func TestAcquireRelease(t *testing.T) {
	r := NewRegistry()
	src := BytesSource("a.wav", []byte("pcm"))

	h, err := r.Acquire(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ID() == "" || h.Source() != src {
		t.Fatalf("unexpected handle %+v", h)
	}
	if h.URL() != "blob:wavechat/"+h.ID() {
		t.Errorf("unexpected url %q", h.URL())
	}
	if r.Live() != 1 {
		t.Fatalf("expected 1 live handle, got %d", r.Live())
	}

	rc, err := h.Open()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "pcm" {
		t.Errorf("unexpected content %q", data)
	}

	h.Release()
	h.Release()
	if !h.Released() {
		t.Error("expected handle released")
	}
	if r.Live() != 0 {
		t.Fatalf("expected 0 live handles, got %d", r.Live())
	}
	if _, err := h.Open(); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected released handle to refuse Open, got %v", err)
	}
}

func TestAcquireNilSource(t *testing.T) {
	if _, err := NewRegistry().Acquire(nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestHandleIDsUnique(t *testing.T) {
	r := NewRegistry()
	src := BytesSource("a.wav", nil)
	seen := map[string]bool{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := r.Acquire(src)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			seen[h.ID()] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != 50 || r.Live() != 50 {
		t.Fatalf("expected 50 unique live handles, got %d ids / %d live", len(seen), r.Live())
	}
}

func TestRegistryStopReleasesLeaks(t *testing.T) {
	r := NewRegistry()
	h1, _ := r.Acquire(BytesSource("a.wav", nil))
	h2, _ := r.Acquire(BytesSource("b.wav", nil))

	if got := r.Health(context.Background()).Status; got != component.StatusDegraded {
		t.Errorf("expected degraded with 2 live handles, got %s", got)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h1.Released() || !h2.Released() || r.Live() != 0 {
		t.Fatal("expected all handles released after Stop")
	}
	if got := r.Health(context.Background()).Status; got != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", got)
	}
}

func TestLocator(t *testing.T) {
	if l, ok := FileSource("/tmp/a.wav").(Locator); !ok || l.Path() != "/tmp/a.wav" {
		t.Error("expected file source to expose its path")
	}
	if _, ok := BytesSource("a.wav", nil).(Locator); ok {
		t.Error("expected bytes source not to expose a path")
	}
}

func TestRegistryDescribe(t *testing.T) {
	r := NewRegistry()
	var _ component.Describable = r

	h, err := r.Acquire(BytesSource("a.wav", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer h.Release()
	if d := r.Describe(); d.Type != "audio" || d.Details != "1 live handles" {
		t.Errorf("unexpected description %+v", d)
	}
}
