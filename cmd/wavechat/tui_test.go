package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kbukum/wavechat/api"
	"github.com/kbukum/wavechat/audio"
	"github.com/kbukum/wavechat/errors"
	"github.com/kbukum/wavechat/selection"
	"github.com/kbukum/wavechat/waveform"
)

type fakePlayer struct {
	status waveform.Status
	calls  []string
	moves  [][2]float64
}

func (p *fakePlayer) Status() waveform.Status { return p.status }
func (p *fakePlayer) TogglePlay()             { p.calls = append(p.calls, "toggle") }
func (p *fakePlayer) PlayRegion()             { p.calls = append(p.calls, "region") }
func (p *fakePlayer) SelectFull()             { p.calls = append(p.calls, "full") }
func (p *fakePlayer) Retry()                  { p.calls = append(p.calls, "retry") }
func (p *fakePlayer) MoveRegion(ds, de float64) {
	p.calls = append(p.calls, "move")
	p.moves = append(p.moves, [2]float64{ds, de})
}

type fakeAnalyst struct {
	prompts  []string
	messages []string
	err      error
}

func (a *fakeAnalyst) RequestPreview(context.Context) (*api.PreviewResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	res := &api.PreviewResult{}
	_ = json.Unmarshal([]byte(`{"image":"data:image/png;base64,AAAA"}`), &res.Payload)
	return res, nil
}

func (a *fakeAnalyst) StartAnalysis(_ context.Context, p api.AnalysisParams) (*api.AnalysisResult, error) {
	a.prompts = append(a.prompts, p.Prompt)
	if a.err != nil {
		return nil, a.err
	}
	res := &api.AnalysisResult{SessionID: "s-1"}
	_ = json.Unmarshal([]byte(`{"sessionId":"s-1","analysis":"Laid-back groove in A minor."}`), &res.Payload)
	return res, nil
}

func (a *fakeAnalyst) ContinueChat(_ context.Context, message string) (*api.ChatResult, error) {
	a.messages = append(a.messages, message)
	if a.err != nil {
		return nil, a.err
	}
	res := &api.ChatResult{}
	_ = json.Unmarshal([]byte(`{"reply":"About 92 BPM."}`), &res.Payload)
	return res, nil
}

func newTestUI(t *testing.T) (ui, *fakePlayer, *fakeAnalyst, *selection.Model) {
	t.Helper()
	p := &fakePlayer{status: waveform.Status{State: waveform.StateReady, Source: "take.wav", Duration: 120}}
	a := &fakeAnalyst{}
	model := selection.NewModel()
	if err := model.Set(selection.Selection{StartSec: 0, EndSec: 30, DurationSec: 120}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := newUI(context.Background(), uiDeps{
		source:     audio.BytesSource("take.wav", nil),
		player:     p,
		analyst:    a,
		selections: model,
		params:     api.AnalysisParams{Prompt: "default prompt", ModelID: "model-a", Mode: "music"},
		step:       2,
		events:     newNotifier(),
	})
	return m, p, a, model
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m ui, msg tea.Msg) (ui, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(ui), cmd
}

// runCmd executes cmd and feeds every resulting message except spinner
// ticks back into the model.
func runCmd(t *testing.T, m ui, cmd tea.Cmd) ui {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = runCmd(t, m, c)
		}
	case previewDoneMsg, analysisDoneMsg, chatDoneMsg:
		m, _ = send(m, msg)
	}
	return m
}

func typeText(m ui, text string) ui {
	for _, r := range text {
		m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestKeysDrivePlayer(t *testing.T) {
	m, p, _, _ := newTestUI(t)
	for _, k := range []string{" ", "enter", "h", "l", "H", "L", "f", "r"} {
		m, _ = send(m, key(k))
	}

	want := []string{"toggle", "region", "move", "move", "move", "move", "full", "retry"}
	if strings.Join(p.calls, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, p.calls)
	}
	wantMoves := [][2]float64{{-2, -2}, {2, 2}, {0, -2}, {0, 2}}
	for i, mv := range wantMoves {
		if p.moves[i] != mv {
			t.Errorf("move %d: expected %v, got %v", i, mv, p.moves[i])
		}
	}
}

func TestQuit(t *testing.T) {
	m, _, _, _ := newTestUI(t)
	_, cmd := send(m, key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestAnalyzeThenChat(t *testing.T) {
	m, _, a, _ := newTestUI(t)

	m, _ = send(m, key("a"))
	if m.mode != inputPrompt || m.input.Value() != "default prompt" {
		t.Fatalf("expected prompt input prefilled, got mode %v value %q", m.mode, m.input.Value())
	}
	m.input.SetValue("")
	m = typeText(m, "focus on drums")
	m, cmd := send(m, key("enter"))
	if m.busy == "" {
		t.Error("expected busy while analyzing")
	}
	m = runCmd(t, m, cmd)

	if len(a.prompts) != 1 || a.prompts[0] != "focus on drums" {
		t.Fatalf("unexpected prompts %v", a.prompts)
	}
	if m.busy != "" || m.err != nil {
		t.Fatalf("expected idle without error, got busy %q err %v", m.busy, m.err)
	}
	if len(m.transcript) != 1 || m.transcript[0].text != "Laid-back groove in A minor." {
		t.Errorf("unexpected transcript %+v", m.transcript)
	}

	m, _ = send(m, key("c"))
	m = typeText(m, "tempo?")
	m, cmd = send(m, key("enter"))
	m = runCmd(t, m, cmd)

	if len(a.messages) != 1 || a.messages[0] != "tempo?" {
		t.Fatalf("unexpected messages %v", a.messages)
	}
	last := m.transcript[len(m.transcript)-1]
	if last.text != "About 92 BPM." {
		t.Errorf("unexpected reply %+v", last)
	}
	if view := m.View(); !strings.Contains(view, "About 92 BPM.") || !strings.Contains(view, "tempo?") {
		t.Errorf("expected transcript in view:\n%s", view)
	}
}

func TestEmptyChatMessageNotSent(t *testing.T) {
	m, _, a, _ := newTestUI(t)
	m, _ = send(m, key("c"))
	m, cmd := send(m, key("enter"))
	if cmd != nil || len(a.messages) != 0 || m.mode != inputNone {
		t.Errorf("expected nothing sent for empty input")
	}

	m, _ = send(m, key("c"))
	m = typeText(m, "x")
	m, _ = send(m, key("esc"))
	if m.mode != inputNone {
		t.Error("expected esc to leave input mode")
	}
}

func TestErrorsShown(t *testing.T) {
	m, _, a, _ := newTestUI(t)
	a.err = errors.NoActiveSession()

	m, _ = send(m, key("c"))
	m = typeText(m, "hi")
	m, cmd := send(m, key("enter"))
	m = runCmd(t, m, cmd)

	if !errors.IsNoActiveSession(m.err) {
		t.Fatalf("expected NoActiveSession, got %v", m.err)
	}
	if !strings.Contains(m.View(), "No analysis session yet") {
		t.Errorf("expected error message in view:\n%s", m.View())
	}

	a.err = errors.RequestFailed(422, "bad model id")
	m, cmd = send(m, key("p"))
	m = runCmd(t, m, cmd)
	if !strings.Contains(m.View(), "Error 422: bad model id") {
		t.Errorf("expected request error in view:\n%s", m.View())
	}
}

func TestPreviewNotice(t *testing.T) {
	m, _, _, _ := newTestUI(t)
	m, cmd := send(m, key("p"))
	m = runCmd(t, m, cmd)
	if !strings.Contains(m.notice, "spectrogram image") {
		t.Errorf("unexpected notice %q", m.notice)
	}
}

func TestBusyBlocksSecondRequest(t *testing.T) {
	m, _, _, _ := newTestUI(t)
	m, first := send(m, key("p"))
	if first == nil {
		t.Fatal("expected preview command")
	}
	_, second := send(m, key("p"))
	if second != nil {
		t.Error("expected second request ignored while busy")
	}
}

func TestRefreshReadsLatestState(t *testing.T) {
	m, p, _, model := newTestUI(t)
	p.status = waveform.Status{State: waveform.StateReady, Source: "take.wav", Duration: 120, Playing: true}
	if err := model.Set(selection.Selection{StartSec: 10, EndSec: 20, DurationSec: 120}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, cmd := send(m, refreshMsg{})
	if cmd == nil {
		t.Error("expected refresh to wait for the next change")
	}
	if !m.status.Playing || m.sel.StartSec != 10 {
		t.Errorf("expected refreshed state, got %+v %+v", m.status, m.sel)
	}
	view := m.View()
	if !strings.Contains(view, "0:10.0") || !strings.Contains(view, "playing") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestNotifierCoalesces(t *testing.T) {
	n := newNotifier()
	n.notify()
	n.notify()
	n.notify()

	if _, ok := n.wait(context.Background())().(refreshMsg); !ok {
		t.Fatal("expected refresh")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if msg := n.wait(ctx)(); msg != nil {
		t.Errorf("expected no pending refresh, got %v", msg)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[float64]string{
		0:     "0:00.0",
		5.4:   "0:05.4",
		65.3:  "1:05.3",
		600:   "10:00.0",
		-1:    "0:00.0",
	}
	for in, want := range tests {
		if got := formatSeconds(in); got != want {
			t.Errorf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestBarHighlightsSelection(t *testing.T) {
	m, _, _, _ := newTestUI(t)
	if !strings.Contains(m.bar(), "█") {
		t.Error("expected selected cells")
	}
	m.status.State = waveform.StateLoading
	if strings.Contains(m.bar(), "█") {
		t.Error("expected no selection drawn while loading")
	}
}
