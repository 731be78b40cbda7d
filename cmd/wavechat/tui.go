package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kbukum/wavechat/api"
	"github.com/kbukum/wavechat/audio"
	"github.com/kbukum/wavechat/errors"
	"github.com/kbukum/wavechat/selection"
	"github.com/kbukum/wavechat/session"
	"github.com/kbukum/wavechat/waveform"
)

const (
	defaultBarWidth = 60
	maxTranscript   = 12
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	youStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	botStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

// player is the part of the waveform controller the UI drives.
type player interface {
	Status() waveform.Status
	TogglePlay()
	PlayRegion()
	SelectFull()
	MoveRegion(deltaStart, deltaEnd float64)
	Retry()
}

// analyst is the part of the session orchestrator the UI drives.
type analyst interface {
	RequestPreview(ctx context.Context) (*api.PreviewResult, error)
	StartAnalysis(ctx context.Context, params api.AnalysisParams) (*api.AnalysisResult, error)
	ContinueChat(ctx context.Context, message string) (*api.ChatResult, error)
}

type uiDeps struct {
	source     audio.Source
	player     player
	analyst    analyst
	selections session.SelectionReader
	params     api.AnalysisParams
	step       float64
	events     *notifier
}

// notifier coalesces change signals from the controller and the selection
// model into at most one pending refresh.
type notifier struct {
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{}, 1)}
}

func (n *notifier) notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

func (n *notifier) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-n.ch:
			return refreshMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

type (
	refreshMsg     struct{}
	previewDoneMsg struct {
		res *api.PreviewResult
		err error
	}
	analysisDoneMsg struct {
		res *api.AnalysisResult
		err error
	}
	chatDoneMsg struct {
		message string
		res     *api.ChatResult
		err     error
	}
)

type inputMode int

const (
	inputNone inputMode = iota
	inputPrompt
	inputChat
)

type line struct {
	who  string
	text string
}

type ui struct {
	ctx  context.Context
	deps uiDeps

	status waveform.Status
	sel    selection.Selection
	hasSel bool

	input      textinput.Model
	spin       spinner.Model
	mode       inputMode
	busy       string
	notice     string
	err        error
	transcript []line
	width      int
}

func newUI(ctx context.Context, deps uiDeps) ui {
	in := textinput.New()
	in.CharLimit = 0
	in.Width = defaultBarWidth

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	if deps.step <= 0 {
		deps.step = 1
	}
	m := ui{ctx: ctx, deps: deps, input: in, spin: s}
	m.refresh()
	return m
}

func (m ui) Init() tea.Cmd {
	return m.deps.events.wait(m.ctx)
}

func (m *ui) refresh() {
	m.status = m.deps.player.Status()
	m.sel, m.hasSel = m.deps.selections.Current()
}

func (m ui) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case refreshMsg:
		m.refresh()
		return m, m.deps.events.wait(m.ctx)

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case previewDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.notice = "Preview ready: " + describePreview(msg.res)
		return m, nil

	case analysisDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.transcript = []line{{who: "analysis", text: analysisText(msg.res)}}
		m.notice = "Session " + msg.res.SessionID + " started. Press c to chat."
		return m, nil

	case chatDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.transcript = append(m.transcript, line{who: "you", text: msg.message}, line{who: "backend", text: msg.res.Reply()})
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m ui) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := m.deps.step
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "space":
		m.deps.player.TogglePlay()
	case "enter":
		m.deps.player.PlayRegion()
	case "h", "left":
		m.deps.player.MoveRegion(-step, -step)
	case "l", "right":
		m.deps.player.MoveRegion(step, step)
	case "H":
		m.deps.player.MoveRegion(0, -step)
	case "L":
		m.deps.player.MoveRegion(0, step)
	case "f":
		m.deps.player.SelectFull()
	case "r":
		m.deps.player.Retry()
	case "p":
		return m.start("Rendering preview", m.preview())
	case "a":
		m.mode = inputPrompt
		m.input.Prompt = "Prompt> "
		m.input.Placeholder = "What should the analysis focus on?"
		m.input.SetValue(m.deps.params.Prompt)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "c":
		m.mode = inputChat
		m.input.Prompt = "You> "
		m.input.Placeholder = "Ask about the analysis"
		m.input.SetValue("")
		return m, m.input.Focus()
	}
	return m, nil
}

func (m ui) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = inputNone
		m.input.Blur()
		m.input.SetValue("")
		switch mode {
		case inputPrompt:
			params := m.deps.params
			params.Prompt = text
			m.deps.params = params
			return m.start("Analyzing", m.analyze(params))
		case inputChat:
			if text == "" {
				return m, nil
			}
			return m.start("Waiting for reply", m.chat(text))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// start runs cmd unless a request is already in flight.
func (m ui) start(label string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	m.busy = label
	m.err = nil
	m.notice = ""
	return m, tea.Batch(cmd, m.spin.Tick)
}

func (m ui) preview() tea.Cmd {
	ctx, a := m.ctx, m.deps.analyst
	return func() tea.Msg {
		res, err := a.RequestPreview(ctx)
		return previewDoneMsg{res: res, err: err}
	}
}

func (m ui) analyze(params api.AnalysisParams) tea.Cmd {
	ctx, a := m.ctx, m.deps.analyst
	return func() tea.Msg {
		res, err := a.StartAnalysis(ctx, params)
		return analysisDoneMsg{res: res, err: err}
	}
}

func (m ui) chat(message string) tea.Cmd {
	ctx, a := m.ctx, m.deps.analyst
	return func() tea.Msg {
		res, err := a.ContinueChat(ctx, message)
		return chatDoneMsg{message: message, res: res, err: err}
	}
}

func (m ui) View() string {
	var b strings.Builder

	name := m.status.Source
	if name == "" && m.deps.source != nil {
		name = m.deps.source.Name()
	}
	b.WriteString(titleStyle.Render("wavechat"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s · %s", name, m.status.State)))
	if m.status.State == waveform.StateReady {
		b.WriteString(dimStyle.Render(" · " + formatSeconds(m.status.Duration)))
	}
	b.WriteString("\n\n")

	b.WriteString(m.bar())
	b.WriteString("\n")
	if m.hasSel {
		fmt.Fprintf(&b, "selection %s – %s (%s)", formatSeconds(m.sel.StartSec), formatSeconds(m.sel.EndSec), formatSeconds(m.sel.Length()))
	} else {
		b.WriteString(dimStyle.Render("no selection"))
	}
	if m.status.Playing {
		b.WriteString("  ▶ playing")
	}
	b.WriteString("\n\n")

	if m.status.LoadErr != nil {
		b.WriteString(errorStyle.Render(errorText(m.status.LoadErr)+" Press r to retry.") + "\n")
	}
	switch {
	case m.busy != "":
		b.WriteString(m.spin.View() + " " + m.busy + "…\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(errorText(m.err)) + "\n")
	case m.notice != "":
		b.WriteString(m.notice + "\n")
	}

	lines := m.transcript
	if len(lines) > maxTranscript {
		lines = lines[len(lines)-maxTranscript:]
	}
	if len(lines) > 0 {
		b.WriteString("\n")
	}
	for _, l := range lines {
		switch l.who {
		case "you":
			b.WriteString(youStyle.Render("You:") + " " + l.text + "\n")
		default:
			b.WriteString(botStyle.Render("Backend:") + " " + l.text + "\n")
		}
	}

	b.WriteString("\n")
	if m.mode != inputNone {
		b.WriteString(m.input.View() + "\n")
		b.WriteString(dimStyle.Render("enter send · esc cancel"))
	} else {
		b.WriteString(dimStyle.Render("space play/pause · enter play region · h/l move · H/L resize · f full · p preview · a analyze · c chat · r retry · q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// bar draws the file as a row of cells with the selection highlighted.
func (m ui) bar() string {
	width := defaultBarWidth
	if m.width > 0 {
		width = min(max(m.width-4, 10), 120)
	}
	dur := m.status.Duration
	if m.status.State != waveform.StateReady || dur <= 0 {
		return dimStyle.Render(strings.Repeat("·", width))
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		t := (float64(i) + 0.5) / float64(width) * dur
		if m.hasSel && t >= m.sel.StartSec && t <= m.sel.EndSec {
			b.WriteString(selectedStyle.Render("█"))
		} else {
			b.WriteString(dimStyle.Render("▁"))
		}
	}
	return b.String()
}

func formatSeconds(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	minutes := int(sec) / 60
	return fmt.Sprintf("%d:%04.1f", minutes, sec-float64(minutes*60))
}

func errorText(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}

func describePreview(res *api.PreviewResult) string {
	if img := res.StringField("image"); img != "" {
		return fmt.Sprintf("spectrogram image (%d bytes)", len(img))
	}
	return truncate(res.Compact(), 120)
}

func analysisText(res *api.AnalysisResult) string {
	if s := res.FirstString("analysis", "result", "summary", "text"); s != "" {
		return s
	}
	return res.Compact()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
