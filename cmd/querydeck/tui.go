package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"querydeck/internal/catalog"
	"querydeck/internal/config"
	"querydeck/internal/conversation"
	"querydeck/internal/gateway"
	"querydeck/internal/present"
)

type model struct {
	cfg  config.Config
	log  *zap.Logger
	gw   *gateway.Client
	conv *conversation.Conversation

	categories []catalog.Category
	queries    []string

	// presentation holds per-result view state keyed by assistant message
	// ID, so multiple rendered results stay independent.
	presentation map[string]*present.State
	lastResultID string

	online      bool
	probed      bool
	statusLine  string
	quitConfirm bool

	pickerActive bool
	pickerIndex  int

	width  int
	height int

	input textinput.Model
	chat  viewport.Model
	spin  spinner.Model

	theme uiTheme
}

type turnDoneMsg struct {
	outcome conversation.Outcome
}

type probeDoneMsg struct {
	online bool
}

type probeTickMsg time.Time

func newModel(cfg config.Config, log *zap.Logger, gw *gateway.Client, conv *conversation.Conversation, categories []catalog.Category) model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 2000
	input.Placeholder = "Ask about your data. Ctrl+E for example queries."
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	chat := viewport.New(0, 0)
	chat.MouseWheelEnabled = true
	chat.MouseWheelDelta = 4

	return model{
		cfg:          cfg,
		log:          log,
		gw:           gw,
		conv:         conv,
		categories:   categories,
		queries:      catalog.Flatten(categories),
		presentation: map[string]*present.State{},
		statusLine:   "connecting...",
		input:        input,
		chat:         chat,
		spin:         sp,
		theme:        newTheme(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		m.probeCmd(),
		probeTickEvery(m.cfg.ProbeInterval),
	)
}

// probeCmd fires the fire-and-forget availability probe. It only drives
// the online badge, never conversation flow.
func (m model) probeCmd() tea.Cmd {
	gw := m.gw
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return probeDoneMsg{online: gw.CheckAvailability(ctx)}
	}
}

func probeTickEvery(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return probeTickMsg(t)
	})
}

// resolveCmd runs the turn's single network call off the update loop.
// Resolve touches no mutable conversation state.
func (m model) resolveCmd(text string) tea.Cmd {
	conv := m.conv
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return turnDoneMsg{outcome: conv.Resolve(ctx, text)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case turnDoneMsg:
		record := m.conv.Complete(msg.outcome)
		if record.Failed {
			m.statusLine = "turn failed"
		} else {
			m.statusLine = compactSingleLine(record.Text, 80)
		}
		if record.Result != nil {
			m.presentation[record.ID] = present.NewState()
			m.lastResultID = record.ID
		}
		m.renderChat()
		m.chat.GotoBottom()
	case probeDoneMsg:
		m.online = msg.online
		m.probed = true
		if m.statusLine == "connecting..." {
			if msg.online {
				m.statusLine = "backend online"
			} else {
				m.statusLine = "backend offline · answers will fail until it returns"
			}
		}
	case probeTickMsg:
		cmds = append(cmds, m.probeCmd(), probeTickEvery(m.cfg.ProbeInterval))
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderChat()
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		return m.handleKey(msg, cmds)
	}
	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.quitConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			return m, tea.Quit
		case "n", "N", "esc":
			m.quitConfirm = false
			m.statusLine = "quit canceled"
		}
		return m, tea.Batch(cmds...)
	}
	if m.pickerActive {
		return m.handlePickerKey(msg, cmds)
	}

	switch msg.String() {
	case "esc":
		m.quitConfirm = true
		return m, tea.Batch(cmds...)
	case "ctrl+e":
		if len(m.queries) > 0 {
			m.pickerActive = true
			m.pickerIndex = 0
			m.input.Blur()
		}
		return m, tea.Batch(cmds...)
	case "enter":
		raw := m.input.Value()
		if !m.conv.Submit(raw) {
			if m.conv.Sending() {
				m.statusLine = "still waiting on the previous question"
			}
			return m, tea.Batch(cmds...)
		}
		m.input.SetValue("")
		m.statusLine = "asking backend..."
		m.renderChat()
		m.chat.GotoBottom()
		cmds = append(cmds, m.resolveCmd(raw))
		return m, tea.Batch(cmds...)
	case "f1":
		m.setResultMode(present.ModeSummary)
		return m, tea.Batch(cmds...)
	case "f2":
		m.setResultMode(present.ModeTable)
		return m, tea.Batch(cmds...)
	case "f3":
		m.setResultMode(present.ModeTimeline)
		return m, tea.Batch(cmds...)
	case "f4":
		m.setResultMode(present.ModeRaw)
		return m, tea.Batch(cmds...)
	case "ctrl+r":
		if state, ok := m.presentation[m.lastResultID]; ok {
			state.ToggleRaw()
			m.statusLine = ternary(state.ShowRaw, "raw view on", "raw view off")
			m.renderChat()
			m.chat.GotoBottom()
		}
		return m, tea.Batch(cmds...)
	case "pgup", "ctrl+b":
		m.chat.LineUp(8)
		return m, tea.Batch(cmds...)
	case "pgdown", "ctrl+f":
		m.chat.LineDown(8)
		return m, tea.Batch(cmds...)
	case "home":
		m.chat.GotoTop()
		return m, tea.Batch(cmds...)
	case "end":
		m.chat.GotoBottom()
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m model) handlePickerKey(msg tea.KeyMsg, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+e":
		m.pickerActive = false
		m.input.Focus()
	case "up", "k":
		m.pickerIndex = (m.pickerIndex + len(m.queries) - 1) % len(m.queries)
	case "down", "j":
		m.pickerIndex = (m.pickerIndex + 1) % len(m.queries)
	case "enter":
		m.conv.Prefill(m.queries[m.pickerIndex])
		m.input.SetValue(m.conv.TakePrefill())
		m.input.CursorEnd()
		m.pickerActive = false
		m.input.Focus()
		m.statusLine = "query prefilled · enter to send"
	}
	return m, tea.Batch(cmds...)
}

// setResultMode switches the newest result's view mode; ineligible modes
// are a silent no-op.
func (m *model) setResultMode(mode present.ViewMode) {
	record, state, ok := m.lastResult()
	if !ok {
		return
	}
	if state.SetMode(record.Result, mode) {
		m.statusLine = "view: " + string(mode)
		m.renderChat()
		m.chat.GotoBottom()
	}
}

func (m *model) lastResult() (conversation.Message, *present.State, bool) {
	state, ok := m.presentation[m.lastResultID]
	if !ok {
		return conversation.Message{}, nil, false
	}
	for _, record := range m.conv.Messages() {
		if record.ID == m.lastResultID {
			return record, state, true
		}
	}
	return conversation.Message{}, nil, false
}

func (m *model) resize() {
	contentWidth := maxInt(20, m.width-6)
	m.input.Width = contentWidth - 4
	chatHeight := maxInt(5, m.height-9)
	m.chat.Width = contentWidth
	m.chat.Height = chatHeight
}
