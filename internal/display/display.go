// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type manages a persistent status bar (current resonance
// tone, ritual availability, speech indicator) and an input prompt at
// the bottom of the terminal. All application output is printed above
// the rendered area via Program.Println / Printf, ensuring concurrent
// writes never garble the display.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	toneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c4b5fd"))

	ritualOpenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	ritualDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	speakingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// ── Output styles (soft palette) ──

	// BannerStyle — muted slate for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// Ally — soft lavender for the companion's voice.
	allyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ddd6fe"))

	// Field label — soft mint for the labeled lines (Tone, Action…).
	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	// Primary text — light zinc for field values.
	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	// Secondary text — dimmed zinc for hints, sources, metadata.
	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	// Urgent — soft coral for errors/alerts.
	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

// ── UI ───────────────────────────────────────────────────────────

// Status is a snapshot of what the bottom bar shows. The UI polls for
// it once a second via the function passed to [NewUI].
type Status struct {
	Tone            string
	RitualAvailable bool
	Speaking        bool
}

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely
// call [UI.Println], [UI.Printf], and read from [UI.InputChan] at any
// time after [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	status  func() Status
	done    atomic.Bool
}

// NewUI creates the display. status supplies the bar content; it is
// called from the event loop and must be cheap and thread-safe. Call
// Run() to start.
func NewUI(status func() Status) *UI {
	return &UI{
		status:  status,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe.
// Each argument is converted via fmt.Sprint and printed on its own
// line(s). If the program hasn't started yet, falls back to
// fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt. Thread-safe.
// The output is printed on its own line (a trailing newline in the
// format string will produce an extra blank line).
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format, a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────
// These give output visual hierarchy with lipgloss colors.

// PrintAlly prints a line of the companion's reply.
func (u *UI) PrintAlly(text string) {
	u.Println(allyStyle.Render("  " + text))
}

// PrintField prints a labeled line like "Action: Step outside...".
func (u *UI) PrintField(label, value string) {
	u.Println(fieldLabelStyle.Render("  "+label+": ") + primaryStyle.Render(value))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an urgent/error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintSource prints a grounding reference.
func (u *UI) PrintSource(title, uri string) {
	u.Println(secondaryStyle.Render("  ◦ "+title+" — ") + secondaryStyle.Render(uri))
}

// PrintUserInput echoes the user's typed line into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("ally") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Use a plain-text prompt so the textinput width math stays correct.
	// Lipgloss-styled prompts add invisible ANSI bytes that break the
	// internal offset/scroll calculations for long input.
	ti.Prompt = "ally> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60 // updated on first WindowSizeMsg

	m := model{
		status:  u.status,
		input:   ti,
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		echoFn: func(v string) {
			u.PrintUserInput(v)
		},
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	status  func() Status
	input   textinput.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string) // prints user input into scrollback
	bar     Status
	width   int
}

// Messages.
type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Return a Cmd that prints the echo — this runs
				// outside Update so it won't deadlock on msgs.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		// Let the text input use the full width minus the prompt ("ally> " = 6 chars).
		const promptLen = 6
		if msg.Width > promptLen {
			m.input.Width = msg.Width - promptLen
		}
		return m, nil

	case tickMsg:
		if m.status != nil {
			m.bar = m.status()
		}
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(m.titleStr()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) titleStr() string {
	title := "Quantum Ally"
	if m.bar.Tone != "" {
		title += " — " + m.bar.Tone
	}
	if m.bar.Speaking {
		title += " ♪"
	}
	return title
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.renderBar())
	b.WriteByte('\n')

	// Blank line before prompt for visual separation.
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderBar() string {
	tone := m.bar.Tone
	if tone == "" {
		tone = "—"
	}
	parts := []string{
		labelStyle.Render("tone: ") + toneStyle.Render(tone),
	}

	if m.bar.RitualAvailable {
		parts = append(parts, ritualOpenStyle.Render("ritual: available"))
	} else {
		parts = append(parts, ritualDoneStyle.Render("ritual: complete today"))
	}

	if m.bar.Speaking {
		parts = append(parts, speakingStyle.Render("♪ speaking"))
	}

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(content)
}
