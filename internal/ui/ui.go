// Package ui renders recordings from the sentinel as a live terminal meter.
package ui

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gopscpu "github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/tachmon/tach/internal/config"
	"github.com/tachmon/tach/internal/model"
	"github.com/tachmon/tach/internal/sentinel"
)

// Model renders live frames from the sentinel.
type Model struct {
	cfg      config.Config
	sentinel *sentinel.Sentinel
	frames   []model.Frame
	hostLine string
	tickErr  error
	fatal    error
	width    int
	height   int
}

func New(cfg config.Config, s *sentinel.Sentinel) *Model {
	return &Model{
		cfg:      cfg,
		sentinel: s,
		hostLine: hostLine(),
		width:    120,
		height:   40,
	}
}

// hostLine describes the machine in the header. Display garnish only; the
// utilization numbers never come from here.
func hostLine() string {
	name := "localhost"
	platform := runtime.GOOS
	if info, err := host.Info(); err == nil {
		name = info.Hostname
		if info.Platform != "" {
			platform = info.Platform
		}
	}
	cores, err := gopscpu.Counts(true)
	if err != nil || cores == 0 {
		cores = runtime.NumCPU()
	}
	return fmt.Sprintf("%s · %s · %d cores", name, platform, cores)
}

type tickMsg struct{}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.Interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) Init() tea.Cmd { return m.tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		if err := m.observe(); err != nil {
			m.fatal = err
			return m, tea.Quit
		}
		return m, m.tickCmd()
	}
	return m, nil
}

// observe takes one measurement. Consistency failures end the run; a failed
// read only skips the tick, the sentinel retries from the same baseline.
func (m *Model) observe() error {
	rec, err := m.sentinel.Observe()
	if err != nil {
		if sentinel.IsFatal(err) {
			return err
		}
		m.tickErr = err
		return nil
	}
	m.tickErr = nil
	if rec == nil {
		// first observation, no baseline to diff against yet.
		return nil
	}

	frame, err := rec.Frame()
	if err != nil {
		return err
	}
	m.frames = append(m.frames, frame)
	if over := len(m.frames) - m.cfg.History; over > 0 {
		m.frames = m.frames[over:]
	}
	return nil
}

// Err returns the error that ended the run, if any.
func (m *Model) Err() error { return m.fatal }

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	meterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	trailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	header := titleStyle.Render("tach") + "  " + subtleStyle.Render(m.hostLine)

	if len(m.frames) == 0 {
		body := subtleStyle.Render("waiting for first measurement…")
		return lipgloss.JoinVertical(lipgloss.Left, header, card("CPU", body))
	}
	latest := m.frames[len(m.frames)-1]

	when := subtleStyle.Render(latest.End.Format("15:04:05"))
	systemCard := card("System",
		fmt.Sprintf("%s %3d%%  %s", meterStyle.Render(Meter(float64(latest.System)/100, m.cfg.MeterWidth*2)), latest.System, when))

	rows := make([]string, 0, len(latest.Cores))
	for _, core := range latest.Cores {
		rows = append(rows, fmt.Sprintf("%-6s %s %3d%%  %s",
			fmt.Sprintf("cpu%d", core.ID),
			meterStyle.Render(Meter(float64(core.Percent)/100, m.cfg.MeterWidth)),
			core.Percent,
			trailStyle.Render(m.trail(core.ID))))
	}
	coresCard := card("Cores", strings.Join(rows, "\n"))

	parts := []string{header, systemCard, coresCard}
	if m.tickErr != nil {
		parts = append(parts, errStyle.Render("tick failed: "+m.tickErr.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// trail renders one braille cell per historical frame for the given core,
// oldest first.
func (m *Model) trail(id int) string {
	var b strings.Builder
	for _, f := range m.frames {
		for _, core := range f.Cores {
			if core.ID == id {
				b.WriteString(Cell(float64(core.Percent) / 100))
				break
			}
		}
	}
	return b.String()
}

func card(title, body string) string {
	return cardStyle.Render(labelStyle.Render(title) + "\n" + body)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(cfg config.Config, s *sentinel.Sentinel) error {
	m := New(cfg, s)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return m.Err()
}
