package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matt-g-everett/ledmagnet/frame"
	"github.com/matt-g-everett/ledmagnet/stream"
)

const pointerStep = 0.02

type tickMsg time.Time

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// previewModel advances a ManualHost from Bubble Tea ticks and draws the
// strip as a row of coloured cells.
type previewModel struct {
	host       *frame.ManualHost
	schedule   *frame.Schedule
	magnet     *stream.Magnet
	controller *stream.Controller
	interval time.Duration
	started  time.Time

	width   int
	pointer float64
	frame   *stream.Frame
}

func newPreviewModel(config stream.Config) (*previewModel, error) {
	foreground, err := stream.ParseHex(config.Magnet.Foreground)
	if err != nil {
		return nil, err
	}
	idle, err := stream.NewIdle(config.Magnet.Idle, config)
	if err != nil {
		return nil, err
	}

	m := new(previewModel)
	m.host = frame.NewManualHost()
	m.schedule = frame.NewSchedule(m.host)
	m.magnet = stream.NewMagnet(m.schedule, config.Strip.Pixels, config.Magnet.Radius, foreground,
		nil, stream.SpringOptions(config)...)
	m.interval = frame.IntervalForRate(config.Strip.FrameRate)
	m.width = 80
	m.pointer = 0.5
	m.frame = stream.NewFrame(config.Strip.Pixels)

	m.controller = stream.NewController(config.Strip.Pixels, idle, m.magnet, nil)
	m.controller.CycleIdle(config)
	m.schedule.Queue(frame.Func(func(info frame.Info) {
		m.frame = m.controller.Render(info)
	}), true)

	return m, nil
}

func (m *previewModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *previewModel) Init() tea.Cmd {
	m.started = time.Now()
	return m.tick()
}

func (m *previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.host.Advance(time.Time(msg).Sub(m.started))
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.schedule.Clear()
			m.magnet.Close()
			return m, tea.Quit
		case "left", "h":
			m.pointer = math.Max(0, m.pointer-pointerStep)
			m.magnet.Attract(m.pointer)
		case "right", "l":
			m.pointer = math.Min(1, m.pointer+pointerStep)
			m.magnet.Attract(m.pointer)
		case "enter":
			m.magnet.Attract(m.pointer)
		case " ":
			m.magnet.Release()
		case "n":
			if err := m.controller.NextIdle(); err != nil {
				return m, tea.Println(err.Error())
			}
		}
	}

	return m, nil
}

func (m *previewModel) View() string {
	var b strings.Builder

	cells := m.width
	if cells <= 0 || cells > m.frame.Len() {
		cells = m.frame.Len()
	}
	for i := 0; i < cells; i++ {
		c := m.frame.Pixel(i * m.frame.Len() / cells).Clamped()
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Render(" "))
	}
	b.WriteString("\n")

	marker := int(m.pointer * float64(cells-1))
	b.WriteString(strings.Repeat(" ", marker) + "^\n")

	pos, strength := m.magnet.State()
	status := fmt.Sprintf("pos %6.1f  strength %4.2f  %s  <-/-> move  enter attract  space release  n next  q quit",
		pos, strength, m.controller.Idle())
	b.WriteString(statusStyle.Render(status))

	return b.String()
}

func runPreview(cmd *cobra.Command, args []string) error {
	config, err := stream.LoadConfig(configPath)
	if err != nil {
		return err
	}

	m, err := newPreviewModel(config)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}
