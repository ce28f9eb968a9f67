package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/foxstudiohua/AsynKingfisher/binder"
	"github.com/foxstudiohua/AsynKingfisher/fetch"
)

const (
	cellImageCols = 24
	cellImageRows = 8
	gridColumns   = 3
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	helpStyle  = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	focusedCellStyle = cellStyle.
				BorderForeground(lipgloss.Color("12"))
)

// Model is the gallery: a grid of cells, each a display slot the
// coordinator rebinds as the user cycles images through it.
type Model struct {
	coordinator *binder.Coordinator
	cells       []*cell
	urls        []string
	nextURL     []int // per-cell index of the next URL to bind
	focus       int
	keep        bool
	placeholder image.Image
	failure     image.Image
	spinner     spinner.Model
	width       int
	height      int
}

// NewModel creates the gallery model with one cell per URL.
func NewModel(coordinator *binder.Coordinator, urls []string, keep bool) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	cells := make([]*cell, len(urls))
	nextURL := make([]int, len(urls))
	for i := range urls {
		cells[i] = &cell{}
		nextURL[i] = i
	}

	return Model{
		coordinator: coordinator,
		cells:       cells,
		urls:        urls,
		nextURL:     nextURL,
		keep:        keep,
		placeholder: solidImage(color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}),
		failure:     solidImage(color.RGBA{R: 0x66, G: 0x11, B: 0x11, A: 0xff}),
		spinner:     sp,
	}
}

// solidImage returns a small uniformly colored image. Uniform colors
// keep placeholder and failure frames recognizable at half-block
// resolution.
func solidImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callMsg:
		// Marshaled coordinator callback; runs on the update loop, which
		// is the UI-affine thread the coordinator requires.
		msg.fn()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab", "right", "l":
		m.focus = (m.focus + 1) % len(m.cells)
		return m, nil

	case "shift+tab", "left", "h":
		m.focus = (m.focus - 1 + len(m.cells)) % len(m.cells)
		return m, nil

	case "n":
		// Bind the next URL into the focused cell; any in-flight load
		// for it becomes stale.
		m.nextURL[m.focus] = (m.nextURL[m.focus] + 1) % len(m.urls)
		m.bindCell(m.focus, m.urls[m.nextURL[m.focus]], false)
		return m, nil

	case "r":
		m.bindCell(m.focus, m.cellURL(m.focus), true)
		return m, nil

	case "x":
		m.coordinator.Cancel(m.cells[m.focus])
		return m, nil
	}
	return m, nil
}

func (m Model) cellURL(i int) string {
	if m.cells[i].url != "" {
		return m.cells[i].url
	}
	return m.urls[m.nextURL[i]]
}

// bindCell starts a load for cell i. Completion updates the cell's view
// state unless a later bind already owns it.
func (m Model) bindCell(i int, url string, forceRefresh bool) {
	c := m.cells[i]
	c.url = url
	c.loading = true
	c.err = nil

	m.coordinator.Bind(c, binder.Request{
		Source:      fetch.URLSource{URL: url},
		Placeholder: m.placeholder,
		Options: binder.Options{
			KeepCurrentImageWhileLoading: m.keep,
			OnFailureImage:               m.failure,
			ForceRefresh:                 forceRefresh,
		},
		OnComplete: func(r binder.Result) {
			if binder.IsStale(r.Err) {
				// A newer bind owns this cell's view state.
				return
			}
			c.loading = false
			c.err = r.Err
		},
	})
}

// BindAll starts the initial load for every cell. Must run on the
// update loop; the app posts it through the dispatcher.
func (m Model) BindAll() {
	for i := range m.cells {
		m.bindCell(i, m.urls[m.nextURL[i]], false)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var rows []string
	for start := 0; start < len(m.cells); start += gridColumns {
		end := start + gridColumns
		if end > len(m.cells) {
			end = len(m.cells)
		}
		var rendered []string
		for i := start; i < end; i++ {
			rendered = append(rendered, m.renderCell(i))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("AsynKingfisher gallery"))
	sb.WriteString("\n")
	sb.WriteString(strings.Join(rows, "\n"))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("tab: focus  n: next image  r: refresh  x: cancel  q: quit"))
	return sb.String()
}

func (m Model) renderCell(i int) string {
	c := m.cells[i]

	var body string
	switch {
	case c.err != nil:
		body = errStyle.Render(fmt.Sprintf("failed: %v", shortError(c.err)))
	case c.img != nil:
		body = ansiImage(c.img, cellImageCols, cellImageRows)
	default:
		body = "empty"
	}

	status := truncate(c.url, cellImageCols)
	if c.loading {
		status = m.spinner.View() + " " + status
	}

	content := lipgloss.JoinVertical(lipgloss.Left, body, status)
	if i == m.focus {
		return focusedCellStyle.Render(content)
	}
	return cellStyle.Render(content)
}

func shortError(err error) string {
	return truncate(err.Error(), cellImageCols*2)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
