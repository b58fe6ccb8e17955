// Package tui provides the Bubble Tea transistor workbench.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/bjtsim/internal/bench"
	"github.com/verte-zerg/bjtsim/internal/bjt"
	"github.com/verte-zerg/bjtsim/internal/chart"
	"github.com/verte-zerg/bjtsim/internal/device"
	"github.com/verte-zerg/bjtsim/internal/export"
	"github.com/verte-zerg/bjtsim/internal/store"
)

const (
	tabInput = iota
	tabOutput
	tabTransfer
	tabParameters
	tabDevice
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Options wires the workbench to its collaborators. Store may be nil to
// disable history.
type Options struct {
	Store      *store.Store
	ExportDir  string
	PlotHeight int
	Logger     zerolog.Logger
	Now        func() time.Time
}

type sweepDoneMsg struct {
	generation uint64
	result     bjt.SweepResult
	err        error
}

type exportDoneMsg struct {
	path string
	err  error
}

// Model implements the Bubble Tea workbench UI.
type Model struct {
	session *bench.Session
	opts    Options

	tabs      []string
	activeTab int
	viewports []viewport.Model
	devices   table.Model

	width  int
	height int

	formMode   bool
	formInputs []textinput.Model
	formIndex  int
	formError  string

	pending int
	status  string
	errMsg  string
}

// NewModel constructs a workbench around an existing session.
func NewModel(session *bench.Session, opts Options) *Model {
	if opts.PlotHeight <= 0 {
		opts.PlotHeight = chart.DefaultHeight
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Model{
		session: session,
		opts:    opts,
		tabs:    []string{"Input", "Output", "Transfer", "Parameters", "Device"},
	}
	m.viewports = make([]viewport.Model, tabDevice)
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.initForm()
	m.devices = buildDeviceTable(session.Device())
	m.renderTabContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case sweepDoneMsg:
		m.handleSweepDone(msg)
		return m, nil
	case exportDoneMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.status = "Exported " + msg.path
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.formMode {
			return m.updateForm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "[":
		m.selectDevice(device.Next(m.session.Device(), -1))
		return m, nil
	case "]":
		m.selectDevice(device.Next(m.session.Device(), 1))
		return m, nil
	case "i":
		return m, m.runSweep(bjt.KindInput)
	case "o":
		return m, m.runSweep(bjt.KindOutput)
	case "t":
		return m, m.runSweep(bjt.KindTransfer)
	case "a":
		cmds := make([]tea.Cmd, 0, len(bjt.Kinds))
		for _, kind := range bjt.Kinds {
			cmds = append(cmds, m.runSweep(kind))
		}
		return m, tea.Batch(cmds...)
	case "e":
		return m, m.exportCmd()
	case "/":
		return m.startForm()
	case "g", "home":
		if m.activeTab == tabDevice {
			m.devices.GotoTop()
		} else {
			m.viewports[m.activeTab].GotoTop()
		}
		return m, nil
	case "G", "end":
		if m.activeTab == tabDevice {
			m.devices.GotoBottom()
		} else {
			m.viewports[m.activeTab].GotoBottom()
		}
		return m, nil
	}
	if m.activeTab == tabDevice {
		var cmd tea.Cmd
		m.devices, cmd = m.devices.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
	return m, cmd
}

// runSweep returns a command that computes the sweep off the update loop.
func (m *Model) runSweep(kind bjt.Kind) tea.Cmd {
	name := m.session.Device()
	fixed := m.session.Inputs().Fixed(kind)
	gen := m.session.Generation()
	m.pending++
	m.status = "Simulating..."
	m.errMsg = ""
	m.activeTab = int(kind)
	return func() tea.Msg {
		res, err := bjt.Sweep(kind, fixed, name)
		return sweepDoneMsg{generation: gen, result: res, err: err}
	}
}

func (m *Model) handleSweepDone(msg sweepDoneMsg) {
	if m.pending > 0 {
		m.pending--
	}
	if m.pending == 0 {
		m.status = ""
	}
	if msg.err != nil {
		m.errMsg = msg.err.Error()
		return
	}
	if msg.generation != m.session.Generation() {
		// The session was reset while the sweep was running.
		return
	}
	if err := m.session.Store(msg.result); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.recordSweep(msg.result)
	if m.pending == 0 {
		// Parameters are saved once per batch, from the complete set.
		m.recordParameters()
		m.status = msg.result.Label() + " done"
	}
	m.renderTabContents()
}

func (m *Model) recordSweep(res bjt.SweepResult) {
	if m.opts.Store == nil {
		return
	}
	if _, err := m.opts.Store.InsertSweep(context.Background(), res, m.opts.Now()); err != nil {
		m.opts.Logger.Error().Err(err).Str("sweep", res.Label()).Msg("failed to save sweep")
		m.errMsg = fmt.Sprintf("failed to save sweep: %v", err)
	}
}

func (m *Model) recordParameters() {
	if m.opts.Store == nil {
		return
	}
	params, ok := m.session.Parameters()
	if !ok {
		return
	}
	if _, err := m.opts.Store.InsertParameters(context.Background(), m.session.Device(), params, m.opts.Now()); err != nil {
		m.opts.Logger.Error().Err(err).Msg("failed to save parameters")
		m.errMsg = fmt.Sprintf("failed to save parameters: %v", err)
	}
}

func (m *Model) selectDevice(name string) {
	before := m.session.Device()
	if err := m.session.SetDevice(name); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	if m.session.Device() != before {
		m.status = fmt.Sprintf("Selected %s; results cleared", m.session.Device())
	}
	m.devices.SetCursor(deviceIndex(m.session.Device()))
	m.renderTabContents()
}

func (m *Model) exportCmd() tea.Cmd {
	sweeps := m.session.Sweeps()
	if len(sweeps) == 0 {
		m.errMsg = "nothing to export; run a sweep first"
		return nil
	}
	dir := m.opts.ExportDir
	name := m.session.Device()
	date := m.opts.Now()
	return func() tea.Msg {
		path, err := export.WriteFile(dir, name, date, sweeps...)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabDevice {
		m.devices.Focus()
	} else {
		m.devices.Blur()
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := maxInt(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 2
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.devices.SetWidth(m.width)
	m.devices.SetHeight(maxInt(1, bodyHeight-1))
	for i := range m.formInputs {
		promptWidth := lipgloss.Width(m.formInputs[i].Prompt)
		m.formInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + padLine(m.renderSettings(), m.width)
}

func (m *Model) renderSettings() string {
	in := m.session.Inputs()
	summary := fmt.Sprintf("Device: %s  VCE(input)=%sV  IB(output)=%sμA  VCE(transfer)=%sV",
		m.session.Device(), formatNumber(in.VCEInput), formatNumber(in.IBOutput), formatNumber(in.VCETransfer))
	if m.opts.Store != nil {
		summary += "  history: on"
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	if m.formMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	return headerStyle.Render("Run: i/o/t/a  Device: [ ]  Values: /  Export: e  Nav: left/right  Quit: q")
}

func (m *Model) renderFooter() string {
	line := ""
	switch {
	case m.errMsg != "":
		line = errorStyle.Render(m.errMsg)
	case m.formError != "":
		line = errorStyle.Render(m.formError)
	case m.status != "":
		line = statusStyle.Render(m.status)
	}
	return m.renderHelp() + "\n" + line
}

func (m *Model) renderBody(height int) string {
	if m.formMode {
		return fitLines(m.renderForm(), m.width, height)
	}
	if m.activeTab == tabDevice {
		return fitLines(m.devices.View()+"\n"+m.renderDeviceDetail(), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	for _, kind := range bjt.Kinds {
		m.viewports[kind].SetContent(m.renderSweepTab(kind, width))
	}
	m.viewports[tabParameters].SetContent(m.renderParameters(width))
}

func (m *Model) renderSweepTab(kind bjt.Kind, width int) string {
	sw, ok := m.session.Sweep(kind)
	if !ok {
		key := map[bjt.Kind]string{bjt.KindInput: "i", bjt.KindOutput: "o", bjt.KindTransfer: "t"}[kind]
		return fmt.Sprintf("No %s characteristics yet. Press %s to run.", kind, key)
	}
	var buf bytes.Buffer
	opts := chart.Options{Width: chart.PlotWidthFor(width), Height: m.opts.PlotHeight, ForceColor: true}
	if err := chart.RenderSweep(&buf, sw, opts); err != nil {
		return fmt.Sprintf("Failed to render %s: %v", kind, err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (m *Model) renderParameters(width int) string {
	params, ok := m.session.Parameters()
	if !ok {
		return "Run a sweep to derive parameters."
	}
	cards := []string{
		metricCard("Input impedance", fmt.Sprintf("%.2f kΩ", params.InputImpedance)),
		metricCard("Output impedance", fmt.Sprintf("%.2f kΩ", params.OutputImpedance)),
		metricCard("Current gain (β)", fmt.Sprintf("%.1f", params.CurrentGain)),
	}
	if width < 60 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) renderDeviceDetail() string {
	p, err := device.Lookup(m.session.Device())
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return headerStyle.Render(fmt.Sprintf("Selected %s: %s in %s, VBE(on) %.2f V", p.Name, p.Type, p.Package, p.VBEOn))
}

func buildDeviceTable(selected string) table.Model {
	columns := []table.Column{
		{Title: "Part", Width: 6},
		{Title: "Type", Width: 4},
		{Title: "Package", Width: 7},
		{Title: "IS (A)", Width: 7},
		{Title: "VA (V)", Width: 6},
		{Title: "β", Width: 4},
		{Title: "VCEO", Width: 4},
		{Title: "VCBO", Width: 4},
		{Title: "VEBO", Width: 4},
		{Title: "IC max (mA)", Width: 11},
	}
	parts := device.All()
	rows := make([]table.Row, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, table.Row{
			p.Name,
			p.Type.String(),
			p.Package,
			strconv.FormatFloat(p.IS, 'g', 3, 64),
			formatNumber(p.VA),
			formatNumber(p.Beta),
			formatNumber(p.VCEO),
			formatNumber(p.VCBO),
			formatNumber(p.VEBO),
			formatNumber(p.ICMax),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	t.SetStyles(styles)
	t.SetCursor(deviceIndex(selected))
	return t
}

func deviceIndex(name string) int {
	for i, n := range device.Names() {
		if n == name {
			return i
		}
	}
	return 0
}

func (m *Model) initForm() {
	m.formInputs = []textinput.Model{
		newFormInput("VCE for input sweep (V): "),
		newFormInput("IB for output sweep (μA): "),
		newFormInput("VCE for transfer sweep (V): "),
	}
}

func newFormInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 16
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) startForm() (tea.Model, tea.Cmd) {
	in := m.session.Inputs()
	m.formInputs[0].SetValue(formatNumber(in.VCEInput))
	m.formInputs[1].SetValue(formatNumber(in.IBOutput))
	m.formInputs[2].SetValue(formatNumber(in.VCETransfer))
	m.formMode = true
	m.formError = ""
	return m, m.setFormIndex(0)
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.formMode = false
		m.formError = ""
		return m, nil
	case tea.KeyEnter:
		gen := m.session.Generation()
		if err := m.applyForm(); err != nil {
			m.formError = err.Error()
			return m, nil
		}
		m.formMode = false
		m.formError = ""
		if m.session.Generation() != gen {
			m.status = "Held values updated; results cleared"
			m.renderTabContents()
		}
		return m, nil
	case tea.KeyTab:
		return m, m.setFormIndex(m.formIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFormIndex(m.formIndex - 1)
	}
	var cmd tea.Cmd
	m.formInputs[m.formIndex], cmd = m.formInputs[m.formIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFormIndex(idx int) tea.Cmd {
	count := len(m.formInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.formIndex = idx
	var cmd tea.Cmd
	for i := range m.formInputs {
		if i == m.formIndex {
			cmd = m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyForm() error {
	values := make([]float64, len(m.formInputs))
	for i, input := range m.formInputs {
		raw := strings.TrimSpace(input.Value())
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", raw)
		}
		values[i] = v
	}
	return m.session.SetInputs(bench.Inputs{
		VCEInput:    values[0],
		IBOutput:    values[1],
		VCETransfer: values[2],
	})
}

func (m *Model) renderForm() string {
	lines := []string{"Held-constant values (enter to apply, esc to cancel)"}
	for _, input := range m.formInputs {
		lines = append(lines, input.View())
	}
	return strings.Join(lines, "\n")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
