package sim

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"counterdrone-sim/internal/config"
	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/scenario"
	"counterdrone-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// detectionMsg carries a radar detection.
type detectionMsg struct{ telemetry.RadarDetection }

// droneMsg and interceptorMsg carry track updates.
type droneMsg struct{ telemetry.DroneStateUpdate }
type interceptorMsg struct{ telemetry.InterceptorUpdate }

// stateMsg carries a simulation status update.
type stateMsg struct{ telemetry.SimulationStatus }

// resultMsg carries an intercept outcome.
type resultMsg struct{ telemetry.InterceptResult }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

type setEngagerMsg struct{ fn func(EngageRequest) bool }

type engageResultMsg struct {
	req EngageRequest
	ok  bool
}

const (
	maxLogLines         = 1000
	maxSectionHeightPct = 0.2
	defaultMapSpan      = 2000.0
	minMapSpan          = 50.0
)

var (
	styleStamp    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleRadar    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleHostile  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleFriendly = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleIntcpt   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	styleWarn     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleStatus   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	styleOn       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleOff      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// TUIWriter renders the event stream using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. The
// scenario list is shown in the header.
func NewTUIWriter(cfg *config.SimulationConfig, scenarios []scenario.Summary) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	m := newTUIModel(cfg, scenarios)
	p := tea.NewProgram(m, tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(ev telemetry.Event) error {
	switch e := ev.(type) {
	case telemetry.RadarDetection:
		w.program.Send(detectionMsg{e})
	case telemetry.DroneStateUpdate:
		w.program.Send(droneMsg{e})
	case telemetry.InterceptorUpdate:
		w.program.Send(interceptorMsg{e})
	case telemetry.SimulationStatus:
		w.program.Send(stateMsg{e})
	case telemetry.InterceptResult:
		w.program.Send(resultMsg{e})
	case telemetry.AudioDetection:
		w.program.Send(logMsg{line: fmt.Sprintf("%s %s drone=%s state=%s conf=%.2f",
			stamp(e.SimTime), styleRadar.Render("AUDIO"), e.DroneID, e.State, e.Confidence)})
	}
	return nil
}

// WriteEvents outputs multiple events.
func (w *TUIWriter) WriteEvents(events []telemetry.Event) error {
	for _, ev := range events {
		_ = w.WriteEvent(ev)
	}
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetEngager registers the callback used by the engage dialog.
func (w *TUIWriter) SetEngager(fn func(EngageRequest) bool) {
	w.program.Send(setEngagerMsg{fn: fn})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

func stamp(simTime float64) string {
	return styleStamp.Render(fmt.Sprintf("[t=%7.1f]", simTime))
}

type tuiModel struct {
	cfg          *config.SimulationConfig
	scenarios    []scenario.Summary
	table        table.Model
	vp           viewport.Model
	detVP        viewport.Model
	logs         []string
	detLogs      []string
	state        telemetry.SimulationStatus
	admin        bool
	wrap         bool
	autoscroll   bool
	header       string
	headerHeight int
	height       int
	summary      bool
	help         bool
	showTracks   bool
	showMap      bool
	mapCenter    telemetry.Position
	mapSpan      float64

	drones       map[string]telemetry.DroneStateUpdate
	interceptors map[string]telemetry.InterceptorUpdate

	engage       func(EngageRequest) bool
	engageInput  textinput.Model
	engageDialog bool

	results         map[string]int
	totalDetections int
	falseAlarms     int
}

func newTUIModel(cfg *config.SimulationConfig, scenarios []scenario.Summary) tuiModel {
	if cfg == nil {
		cfg = config.Default()
	}
	cols := []table.Column{
		{Title: "Config", Width: 18},
		{Title: "Value", Width: 10},
		{Title: "Config", Width: 18},
		{Title: "Value", Width: 10},
	}
	rows := []table.Row{
		{"Tick Interval", cfg.TickInterval.String(), "Speed", fmt.Sprintf("%g", cfg.SpeedMultiplier)},
		{"Radar Range (m)", fmt.Sprintf("%.0f", cfg.Radar.MaxRange), "Scan Rate (Hz)", fmt.Sprintf("%g", cfg.Radar.ScanRate)},
		{"False Alarm Rate", fmt.Sprintf("%.3f", cfg.Radar.FalseAlarmRate), "Miss Prob.", fmt.Sprintf("%.2f", cfg.Radar.MissProbability)},
		{"Guidance", string(cfg.Guidance()), "Seed", fmt.Sprintf("%d", cfg.Seed)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{
		cfg:          cfg,
		scenarios:    scenarios,
		table:        t,
		vp:           viewport.New(0, 0),
		detVP:        viewport.New(0, 0),
		autoscroll:   true,
		showTracks:   true,
		mapCenter:    cfg.Base,
		mapSpan:      defaultMapSpan,
		drones:       make(map[string]telemetry.DroneStateUpdate),
		interceptors: make(map[string]telemetry.InterceptorUpdate),
		results:      make(map[string]int),
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width / 2)
		m.vp.Width = msg.Width
		m.detVP.Width = msg.Width
		m.height = msg.Height
		m.refreshHeader()
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshDetections()
	case tea.KeyMsg:
		return m.handleKey(msg)
	case logMsg:
		m.appendLog(msg.line)
	case detectionMsg:
		m.totalDetections++
		label := styleRadar.Render("RADAR")
		if msg.IsFalseAlarm {
			m.falseAlarms++
			label = styleStamp.Render("CLUTTER")
		}
		line := fmt.Sprintf("%s %s drone=%s range=%.0f brg=%.1f alt=%.0f conf=%.2f",
			stamp(msg.SimTime), label, msg.DroneID, msg.Range, msg.Bearing, msg.Altitude, msg.Confidence)
		if msg.IsFirstDetection {
			line += " " + styleHostile.Render("NEW")
		}
		m.detLogs = append(m.detLogs, line)
		if len(m.detLogs) > maxLogLines {
			m.detLogs = m.detLogs[len(m.detLogs)-maxLogLines:]
		}
		m.updateViewportHeight()
		m.refreshDetections()
		m.refreshViewport()
	case droneMsg:
		prev, seen := m.drones[msg.DroneID]
		m.drones[msg.DroneID] = msg.DroneStateUpdate
		if seen && msg.IsEvading && !prev.IsEvading {
			m.appendLog(fmt.Sprintf("%s %s drone=%s", stamp(msg.SimTime), styleWarn.Render("EVADING"), msg.DroneID))
		}
		m.updateViewportHeight()
	case interceptorMsg:
		prev, seen := m.interceptors[msg.InterceptorID]
		m.interceptors[msg.InterceptorID] = msg.InterceptorUpdate
		if !seen || prev.State != msg.State {
			line := fmt.Sprintf("%s %s id=%s state=%s", stamp(msg.SimTime), styleIntcpt.Render("INTCPT"), msg.InterceptorID, msg.State)
			if msg.TargetID != "" {
				line += " target=" + msg.TargetID
			}
			m.appendLog(line)
		}
		m.updateViewportHeight()
	case resultMsg:
		m.results[msg.Result]++
		style := styleWarn
		if msg.Result == string(interceptor.ResultSuccess) {
			style = styleFriendly
		}
		line := fmt.Sprintf("%s %s interceptor=%s target=%s dist=%.1f rel_speed=%.1f",
			stamp(msg.SimTime), style.Render(msg.Result), msg.InterceptorID, msg.TargetID, msg.Details.Distance, msg.Details.RelativeSpeed)
		if msg.Details.Reason != "" {
			line += " reason=" + msg.Details.Reason
		}
		m.appendLog(line)
	case stateMsg:
		if msg.ScenarioID != m.state.ScenarioID {
			m.drones = make(map[string]telemetry.DroneStateUpdate)
			m.interceptors = make(map[string]telemetry.InterceptorUpdate)
		}
		m.state = msg.SimulationStatus
	case adminMsg:
		m.admin = msg.active
	case setEngagerMsg:
		m.engage = msg.fn
	case engageResultMsg:
		if msg.ok {
			m.appendLog(fmt.Sprintf("%s engage %s accepted", styleFriendly.Render("CMD"), msg.req.DroneID))
		} else {
			m.appendLog(fmt.Sprintf("%s engage %s rejected", styleHostile.Render("CMD"), msg.req.DroneID))
		}
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.engageDialog {
		switch msg.Type {
		case tea.KeyEnter:
			m.engageDialog = false
			m.updateViewportHeight()
			req, err := parseEngageInput(m.engageInput.Value())
			if err != nil {
				m.appendLog(fmt.Sprintf("%s %v", styleHostile.Render("CMD"), err))
				return m, nil
			}
			if m.engage == nil {
				return m, nil
			}
			fn := m.engage
			return m, func() tea.Msg { return engageResultMsg{req: req, ok: fn(req)} }
		case tea.KeyEsc:
			m.engageDialog = false
			m.updateViewportHeight()
		default:
			var cmd tea.Cmd
			m.engageInput, cmd = m.engageInput.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	if m.help {
		switch msg.String() {
		case "?", "h", "esc":
			m.help = false
			m.updateViewportHeight()
		}
		return m, nil
	}
	if m.showMap {
		switch msg.String() {
		case "+", "=":
			m.mapSpan = math.Max(m.mapSpan*0.8, minMapSpan)
			return m, nil
		case "-":
			m.mapSpan *= 1.25
			return m, nil
		case "left":
			m.mapCenter.X -= m.mapSpan * 0.1
			return m, nil
		case "right":
			m.mapCenter.X += m.mapSpan * 0.1
			return m, nil
		case "up":
			m.mapCenter.Y += m.mapSpan * 0.1
			return m, nil
		case "down":
			m.mapCenter.Y -= m.mapSpan * 0.1
			return m, nil
		case "0":
			m.mapCenter = m.cfg.Base
			m.mapSpan = defaultMapSpan
			return m, nil
		}
	}
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "w":
		m.wrap = !m.wrap
		m.refreshViewport()
		m.refreshHeader()
		m.updateViewportHeight()
		return m, nil
	case "s":
		m.autoscroll = !m.autoscroll
		if m.autoscroll {
			m.vp.GotoBottom()
			m.detVP.GotoBottom()
		}
		return m, nil
	case "e":
		m.engageInput = textinput.New()
		m.engageInput.Placeholder = "drone_id[,interceptor_id[,guidance]]"
		if id, ok := m.nearestHostile(); ok {
			m.engageInput.SetValue(id)
			m.engageInput.CursorEnd()
		}
		m.engageInput.Focus()
		m.engageDialog = true
		m.updateViewportHeight()
		return m, nil
	case "n":
		m.showTracks = !m.showTracks
		m.updateViewportHeight()
		return m, nil
	case "m":
		m.showMap = !m.showMap
		m.updateViewportHeight()
		return m, nil
	case "t":
		m.summary = !m.summary
		m.updateViewportHeight()
		return m, nil
	case "h", "?":
		m.help = !m.help
		m.updateViewportHeight()
		return m, nil
	}
	if !m.autoscroll {
		switch msg.String() {
		case "j", "down":
			m.vp.LineDown(1)
			m.detVP.LineDown(1)
		case "k", "up":
			m.vp.LineUp(1)
			m.detVP.LineUp(1)
		case "pgdown", "ctrl+n":
			m.vp.LineDown(10)
			m.detVP.LineDown(10)
		case "pgup", "ctrl+p":
			m.vp.LineUp(10)
			m.detVP.LineUp(10)
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			m.detVP, _ = m.detVP.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *tuiModel) appendLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.refreshViewport()
}

// nearestHostile picks the active hostile drone closest to the base.
func (m tuiModel) nearestHostile() (string, bool) {
	best, bestDist := "", math.Inf(1)
	for id, d := range m.drones {
		if !d.IsHostile || d.IsNeutralized {
			continue
		}
		if dist := d.Position.Distance(m.cfg.Base); dist < bestDist || (dist == bestDist && id < best) {
			best, bestDist = id, dist
		}
	}
	return best, best != ""
}

func parseEngageInput(val string) (EngageRequest, error) {
	parts := strings.Split(val, ",")
	req := EngageRequest{DroneID: strings.TrimSpace(parts[0]), IssuedBy: "tui", Method: "manual"}
	if req.DroneID == "" {
		return req, fmt.Errorf("expected drone_id[,interceptor_id[,guidance]]")
	}
	if len(parts) > 1 {
		req.InterceptorID = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		mode, err := interceptor.ParseGuidanceMode(parts[2])
		if err != nil {
			return req, err
		}
		req.Guidance = mode
	}
	return req, nil
}

func (m *tuiModel) refreshHeader() {
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())
	maxLines := m.maxSectionLines()

	detLines := len(m.detLogs)
	if detLines == 0 {
		detLines = 1
	}
	if detLines > maxLines {
		detLines = maxLines
	}
	m.detVP.Height = detLines

	detHeight := 1 + m.detVP.Height
	trackHeight := 0
	if m.showTracks || m.engageDialog {
		trackHeight = lipgloss.Height(m.renderTracks())
	}
	h := m.height - m.headerHeight - bottomHeight - detHeight - trackHeight - 5
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.detVP.GotoBottom()
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshDetections() {
	content := "none"
	if len(m.detLogs) > 0 {
		content = strings.Join(m.detLogs, "\n")
	}
	m.detVP.SetContent(content)
	if m.autoscroll {
		m.detVP.GotoBottom()
	}
}

func (m tuiModel) maxSectionLines() int {
	h := int(float64(m.height) * maxSectionHeightPct)
	if h < 1 {
		h = 1
	}
	return h
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	bottom := m.renderBottom()
	divider := strings.Repeat("─", m.vp.Width)
	if m.showMap {
		return strings.Join([]string{m.header, divider, m.renderMap(), divider, bottom}, "\n")
	}
	sections := []string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		"Radar:",
		m.detVP.View(),
	}
	if m.showTracks || m.engageDialog {
		sections = append(sections, divider, m.renderTracks())
	}
	sections = append(sections, divider, bottom)
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	width := m.vp.Width/2 - 1
	list := renderScenarioTree(m.scenarios, m.wrap, width)
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), sep, list)
}

func renderScenarioTree(scenarios []scenario.Summary, wrap bool, width int) string {
	var b strings.Builder
	b.WriteString("Scenarios\n")
	for i, s := range scenarios {
		prefix := "├─"
		if i == len(scenarios)-1 {
			prefix = "└─"
		}
		line := fmt.Sprintf("%s %s %s - %d drones, %d hostile, %d interceptors",
			prefix, styleStatus.Render(s.ID), s.Name, s.DroneCount, s.HostileCount, s.InterceptorCount)
		if wrap && width > 0 {
			line = wordwrap.String(line, width)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m tuiModel) renderTracks() string {
	if m.engageDialog {
		return fmt.Sprintf("Engage (drone_id[,interceptor_id[,guidance]]) - Enter to launch, Esc to cancel: %s", m.engageInput.View())
	}
	if len(m.interceptors) == 0 && len(m.drones) == 0 {
		return "Tracks: none"
	}
	var b strings.Builder
	b.WriteString("Tracks:\n")
	for _, id := range sortedKeys(m.interceptors) {
		ic := m.interceptors[id]
		line := fmt.Sprintf("%s %-11s alt=%.0f", styleIntcpt.Render(id), ic.State, ic.Position.Altitude)
		if ic.TargetID != "" {
			line += " → " + ic.TargetID
		}
		if ic.DistanceToTarget != nil {
			line += fmt.Sprintf(" %.0fm", *ic.DistanceToTarget)
		}
		b.WriteString(line + "\n")
	}
	lines := 0
	limit := m.maxSectionLines()
	for _, id := range sortedKeys(m.drones) {
		d := m.drones[id]
		if !d.IsHostile || lines >= limit {
			continue
		}
		lines++
		status := styleHostile.Render("active")
		switch {
		case d.IsNeutralized:
			status = styleFriendly.Render("neutralized")
		case d.IsEvading:
			status = styleWarn.Render("evading")
		}
		fmt.Fprintf(&b, "%s %-12s range=%.0f alt=%.0f spd=%.1f %s\n", id, d.Behavior,
			d.Position.HorizontalDistance(m.cfg.Base), d.Position.Altitude, d.Velocity.Speed(), status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys[V any](in map[string]V) []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indicator(on bool) string {
	if on {
		return styleOn.Render("●")
	}
	return styleOff.Render("●")
}

func (m tuiModel) renderSummary() string {
	var parts []string
	for _, r := range sortedKeys(m.results) {
		parts = append(parts, fmt.Sprintf("%s=%d", r, m.results[r]))
	}
	s := fmt.Sprintf("%s detections=%d clutter=%d", styleIntcpt.Render("SUMMARY"), m.totalDetections, m.falseAlarms)
	if len(parts) > 0 {
		s += " results[" + strings.Join(parts, " ") + "]"
	}
	return s
}

func (m tuiModel) renderBottom() string {
	st := m.state
	state := fmt.Sprintf("%s %s scenario=%s phase=%s t=%.1f x%g hostiles=%d neutralized=%d interceptors=%d/%d",
		styleStatus.Render("STATUS"), runLabel(st.IsRunning), st.ScenarioID, st.Phase, st.SimTime, st.SpeedMultiplier,
		st.ActiveHostiles, st.NeutralizedCount, st.AvailableInterceptors, st.InterceptorCount)
	line := fmt.Sprintf("%s | Admin UI %s | Wrap %s | Scroll %s | Summary %s | Help %s | Tracks %s",
		state, indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.summary), indicator(m.help), indicator(m.showTracks))
	if m.summary {
		return m.renderSummary() + "\n" + line
	}
	return line
}

func runLabel(running bool) string {
	if running {
		return styleOn.Render("RUNNING")
	}
	return styleOff.Render("PAUSED")
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle wrap",
		" s  toggle auto-scroll",
		" e  engage a drone (drone_id[,interceptor_id[,guidance]])",
		" t  toggle summary footer",
		" n  toggle tracks section",
		" m  toggle map view",
		" +  zoom in map",
		" -  zoom out map",
		" ←→↑↓ pan map",
		" 0  recenter map on base",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}

// renderMap draws a top-down plot of the local frame, north up.
func (m tuiModel) renderMap() string {
	width := m.vp.Width
	if width < 10 {
		width = 10
	}
	bottomHeight := lipgloss.Height(m.renderBottom())
	mapHeight := m.height - m.headerHeight - bottomHeight - 4
	if mapHeight < 1 {
		mapHeight = 1
	}
	minX, maxX := m.mapCenter.X-m.mapSpan/2, m.mapCenter.X+m.mapSpan/2
	minY, maxY := m.mapCenter.Y-m.mapSpan/2, m.mapCenter.Y+m.mapSpan/2
	grid := make([][]string, mapHeight)
	for i := range grid {
		row := make([]string, width)
		for j := range row {
			row[j] = "."
		}
		grid[i] = row
	}
	plot := func(p telemetry.Position, s string) {
		x := int((p.X - minX) / (maxX - minX) * float64(width-1))
		y := int((maxY - p.Y) / (maxY - minY) * float64(mapHeight-1))
		if y >= 0 && y < mapHeight && x >= 0 && x < width {
			grid[y][x] = s
		}
	}
	radarRange := m.cfg.Radar.MaxRange
	for deg := 0; deg < 360; deg += 5 {
		rad := float64(deg) * math.Pi / 180
		plot(telemetry.Position{X: m.cfg.Base.X + math.Sin(rad)*radarRange, Y: m.cfg.Base.Y + math.Cos(rad)*radarRange}, styleStamp.Render("o"))
	}
	plot(m.cfg.Base, styleFriendly.Render("B"))
	for _, id := range sortedKeys(m.drones) {
		d := m.drones[id]
		switch {
		case d.IsNeutralized:
			plot(d.Position, styleWarn.Render("x"))
		case d.IsHostile:
			plot(d.Position, styleHostile.Render("X"))
		default:
			plot(d.Position, styleFriendly.Render("n"))
		}
	}
	for _, id := range sortedKeys(m.interceptors) {
		plot(m.interceptors[id].Position, styleIntcpt.Render("^"))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "x %.0f..%.0f y %.0f..%.0f N↑\n", minX, maxX, minY, maxY)
	for _, row := range grid {
		b.WriteString(strings.Join(row, ""))
		b.WriteByte('\n')
	}
	barChars := int(math.Min(10, float64(width)/3))
	fmt.Fprintf(&b, "Scale: |%s| %.0fm\n", strings.Repeat("-", barChars), m.mapSpan/float64(width)*float64(barChars))
	b.WriteString("B=base X=hostile x=neutralized n=non-hostile ^=interceptor o=radar range")
	return b.String()
}
