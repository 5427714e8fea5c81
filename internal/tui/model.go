// Package tui is the terminal front-end: the same four pages as the web
// console, driven by a single stateful router.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/trafficmon/trafficmon/internal/actions"
	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/router"
	"github.com/trafficmon/trafficmon/internal/view"
	"github.com/trafficmon/trafficmon/sdk"
)

// API is everything the terminal console reads from and sends to the backend.
type API interface {
	view.API
	actions.Backend
}

// Options configures the terminal console.
type Options struct {
	API    API
	Lang   i18n.Lang
	Actor  string
	Audit  actions.Recorder
	Logger *slog.Logger
}

// loadedMsg carries a page load. seq is the navigation it belongs to; loads
// from older navigations are dropped.
type loadedMsg struct {
	seq    uint64
	screen view.Screen
}

type commandMsg struct {
	flash    string
	err      error
	fallback i18n.Key
}

type confirmation struct {
	prompt string
	run    tea.Cmd
}

// Model is the bubbletea model of the terminal console.
type Model struct {
	ctx      context.Context
	router   *router.Router[view.Screen]
	commands *actions.Commands
	lang     i18n.Lang
	logger   *slog.Logger

	table   table.Model
	spinner spinner.Model

	seq       uint64
	loading   bool
	screen    view.Screen
	flash     string
	errMsg    string
	confirm   *confirmation
	loggedOut bool
}

// New builds the model with the main page loading.
func New(ctx context.Context, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if !i18n.Supported(opts.Lang) {
		opts.Lang = i18n.Default
	}
	loaders := view.Loaders{API: opts.API, Lang: opts.Lang, Logger: opts.Logger}

	t := table.New(table.WithFocused(true), table.WithHeight(12))
	st := table.DefaultStyles()
	st.Header = st.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	st.Selected = st.Selected.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("31"))
	t.SetStyles(st)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		router:   router.New(loaders.Map()),
		commands: &actions.Commands{API: opts.API, Audit: opts.Audit, Actor: opts.Actor},
		lang:     opts.Lang,
		logger:   opts.Logger,
		table:    t,
		spinner:  sp,
		seq:      1,
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(m.seq, m.router.Active()))
}

func (m Model) load(seq uint64, p router.Page) tea.Cmd {
	rt, ctx := m.router, m.ctx
	return func() tea.Msg {
		sc, _ := rt.Load(ctx, p)
		return loadedMsg{seq: seq, screen: sc}
	}
}

// navigate activates id and starts loading it. Unknown ids change nothing.
func (m Model) navigate(id string) (Model, tea.Cmd) {
	p, ok := m.router.Activate(id)
	if !ok {
		return m, nil
	}
	m.flash, m.errMsg = "", ""
	return m.reload(p)
}

func (m Model) reload(p router.Page) (Model, tea.Cmd) {
	m.seq++
	m.loading = true
	return m, m.load(m.seq, p)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(5, msg.Height-14))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		m.screen = msg.screen
		if msg.screen.Unauthorized {
			m.loggedOut = true
			return m, nil
		}
		m.fillTable()
		return m, nil

	case commandMsg:
		if errors.Is(msg.err, sdk.ErrUnauthorized) {
			m.loggedOut = true
			return m, nil
		}
		if msg.err != nil {
			m.logger.Debug("command failed", "error", msg.err)
			m.flash, m.errMsg = "", view.ErrorMessage(m.lang, msg.err, msg.fallback)
		} else {
			m.flash, m.errMsg = msg.flash, ""
		}
		return m.reload(m.router.Active())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.confirm != nil {
		c := m.confirm
		m.confirm = nil
		if key == "y" || key == "Y" {
			return m, c.run
		}
		return m, nil
	}
	if m.loggedOut {
		if key == "q" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "1", "2", "3", "4":
		return m.navigate(string(router.Pages[key[0]-'1']))
	case "tab":
		return m.navigate(string(nextPage(m.router.Active())))
	case "r":
		m.flash, m.errMsg = "", ""
		return m.reload(m.router.Active())
	case "c":
		if row, ok := m.selectedIncident(); ok && row.Closable {
			m.confirm = &confirmation{
				prompt: i18n.Tf(m.lang, i18n.ConfirmClose, row.ID),
				run:    m.closeIncident(row.ID),
			}
		}
		return m, nil
	case "b":
		if row, ok := m.selectedFlow(); ok {
			m.confirm = &confirmation{
				prompt: i18n.Tf(m.lang, i18n.ConfirmBlock, row.SrcIP),
				run:    m.blockFlow(row.SrcIP),
			}
		}
		return m, nil
	case "s":
		if m.router.Active() == router.Monitoring {
			m.confirm = &confirmation{
				prompt: i18n.T(m.lang, i18n.ConfirmCapture),
				run:    m.startCapture(),
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func nextPage(p router.Page) router.Page {
	for i, page := range router.Pages {
		if page == p {
			return router.Pages[(i+1)%len(router.Pages)]
		}
	}
	return router.Main
}

func (m Model) selectedIncident() (view.IncidentRow, bool) {
	t := m.screen.Incidents
	if m.loading || t == nil || t.Empty() {
		return view.IncidentRow{}, false
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(t.Rows) {
		return view.IncidentRow{}, false
	}
	return t.Rows[i], true
}

func (m Model) selectedFlow() (view.TrafficRow, bool) {
	t := m.screen.Monitoring
	if m.loading || t == nil || t.Empty() {
		return view.TrafficRow{}, false
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(t.Rows) {
		return view.TrafficRow{}, false
	}
	return t.Rows[i], true
}

func (m Model) closeIncident(id int64) tea.Cmd {
	cmds, ctx, lang := m.commands, m.ctx, m.lang
	return func() tea.Msg {
		err := cmds.Close(ctx, id)
		return commandMsg{flash: i18n.T(lang, i18n.MsgClosed), err: err, fallback: i18n.ErrCloseFailed}
	}
}

func (m Model) blockFlow(ip string) tea.Cmd {
	cmds, ctx := m.commands, m.ctx
	return func() tea.Msg {
		return commandMsg{err: cmds.Block(ctx, ip), fallback: i18n.MsgNotSupported}
	}
}

func (m Model) startCapture() tea.Cmd {
	cmds, ctx, lang := m.commands, m.ctx, m.lang
	return func() tea.Msg {
		res, err := cmds.Start(ctx)
		if err != nil {
			return commandMsg{err: err, fallback: i18n.ErrCaptureFailed}
		}
		return commandMsg{flash: i18n.Tf(lang, i18n.MsgCaptureDone, res.Captured, res.Processed, res.Incidents)}
	}
}

// fillTable swaps columns and rows for the loaded screen. Rows are cleared
// first so the table never renders rows against a narrower column set.
func (m *Model) fillTable() {
	cols, rows := tableFor(m.screen)
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func tableFor(sc view.Screen) ([]table.Column, []table.Row) {
	switch {
	case sc.Main != nil:
		return trafficTable(sc.Main.Traffic)
	case sc.Monitoring != nil:
		return trafficTable(*sc.Monitoring)
	case sc.Incidents != nil:
		t := sc.Incidents
		cols := []table.Column{
			{Title: "ID", Width: 6}, {Title: "Type", Width: 16}, {Title: "Severity", Width: 10},
			{Title: "Src IP", Width: 15}, {Title: "Dst IP", Width: 15}, {Title: "Status", Width: 13},
			{Title: "Time", Width: 20},
		}
		if t.Empty() {
			return cols, messageRow(t.Message, len(cols))
		}
		rows := make([]table.Row, 0, len(t.Rows))
		for _, r := range t.Rows {
			rows = append(rows, table.Row{fmt.Sprint(r.ID), r.Type, r.Severity.Label, r.SrcIP, r.DstIP, r.Status.Label, r.Time})
		}
		return cols, rows
	case sc.Rules != nil:
		t := sc.Rules
		cols := []table.Column{
			{Title: "ID", Width: 5}, {Title: "Name", Width: 16}, {Title: "Src IP", Width: 15},
			{Title: "Dst IP", Width: 15}, {Title: "Port", Width: 5}, {Title: "Action", Width: 8},
			{Title: "Expiration", Width: 20}, {Title: "Type", Width: 8},
		}
		if t.Empty() {
			return cols, messageRow(t.Message, len(cols))
		}
		rows := make([]table.Row, 0, len(t.Rows))
		for _, r := range t.Rows {
			rows = append(rows, table.Row{fmt.Sprint(r.ID), r.Name, r.SrcIP, r.DstIP, r.Port, r.Action.Label, r.Expiration, r.Type})
		}
		return cols, rows
	}
	return nil, nil
}

func trafficTable(t view.Table[view.TrafficRow]) ([]table.Column, []table.Row) {
	cols := []table.Column{{Title: "Src IP", Width: 18}, {Title: "Dst IP", Width: 18}, {Title: "MB", Width: 10}}
	if t.Empty() {
		return cols, messageRow(t.Message, len(cols))
	}
	rows := make([]table.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, table.Row{r.SrcIP, r.DstIP, r.MB})
	}
	return cols, rows
}

// messageRow is the single row shown instead of data.
func messageRow(msg string, n int) []table.Row {
	row := make(table.Row, n)
	row[0] = msg
	return []table.Row{row}
}

var navKeys = map[router.Page]i18n.Key{
	router.Main:       i18n.NavMain,
	router.Incidents:  i18n.NavIncidents,
	router.Rules:      i18n.NavRules,
	router.Monitoring: i18n.NavMonitoring,
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("trafficmon"))
	b.WriteString("  ")
	for i, item := range m.router.Nav() {
		label := fmt.Sprintf("%d %s", i+1, i18n.T(m.lang, navKeys[item.Page]))
		if item.Active {
			b.WriteString(activeNav.Render(label))
		} else {
			b.WriteString(navStyle.Render(label))
		}
	}
	b.WriteString("\n\n")

	if m.loggedOut {
		b.WriteString(errStyle.Render(i18n.T(m.lang, i18n.MsgLoginNeeded)))
		b.WriteString("\n")
		return b.String()
	}
	if m.flash != "" {
		b.WriteString(flashStyle.Render(m.flash) + "\n")
	}
	if m.errMsg != "" {
		b.WriteString(errStyle.Render(m.errMsg) + "\n")
	}

	if m.loading {
		b.WriteString(m.spinner.View() + " " + i18n.T(m.lang, i18n.MsgLoading) + "\n")
	} else {
		if main := m.screen.Main; main != nil {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
				card(i18n.T(m.lang, i18n.CardIncidents), main.Cards.ActiveIncidents),
				card(i18n.T(m.lang, i18n.CardCritical), main.Cards.CriticalEvents),
				card(i18n.T(m.lang, i18n.CardNetworkLoad), main.Cards.NetworkLoad),
			))
			b.WriteString("\n")
		}
		b.WriteString(m.table.View())
		b.WriteString("\n")
		if d := m.detail(); d != "" {
			b.WriteString(d + "\n")
		}
	}

	b.WriteString("\n")
	if m.confirm != nil {
		b.WriteString(warnStyle.Render(i18n.Tf(m.lang, i18n.HintConfirm, m.confirm.prompt)))
	} else {
		b.WriteString(dimStyle.Render(i18n.T(m.lang, i18n.HintKeys)))
	}
	b.WriteString("\n")
	return b.String()
}

func card(label, value string) string {
	return cardStyle.Render(dimStyle.Render(label) + "\n" + titleStyle.Render(value))
}

// detail describes the selected row with colored badges.
func (m Model) detail() string {
	if row, ok := m.selectedIncident(); ok {
		s := fmt.Sprintf("#%d %s  %s %s", row.ID, row.Type, badge(row.Severity), badge(row.Status))
		if row.Description != "" {
			s += "  " + dimStyle.Render(row.Description)
		}
		return s
	}
	if t := m.screen.Rules; t != nil && !t.Empty() {
		if i := m.table.Cursor(); i >= 0 && i < len(t.Rows) {
			r := t.Rows[i]
			return fmt.Sprintf("%s  %s", r.Name, badge(r.Action))
		}
	}
	return ""
}
