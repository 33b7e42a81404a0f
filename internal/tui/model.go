package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"growthquest/internal/engine"
	"growthquest/internal/ui"
)

const boardEventsLimit = 5

type boardModel struct {
	ctx    context.Context
	svc    *engine.Service
	userID int64

	width  int
	height int

	stats    *engine.StatVector
	progress *engine.Progress
	quests   []engine.Quest
	events   []engine.StatChange

	selected int

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	stats    *engine.StatVector
	progress *engine.Progress
	quests   []engine.Quest
	events   []engine.StatChange
	err      error
}

type completedMsg struct {
	res *engine.CompleteResult
	err error
}

type deletedMsg struct {
	id  int64
	err error
}

type leveledMsg struct {
	stats engine.StatVector
	err   error
}

func newBoardModel(ctx context.Context, svc *engine.Service, userID int64) boardModel {
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		userID:  userID,
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		quests, err := m.svc.ListQuests(m.ctx, m.userID)
		if err != nil {
			return loadedMsg{err: err}
		}
		msg := loadedMsg{quests: quests}
		stats, err := m.svc.GetStats(m.ctx, m.userID)
		switch {
		case engine.IsKind(err, engine.KindNotFound):
			// No analysis yet; the board still shows quests.
			return msg
		case err != nil:
			return loadedMsg{err: err}
		}
		progress := m.svc.Policy().Progress(stats)
		events, err := m.svc.GetRecentStatEvents(m.ctx, m.userID, "", boardEventsLimit)
		if err != nil {
			return loadedMsg{err: err}
		}
		msg.stats = &stats
		msg.progress = &progress
		msg.events = events
		return msg
	}
}

func (m boardModel) completeCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.CompleteQuest(m.ctx, m.userID, id)
		return completedMsg{res: res, err: err}
	}
}

func (m boardModel) deleteCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{id: id, err: m.svc.DeleteQuest(m.ctx, m.userID, id)}
	}
}

func (m boardModel) levelUpCmd() tea.Cmd {
	return func() tea.Msg {
		v, err := m.svc.RequestLevelUp(m.ctx, m.userID)
		return leveledMsg{stats: v, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.stats = msg.stats
		m.progress = msg.progress
		m.quests = msg.quests
		m.events = msg.events
		m.selected = clampIndex(m.selected, len(m.openQuests()))
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, nil
	case completedMsg:
		if msg.err != nil {
			m.lastLog = "Complete failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = completeLog(msg.res)
		return m, m.loadCmd()
	case deletedMsg:
		if msg.err != nil {
			m.lastLog = "Delete failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = fmt.Sprintf("Deleted quest %d.", msg.id)
		return m, m.loadCmd()
	case leveledMsg:
		if msg.err != nil {
			var lerr engine.LevelUpError
			if errors.As(msg.err, &lerr) {
				m.lastLog = "Not yet: " + lerr.Error()
				return m, nil
			}
			m.lastLog = "Level up failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = fmt.Sprintf("%s Reached level %d!", ui.IconUp, msg.stats.Level)
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.openQuests())-1 {
				m.selected++
			}
			return m, nil
		case "enter", "c", " ":
			q, ok := m.selectedQuest()
			if !ok {
				m.lastLog = "No open quest selected."
				return m, nil
			}
			if m.stats == nil {
				m.lastLog = "Complete an analysis before finishing quests."
				return m, nil
			}
			m.lastLog = fmt.Sprintf("Completing %d…", q.ID)
			return m, m.completeCmd(q.ID)
		case "x":
			q, ok := m.selectedQuest()
			if !ok {
				m.lastLog = "No open quest selected."
				return m, nil
			}
			m.lastLog = fmt.Sprintf("Deleting %d…", q.ID)
			return m, m.deleteCmd(q.ID)
		case "L":
			if m.stats == nil {
				m.lastLog = "No stats yet."
				return m, nil
			}
			return m, m.levelUpCmd()
		}
	}
	return m, nil
}

func (m boardModel) openQuests() []engine.Quest {
	var out []engine.Quest
	for _, q := range m.quests {
		if q.IsOpen() {
			out = append(out, q)
		}
	}
	return out
}

func (m boardModel) selectedQuest() (engine.Quest, bool) {
	open := m.openQuests()
	if m.selected < 0 || m.selected >= len(open) {
		return engine.Quest{}, false
	}
	return open[m.selected], true
}

func (m boardModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}

	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMain()
	footer := m.renderFooter()

	leftW := 34
	if m.width > 0 {
		leftW = max(22, min(leftW, m.width/2))
	}

	linesLeft := strings.Split(sidebar, "\n")
	linesRight := strings.Split(main, "\n")
	rows := max(len(linesLeft), len(linesRight))

	var body strings.Builder
	for i := 0; i < rows; i++ {
		l := ""
		r := ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return header + "\n" + body.String() + footer
}

func (m boardModel) renderHeader() string {
	if m.loading && m.stats == nil {
		return ui.Title.Render("GrowthQuest") + " | loading…"
	}
	if m.stats == nil || m.progress == nil {
		return ui.Title.Render("GrowthQuest") + " | no stats yet: run `gq analyze` first"
	}
	p := m.progress
	line := ui.Title.Render("GrowthQuest") + fmt.Sprintf(" | Level %d | Total %d", m.stats.Level, m.stats.TotalPoints)
	switch {
	case p.AtMax:
		line += " | max level"
	case p.Requirement != nil:
		line += fmt.Sprintf(" %s %d/%d", ui.Bar(m.stats.TotalPoints, p.Requirement.TotalPointsRequired, 20),
			m.stats.TotalPoints, p.Requirement.TotalPointsRequired)
	}
	if p.CanLevelUp {
		line += " " + ui.BadgeLevelUp + " (press L)"
	}
	return line
}

func (m boardModel) renderSidebar() string {
	lines := []string{ui.PanelTitle.Render("Stats")}
	if m.stats == nil {
		lines = append(lines, "(none)")
	} else {
		for _, name := range engine.StatNames {
			lines = append(lines, renderStat(name, m.stats.Get(name)))
		}
	}
	lines = append(lines, "")
	lines = append(lines, ui.PanelTitle.Render("Keys"))
	lines = append(lines, "- ↑/↓ or j/k: move")
	lines = append(lines, "- enter/c: complete")
	lines = append(lines, "- x: delete")
	lines = append(lines, "- L: level up")
	lines = append(lines, "- r: refresh")
	lines = append(lines, "- q: quit")
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading {
		return "Loading…"
	}
	open := m.openQuests()
	out := []string{ui.PanelTitle.Render(fmt.Sprintf("Quests (%d/%d open)", len(open), engine.MaxOpenQuests))}
	if len(open) == 0 {
		out = append(out, "(no open quests)")
	}
	for i, q := range open {
		line := fmt.Sprintf("%d %s [%s] %s", q.ID, q.Title, q.Difficulty, statList(q.TargetStats))
		if i == m.selected {
			out = append(out, "> "+ui.SelectedRow.Render(line))
			continue
		}
		out = append(out, "  "+line)
	}
	out = append(out, "")
	out = append(out, ui.PanelTitle.Render("Recent changes"))
	if len(m.events) == 0 {
		out = append(out, "(none)")
	}
	for _, e := range m.events {
		out = append(out, fmt.Sprintf("- %s %+d %s", e.Stat, e.Delta, e.Description))
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	return "\n" + m.lastLog
}

func completeLog(res *engine.CompleteResult) string {
	var parts []string
	for _, inc := range res.Increases {
		parts = append(parts, fmt.Sprintf("%s +%d", inc.Stat, inc.Realized))
	}
	line := fmt.Sprintf("Completed %d: %s", res.Quest.ID, strings.Join(parts, ", "))
	if res.CanLevelUp {
		line += " | level up available"
	}
	return line
}

func renderStat(name engine.StatName, value int) string {
	return fmt.Sprintf("%-12s %2d %s", name, value, ui.Bar(value, engine.StatCeiling, 12))
}

func statList(stats []engine.StatName) string {
	s := make([]string, len(stats))
	for i, st := range stats {
		s[i] = string(st)
	}
	return strings.Join(s, ",")
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	return min(i, n-1)
}

// padRight pads s to width visible cells. ANSI styling is not counted.
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if width <= 0 || w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
