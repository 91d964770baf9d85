package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/robfig/cron/v3"

	"github.com/dwizi/review-vir/internal/authstore"
	"github.com/dwizi/review-vir/internal/forge"
	"github.com/dwizi/review-vir/internal/webclient"
)

type tickFunc func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

// pullRequestsPage is created once and kept for the whole session, so its
// cursor, data and in-flight loads survive tab switches.
type pullRequestsPage struct {
	loader webclient.PullRequestLoader
	tokens authstore.ServiceAuthTokens
	synced bool

	inbox      webclient.Inbox
	loaded     bool
	loading    bool
	errorText  string
	cursor     int
	seq        uint64
	lastLoaded time.Time

	schedule    cron.Schedule
	nextRefresh time.Time
	tick        tickFunc
}

type pullRequestRow struct {
	section string
	item    forge.PullRequest
}

func newPullRequestsPage(schedule cron.Schedule, tick tickFunc) *pullRequestsPage {
	if tick == nil {
		tick = tea.Tick
	}
	return &pullRequestsPage{schedule: schedule, tick: tick}
}

// parseRefreshSchedule accepts cron specs and descriptors like "@every 5m".
func parseRefreshSchedule(spec string) (cron.Schedule, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return cron.Every(5 * time.Minute), nil
	}
	schedule, err := cron.ParseStandard(trimmed)
	if err != nil {
		return cron.Every(5 * time.Minute), fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// sync hands the page the current client and token mapping. A reload starts
// only when the mapping actually changed.
func (p *pullRequestsPage) sync(client *webclient.Interface, tokens authstore.ServiceAuthTokens) tea.Cmd {
	var loader webclient.PullRequestLoader
	if client != nil {
		loader = client.PullRequests()
	}
	if p.synced && p.tokens.Equal(tokens) && p.loader == loader {
		return nil
	}
	p.synced = true
	p.loader = loader
	p.tokens = tokens.Clone()
	return p.reload()
}

func (p *pullRequestsPage) reload() tea.Cmd {
	p.seq++
	if p.loader == nil || len(p.tokens) == 0 {
		p.inbox = webclient.Inbox{}
		p.loading = false
		p.loaded = false
		p.errorText = ""
		p.cursor = 0
		return nil
	}
	p.loading = true
	return loadPullRequestsCmd(p.loader, p.tokens.Clone(), p.seq)
}

func (p *pullRequestsPage) applyLoaded(msg pullRequestsLoadedMsg) bool {
	if msg.seq != p.seq {
		return false
	}
	p.loading = false
	if msg.err != nil {
		p.errorText = msg.err.Error()
		return true
	}
	p.errorText = ""
	p.inbox = msg.inbox
	p.loaded = true
	p.lastLoaded = msg.at
	p.cursor = clampInt(p.cursor, 0, maxInt(0, len(p.rows())-1))
	return true
}

// scheduleNext arms the next refresh tick.
func (p *pullRequestsPage) scheduleNext(now time.Time) tea.Cmd {
	if p.schedule == nil {
		return nil
	}
	p.nextRefresh = p.schedule.Next(now)
	delay := p.nextRefresh.Sub(now)
	if delay < time.Second {
		delay = time.Second
	}
	return p.tick(delay, func(at time.Time) tea.Msg {
		return refreshTickMsg{at: at}
	})
}

func (p *pullRequestsPage) handleKey(msg tea.KeyPressMsg, keys keyMap) tea.Cmd {
	rows := p.rows()
	switch {
	case key.Matches(msg, keys.Down):
		if p.cursor < len(rows)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Refresh):
		if p.loading {
			return nil
		}
		return p.reload()
	}
	return nil
}

func (p *pullRequestsPage) rows() []pullRequestRow {
	rows := make([]pullRequestRow, 0, p.inbox.Len())
	for _, item := range p.inbox.ReviewRequested {
		rows = append(rows, pullRequestRow{section: "review requested", item: item})
	}
	for _, item := range p.inbox.Authored {
		rows = append(rows, pullRequestRow{section: "authored", item: item})
	}
	return rows
}

func (p *pullRequestsPage) selected() (forge.PullRequest, bool) {
	rows := p.rows()
	if p.cursor < 0 || p.cursor >= len(rows) {
		return forge.PullRequest{}, false
	}
	return rows[p.cursor].item, true
}

func (p *pullRequestsPage) view(t theme, width, height int, spin string) string {
	lines := []string{t.panelTitle.Render("Pull Requests")}
	status := ""
	switch {
	case p.loading:
		status = t.panelWarn.Render(spin + " loading")
	case !p.lastLoaded.IsZero():
		status = t.panelSubtle.Render("updated " + p.lastLoaded.Local().Format("15:04:05"))
	}
	if !p.nextRefresh.IsZero() {
		status = strings.TrimSpace(status + t.panelSubtle.Render(" | next refresh "+p.nextRefresh.Local().Format("15:04")))
	}
	lines = append(lines, status, "")

	if len(p.tokens) == 0 {
		lines = append(lines, t.panelSubtle.Render("No service tokens yet. Add one on the Auth tab."))
		return strings.Join(lines, "\n")
	}
	if p.errorText != "" {
		lines = append(lines, t.panelError.Render("error: "+p.errorText), "")
	}
	rows := p.rows()
	if len(rows) == 0 {
		if p.loaded {
			lines = append(lines, t.panelSubtle.Render("Nothing waiting on you."))
		}
		return strings.Join(lines, "\n")
	}

	listHeight := maxInt(1, height-len(lines)-3)
	start := 0
	if p.cursor >= listHeight {
		start = p.cursor - listHeight + 1
	}
	end := minInt(len(rows), start+listHeight)
	section := ""
	for index := start; index < end; index++ {
		row := rows[index]
		if row.section != section {
			section = row.section
			lines = append(lines, t.tableHeader.Render(fmt.Sprintf("%s (%d)", section, p.sectionCount(section))))
		}
		lines = append(lines, p.renderRow(t, row.item, index == p.cursor, width))
	}

	if item, ok := p.selected(); ok {
		lines = append(lines, "", t.panelAccent.Render(trimToWidth(item.URL, width)))
	}
	return strings.Join(lines, "\n")
}

func (p *pullRequestsPage) sectionCount(section string) int {
	if section == "authored" {
		return len(p.inbox.Authored)
	}
	return len(p.inbox.ReviewRequested)
}

func (p *pullRequestsPage) renderRow(t theme, item forge.PullRequest, selected bool, width int) string {
	cursor := "  "
	style := t.tableCell
	if selected {
		cursor = "> "
		style = t.tableSelected
	}
	draft := ""
	if item.Draft {
		draft = " [draft]"
	}
	line := fmt.Sprintf("%s#%d %s%s  @%s  %s", item.Repository, item.Number, item.Title, draft, fallbackText(item.Author, "unknown"), relativeAge(item.UpdatedAt, time.Now()))
	return cursor + style.Render(trimToWidth(line, width-2))
}

func relativeAge(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	age := now.Sub(at)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
