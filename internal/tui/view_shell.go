package tui

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/dwizi/review-vir/internal/routing"
	"github.com/dwizi/review-vir/internal/shell"
)

func (m model) renderView() string {
	if m.quitting {
		return "review-vir closed\n"
	}

	t := newTheme()
	layout := computeLayout(m.width, m.height)

	switch m.frame.Kind {
	case shell.FrameLoading:
		return t.appBG.Width(layout.Width).Height(layout.Height).Render(
			t.panelBox.Render(m.spinner.View() + " " + t.panelSubtle.Render("loading...")),
		)
	case shell.FrameError:
		body := strings.Join([]string{
			t.panelError.Render(trimToWidth("error: "+m.frame.ErrorMessage, layout.Width-2)),
			"",
			t.panelSubtle.Render("ctrl+c to quit"),
		}, "\n")
		return t.appBG.Width(layout.Width).Height(layout.Height).Render(t.panelBox.Render(body))
	}

	header := m.renderHeader(t, layout)
	tabs := m.renderTabs(t, layout)
	body := m.renderBody(t, layout)
	footer := m.renderFooter(t, layout)
	ui := lipgloss.JoinVertical(lipgloss.Left, header, tabs, body, footer)
	return t.appBG.Width(layout.Width).Height(layout.Height).Render(ui)
}

func (m model) renderHeader(t theme, layout uiLayout) string {
	statusChip := t.chipSuccess.Render("READY")
	switch {
	case m.errorText != "":
		statusChip = t.chipError.Render("ERROR")
	case m.busy():
		statusChip = t.chipWarn.Render(m.spinner.View() + " BUSY")
	}

	style := sizedStyle(t.headerBox, layout.Width, layout.HeaderHeight)
	contentWidth := innerWidth(t.headerBox, layout.Width)

	line1 := fillLine(t.brand.Render("review-vir"), statusChip, contentWidth)
	if layout.Compact {
		return style.Render(line1)
	}
	session := m.sessionID
	if len(session) > 8 {
		session = session[:8]
	}
	line2 := fillLine(
		t.headerSub.Render(trimToWidth("env: "+fallbackText(m.cfg.Environment, "unset")+" | route: "+m.frame.Route.String(), maxInt(20, contentWidth/2))),
		t.headerSub.Render(trimToWidth("services: "+servicesLabel(m.frame)+" | session "+fallbackText(session, "n/a"), maxInt(20, contentWidth/2))),
		contentWidth,
	)
	return style.Render(strings.Join([]string{line1, line2}, "\n"))
}

func (m model) renderTabs(t theme, layout uiLayout) string {
	if !m.frame.ShowTabs {
		return ""
	}
	items := make([]string, 0, len(routing.MainPaths()))
	for index, path := range routing.MainPaths() {
		label := string(rune('1'+index)) + ":" + path.Label()
		if path == m.frame.Route.Head() {
			items = append(items, t.tabActive.Render(label))
			continue
		}
		items = append(items, t.tabInactive.Render(label))
	}
	return sizedStyle(t.tabsBox, layout.Width, layout.TabsHeight).Render(strings.Join(items, " "))
}

// renderBody draws the mounted pages. A hidden pull requests page keeps its
// state but is not drawn.
func (m model) renderBody(t theme, layout uiLayout) string {
	width := innerWidth(t.panelBox, layout.Width)
	sections := make([]string, 0, 2)
	if m.frame.AuthMounted && m.auth != nil {
		sections = append(sections, m.auth.view(t, width))
	}
	if m.frame.PullRequestsMounted && !m.frame.PullRequestsHidden && m.pullRequests != nil {
		sections = append(sections, m.pullRequests.view(t, width, layout.BodyHeight, m.spinner.View()))
	}
	return sizedStyle(t.panelBox, layout.Width, layout.BodyHeight).Render(strings.Join(sections, "\n\n"))
}

func (m model) renderFooter(t theme, layout uiLayout) string {
	status := "status: " + fallbackText(m.statusText, "idle")
	statusStyled := t.footerOK.Render(status)
	if m.busy() {
		statusStyled = t.footerWarn.Render(status)
	}
	if strings.TrimSpace(m.errorText) != "" {
		statusStyled = t.footerErr.Render("status: " + m.errorText)
	}

	var helpLine string
	if m.typing() {
		helpLine = m.help.View(authKeyMap{keys: m.keys})
	} else {
		helpLine = m.help.View(m.keys)
	}

	style := t.footerBox
	if layout.Compact {
		return sizedStyle(style, layout.Width, layout.FooterHeight).Render(t.footerInfo.Render(helpLine))
	}
	return sizedStyle(style, layout.Width, layout.FooterHeight).Render(t.footerInfo.Render(helpLine) + "\n" + trimToWidth(statusStyled, innerWidth(style, layout.Width)))
}

func (m model) busy() bool {
	if m.pullRequests != nil && m.pullRequests.loading {
		return true
	}
	return m.auth != nil && m.auth.saving
}

func servicesLabel(frame shell.Frame) string {
	services := frame.Tokens.Services()
	if len(services) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(services))
	for _, service := range services {
		labels = append(labels, service.Label())
	}
	return strings.Join(labels, ",")
}

func fillLine(left, right string, width int) string {
	if width <= 0 {
		return strings.TrimSpace(left + " " + right)
	}
	lw := lipgloss.Width(left)
	rw := lipgloss.Width(right)
	if lw+rw+1 > width {
		return trimToWidth(left+" "+right, width)
	}
	return left + strings.Repeat(" ", width-lw-rw) + right
}

func trimToWidth(value string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= width {
		return string(runes)
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func sizedStyle(style lipgloss.Style, width, height int) lipgloss.Style {
	contentWidth := maxInt(1, width-style.GetHorizontalFrameSize())
	contentHeight := maxInt(1, height-style.GetVerticalFrameSize())
	return style.Width(contentWidth).Height(contentHeight)
}

func innerWidth(style lipgloss.Style, width int) int {
	return maxInt(1, width-style.GetHorizontalFrameSize())
}
