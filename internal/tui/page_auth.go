package tui

import (
	"sort"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/dwizi/review-vir/internal/authstore"
)

// authPage edits one token per service. It only exists while the auth tab
// is active.
type authPage struct {
	services []authstore.ServiceName
	inputs   []textinput.Model
	focus    int

	baseline   authstore.ServiceAuthTokens
	dirty      bool
	saving     bool
	errorText  string
	statusText string
}

func newAuthPage(tokens authstore.ServiceAuthTokens) *authPage {
	p := &authPage{services: authServices(tokens)}
	p.inputs = make([]textinput.Model, len(p.services))
	for index, service := range p.services {
		input := textinput.New()
		input.Prompt = "> "
		input.Placeholder = service.Label() + " personal access token"
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '*'
		input.CharLimit = 512
		p.inputs[index] = input
	}
	p.reset(tokens)
	p.setFocus(0)
	return p
}

// authServices lists known services first, then any extra services found in
// the stored mapping so saving never drops them.
func authServices(tokens authstore.ServiceAuthTokens) []authstore.ServiceName {
	services := authstore.KnownServices()
	seen := map[authstore.ServiceName]bool{}
	for _, service := range services {
		seen[service] = true
	}
	extra := make([]authstore.ServiceName, 0)
	for service := range tokens {
		if !seen[service] {
			extra = append(extra, service)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(services, extra...)
}

func (p *authPage) reset(tokens authstore.ServiceAuthTokens) {
	p.baseline = tokens.Clone()
	for index, service := range p.services {
		p.inputs[index].SetValue(tokens[service])
	}
	p.dirty = false
}

// syncTokens follows a reloaded mapping unless the user has unsaved edits.
func (p *authPage) syncTokens(tokens authstore.ServiceAuthTokens) {
	if p.dirty || p.saving || p.baseline.Equal(tokens) {
		return
	}
	if len(authServices(tokens)) != len(p.services) {
		focus := p.focus
		*p = *newAuthPage(tokens)
		p.setFocus(focus)
		p.statusText = "tokens reloaded"
		return
	}
	p.reset(tokens)
	p.statusText = "tokens reloaded"
}

func (p *authPage) setFocus(index int) {
	if len(p.inputs) == 0 {
		return
	}
	p.focus = clampInt(index, 0, len(p.inputs)-1)
	for i := range p.inputs {
		if i == p.focus {
			_ = p.inputs[i].Focus()
			continue
		}
		p.inputs[i].Blur()
	}
}

func (p *authPage) tokens() authstore.ServiceAuthTokens {
	out := authstore.ServiceAuthTokens{}
	for index, service := range p.services {
		out[service] = p.inputs[index].Value()
	}
	return out.Compact()
}

func (p *authPage) update(msg tea.KeyPressMsg, keys keyMap) tea.Cmd {
	switch {
	case key.Matches(msg, keys.FieldNext):
		p.setFocus((p.focus + 1) % maxInt(1, len(p.inputs)))
		return nil
	case key.Matches(msg, keys.FieldPrev):
		p.setFocus((p.focus - 1 + len(p.inputs)) % maxInt(1, len(p.inputs)))
		return nil
	case key.Matches(msg, keys.Reset):
		p.reset(p.baseline)
		p.errorText = ""
		p.statusText = "edits discarded"
		return nil
	case key.Matches(msg, keys.Save):
		if p.saving {
			return nil
		}
		p.saving = true
		p.errorText = ""
		p.statusText = "saving..."
		tokens := p.tokens()
		return func() tea.Msg { return authTokensChangedMsg{tokens: tokens} }
	}

	if len(p.inputs) == 0 {
		return nil
	}
	before := p.inputs[p.focus].Value()
	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	if p.inputs[p.focus].Value() != before {
		p.dirty = true
		p.statusText = ""
	}
	return cmd
}

func (p *authPage) saveSucceeded(tokens authstore.ServiceAuthTokens) {
	p.saving = false
	p.reset(tokens)
	p.errorText = ""
	p.statusText = "tokens saved"
}

func (p *authPage) saveFailed(err error) {
	p.saving = false
	p.errorText = err.Error()
	p.statusText = ""
}

func (p *authPage) view(t theme, width int) string {
	lines := []string{
		t.panelTitle.Render("Service Tokens"),
		t.panelSubtle.Render("Tokens are encrypted on disk with REVIEW_VIR_ENCRYPTION_KEY."),
		"",
	}
	for index, service := range p.services {
		label := service.Label()
		if stored := strings.TrimSpace(p.baseline[service]); stored != "" {
			label += t.panelSubtle.Render("  stored " + authstore.Mask(stored))
		} else {
			label += t.panelWarn.Render("  not set")
		}
		lines = append(lines, label, p.inputs[index].View(), "")
	}
	switch {
	case p.errorText != "":
		lines = append(lines, t.panelError.Render(trimToWidth("error: "+p.errorText, width)))
	case p.statusText != "":
		lines = append(lines, t.panelSuccess.Render(p.statusText))
	case p.dirty:
		lines = append(lines, t.panelWarn.Render("unsaved changes, enter to save"))
	}
	return strings.Join(lines, "\n")
}
