package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/dwizi/review-vir/internal/authstore"
	"github.com/dwizi/review-vir/internal/config"
	"github.com/dwizi/review-vir/internal/routing"
	"github.com/dwizi/review-vir/internal/shell"
	"github.com/dwizi/review-vir/internal/watcher"
	"github.com/dwizi/review-vir/internal/webclient"
)

type model struct {
	cfg       config.Config
	logger    *slog.Logger
	sessionID string

	shell *shell.Shell
	frame shell.Frame

	// pullRequests is created on the first ready frame and never dropped.
	pullRequests *pullRequestsPage
	auth         *authPage
	schedule     cron.Schedule
	tick         tickFunc

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width      int
	height     int
	quitting   bool
	statusText string
	errorText  string
}

func Run(cfg config.Config, logger *slog.Logger, initialRoute routing.Route) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sessionID := uuid.NewString()
	logger = logger.With("session_id", sessionID)

	router := routing.NewRouter(routing.SanitizeRoute(initialRoute), logger.With("component", "router"))
	reviewShell := shell.New(shell.Deps{
		LoadClientInterface: func(ctx context.Context) (*webclient.Interface, error) {
			return webclient.Load(ctx, cfg, logger.With("component", "webclient"))
		},
		EncryptionKey: cfg.EncryptionKey,
		Router:        router,
		Logger:        logger.With("component", "shell"),
	})
	defer func() {
		if snapshot := reviewShell.ClientInterface(); snapshot.Resolved() {
			if err := snapshot.Value.Close(); err != nil {
				logger.Warn("close client interface", "error", err)
			}
		}
		reviewShell.Close()
	}()

	m := newModel(cfg, reviewShell, logger)
	m.sessionID = sessionID
	program := tea.NewProgram(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.WatchStore {
		startStoreWatcher(ctx, cfg.DBPath, logger, program)
	}

	_, err := program.Run()
	return err
}

func startStoreWatcher(ctx context.Context, dbPath string, logger *slog.Logger, program *tea.Program) {
	storeWatcher, err := watcher.New(dbPath, logger.With("component", "watcher"), func(_ context.Context, path string) {
		program.Send(storeChangedMsg{path: path})
	})
	if err != nil {
		logger.Warn("store watcher unavailable", "error", err)
		return
	}
	go func() {
		if err := storeWatcher.Start(ctx); err != nil {
			logger.Warn("store watcher stopped", "error", err)
		}
	}()
}

func newModel(cfg config.Config, reviewShell *shell.Shell, logger *slog.Logger) model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = newTheme().spinner

	schedule, err := parseRefreshSchedule(cfg.PullRequestRefreshSchedule)
	if err != nil {
		logger.Warn("invalid refresh schedule, using default", "error", err)
	}
	return model{
		cfg:      cfg,
		logger:   logger,
		shell:    reviewShell,
		schedule: schedule,
		tick:     tea.Tick,
		keys:     newKeyMap(),
		help:     help.New(),
		spinner:  sp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(loadClientInterfaceCmd(m.shell.Start()), m.spinner.Tick)
}

// Update handles msg and then always runs a render pass, so the frame and
// the router never lag behind resource state.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.handle(msg)
	if next.quitting {
		return next, cmd
	}
	next, renderCmd := next.renderPass()
	return next, tea.Batch(cmd, renderCmd)
}

func (m model) handle(msg tea.Msg) (model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.help.SetWidth(typed.Width)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case clientInterfaceLoadedMsg:
		m.shell.SettleClientInterface(typed.result)
		return m, nil
	case authTokensLoadedMsg:
		m.shell.SettleAuthTokens(typed.result)
		return m, nil
	case authTokensChangedMsg:
		return m.saveAuthTokens(typed.tokens)
	case saveAuthTokensDoneMsg:
		if typed.err != nil {
			m.logger.Error("save service auth tokens failed", "error", typed.err)
			m.errorText = typed.err.Error()
			m.statusText = ""
			if m.auth != nil {
				m.auth.saveFailed(typed.err)
			}
			return m, nil
		}
		m.shell.AuthTokensSaved(typed.tokens)
		m.errorText = ""
		m.statusText = "tokens saved"
		if m.auth != nil {
			m.auth.saveSucceeded(typed.tokens)
		}
		return m, nil
	case storeChangedMsg:
		client := m.shell.ClientInterface()
		if !client.Resolved() || client.Value.AuthStore() == nil {
			return m, nil
		}
		return m, checkStoreCmd(client.Value.AuthStore())
	case storeCheckDoneMsg:
		if typed.err != nil {
			m.logger.Warn("store change check failed", "error", typed.err)
			return m, nil
		}
		if typed.changed {
			m.logger.Info("service auth tokens changed on disk")
			m.shell.AuthTokensChangedExternally()
			m.statusText = "tokens changed on disk, reloading"
		}
		return m, nil
	case pullRequestsLoadedMsg:
		if m.pullRequests != nil && m.pullRequests.applyLoaded(typed) && typed.err != nil {
			m.logger.Warn("pull request load failed", "error", typed.err)
		}
		return m, nil
	case refreshTickMsg:
		if m.pullRequests == nil {
			return m, nil
		}
		var reload tea.Cmd
		if !m.pullRequests.loading {
			reload = m.pullRequests.reload()
		}
		return m, tea.Batch(reload, m.pullRequests.scheduleNext(typed.at))
	case tea.KeyPressMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyPressMsg) (model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) || (!m.typing() && key.Matches(msg, m.keys.Quit)) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.frame.Kind != shell.FrameReady {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.TabNext):
		return m.navigate(m.adjacentTab(1))
	case key.Matches(msg, m.keys.TabPrev):
		return m.navigate(m.adjacentTab(-1))
	}
	if m.typing() {
		return m, m.auth.update(msg, m.keys)
	}

	switch {
	case key.Matches(msg, m.keys.View1):
		return m.navigate(routing.PathPullRequests)
	case key.Matches(msg, m.keys.View2):
		return m.navigate(routing.PathAuth)
	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.pullRequests != nil && !m.frame.PullRequestsHidden {
		return m, m.pullRequests.handleKey(msg, m.keys)
	}
	return m, nil
}

func (m model) navigate(path routing.MainPath) (model, tea.Cmd) {
	if path == routing.PathPullRequests && len(m.frame.Tokens) == 0 {
		m.statusText = "add a service token to see pull requests"
	}
	m.shell.Navigate(m.frame.Route.WithMainPath(path))
	return m, nil
}

func (m model) adjacentTab(step int) routing.MainPath {
	paths := routing.MainPaths()
	current := 0
	for index, path := range paths {
		if path == m.frame.Route.Head() {
			current = index
			break
		}
	}
	return paths[(current+step+len(paths))%len(paths)]
}

// typing reports whether plain keys belong to the auth page inputs.
func (m model) typing() bool {
	return m.frame.Kind == shell.FrameReady && m.frame.AuthMounted && m.auth != nil
}

func (m model) saveAuthTokens(tokens authstore.ServiceAuthTokens) (model, tea.Cmd) {
	client := m.frame.Client
	if client == nil || client.AuthStore() == nil {
		err := errors.New("client interface is not ready")
		if m.auth != nil {
			m.auth.saveFailed(err)
		}
		return m, nil
	}
	m.statusText = "saving tokens"
	return m, saveAuthTokensCmd(client.AuthStore(), m.shell.EncryptionKey(), tokens.Compact())
}

// renderPass asks the shell for the current frame and mounts, updates or
// unmounts the pages it names.
func (m model) renderPass() (model, tea.Cmd) {
	frame, job := m.shell.Render()
	m.frame = frame
	cmds := []tea.Cmd{loadAuthTokensCmd(job)}
	if frame.Kind != shell.FrameReady {
		m.auth = nil
		return m, tea.Batch(cmds...)
	}

	if frame.PullRequestsMounted && m.pullRequests == nil {
		m.pullRequests = newPullRequestsPage(m.schedule, m.tick)
		cmds = append(cmds, m.pullRequests.scheduleNext(time.Now()))
	}
	if m.pullRequests != nil {
		cmds = append(cmds, m.pullRequests.sync(frame.Client, frame.Tokens))
	}

	switch {
	case frame.AuthMounted && m.auth == nil:
		m.auth = newAuthPage(frame.Tokens)
	case frame.AuthMounted:
		m.auth.syncTokens(frame.Tokens)
	default:
		m.auth = nil
	}
	return m, tea.Batch(cmds...)
}

func (m model) View() tea.View {
	v := tea.NewView(m.renderView())
	v.AltScreen = true
	return v
}
