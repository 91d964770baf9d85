package tui

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/dwizi/review-vir/internal/authstore"
	"github.com/dwizi/review-vir/internal/shell"
	"github.com/dwizi/review-vir/internal/webclient"
)

const (
	loadTimeout    = 15 * time.Second
	requestTimeout = 8 * time.Second
)

type clientInterfaceLoadedMsg struct {
	result shell.ClientResult
}

type authTokensLoadedMsg struct {
	result shell.TokensResult
}

// authTokensChangedMsg is emitted by the auth page with the full mapping
// the user wants stored.
type authTokensChangedMsg struct {
	tokens authstore.ServiceAuthTokens
}

type saveAuthTokensDoneMsg struct {
	tokens authstore.ServiceAuthTokens
	err    error
}

type storeChangedMsg struct {
	path string
}

type storeCheckDoneMsg struct {
	changed bool
	err     error
}

type pullRequestsLoadedMsg struct {
	seq   uint64
	inbox webclient.Inbox
	err   error
	at    time.Time
}

type refreshTickMsg struct {
	at time.Time
}

func loadClientInterfaceCmd(job shell.ClientJob) tea.Cmd {
	if job == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return clientInterfaceLoadedMsg{result: job(ctx)}
	}
}

func loadAuthTokensCmd(job shell.TokensJob) tea.Cmd {
	if job == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return authTokensLoadedMsg{result: job(ctx)}
	}
}

func saveAuthTokensCmd(store webclient.AuthStore, encryptionKey string, tokens authstore.ServiceAuthTokens) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := store.SaveServiceAuthTokens(ctx, encryptionKey, tokens)
		return saveAuthTokensDoneMsg{tokens: tokens, err: err}
	}
}

func checkStoreCmd(store webclient.AuthStore) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		changed, err := store.ChangedExternally(ctx)
		return storeCheckDoneMsg{changed: changed, err: err}
	}
}

func loadPullRequestsCmd(loader webclient.PullRequestLoader, tokens authstore.ServiceAuthTokens, seq uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		inbox, err := loader.Load(ctx, tokens)
		return pullRequestsLoadedMsg{seq: seq, inbox: inbox, err: err, at: time.Now()}
	}
}
