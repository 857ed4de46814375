package cmd

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bnema/hfmctl/internal/config"
	"github.com/bnema/hfmctl/internal/domain"
	portmocks "github.com/bnema/hfmctl/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolvePasswordPrecedence(t *testing.T) {
	store := portmocks.NewMockSecretStore(t)
	store.EXPECT().Get(mock.Anything, "hfm/admin").Return("from-store", nil).Once()

	a := newApp()
	a.secretStore = store
	a.isTerminal = func(uintptr) bool { return true }
	a.prompt = func(string) (string, error) { return "from-prompt", nil }

	a.settings.Auth = config.AuthSettings{User: "admin", Password: "from-flag", PasswordRef: "hfm/admin"}
	got, err := a.resolvePassword(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-flag", got)

	a.settings.Auth.Password = ""
	got, err = a.resolvePassword(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-store", got)

	a.settings.Auth.PasswordRef = ""
	got, err = a.resolvePassword(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-prompt", got)

	a.settings.Auth.AllowAnonymous = true
	got, err = a.resolvePassword(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolvePasswordStoreMissIsAuthError(t *testing.T) {
	store := portmocks.NewMockSecretStore(t)
	store.EXPECT().Get(mock.Anything, "hfm/admin").Return("", fmt.Errorf("%w: hfm/admin", domain.ErrSecretNotFound))

	a := newApp()
	a.secretStore = store
	a.settings.Auth = config.AuthSettings{User: "admin", PasswordRef: "hfm/admin"}

	_, err := a.resolvePassword(context.Background())
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.Equal(t, domain.ExitAuth, domain.ExitCode(err))
}

func TestMonitorConfigFromSettings(t *testing.T) {
	a := newApp()
	a.settings.Monitor = config.MonitorSettings{
		PollInterval:   time.Second,
		RetryDelay:     2 * time.Second,
		MaxPollRetries: 5,
		Timeout:        time.Minute,
		InFlight:       []string{"RUNNING"},
		Failed:         []string{"ABORTED"},
	}

	cfg := a.monitorConfig()

	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 5, cfg.MaxPollRetries)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Equal(t, []domain.TaskStatus{domain.TaskRunning}, cfg.Classes.InFlight)
	assert.Equal(t, []domain.TaskStatus{domain.TaskAborted}, cfg.Classes.Failed)
}

func TestExitCodePrefersReportedCode(t *testing.T) {
	assert.Equal(t, 4, exitCode(&exitError{code: 4, err: fmt.Errorf("boom")}))
	assert.Equal(t, domain.ExitInvalidRequest, exitCode(&domain.InvalidRequestError{Reason: "bad flag"}))
	assert.Equal(t, domain.ExitOK, exitCode(nil))
}
