package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-polls/internal/agent/memory"
	"github.com/IvanChernomyrdin/go-polls/internal/agent/session"
	pwcrypto "github.com/IvanChernomyrdin/go-polls/internal/shared/crypto"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

var cheap = pwcrypto.Argon2Params{Time: 1, MemoryKiB: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

func newMockStore(t *testing.T, dir string) *session.Store {
	t.Helper()
	s := session.NewStore(session.NewMockBackend(dir, cheap), nil)
	s.Init(context.Background())
	return s
}

func TestMock_DefaultAdminSignIn(t *testing.T) {
	s := newMockStore(t, t.TempDir())
	require.Nil(t, s.CurrentUser())

	require.True(t, s.SignIn(context.Background(), "admin@example.com", "password123"))
	assert.Equal(t, &models.User{ID: "1", Email: "admin@example.com", Name: "Admin User"}, s.CurrentUser())
	assert.Equal(t, "", s.AccessToken())
}

func TestMock_WrongPasswordAndUnknownEmail(t *testing.T) {
	s := newMockStore(t, t.TempDir())

	assert.False(t, s.SignIn(context.Background(), "admin@example.com", "nope"))
	assert.False(t, s.SignIn(context.Background(), "ghost@example.com", "password123"))
	assert.Nil(t, s.CurrentUser())
}

func TestMock_SessionSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	first := newMockStore(t, dir)
	require.True(t, first.SignUp(context.Background(), "Bob", "bob@example.com", "bob-password"))

	second := newMockStore(t, dir)
	assert.Equal(t, &models.User{ID: "2", Email: "bob@example.com", Name: "Bob"}, second.CurrentUser())

	require.NoError(t, second.SignOut(context.Background()))
	third := newMockStore(t, dir)
	assert.Nil(t, third.CurrentUser())

	// пользователь остался в таблице
	assert.True(t, third.SignIn(context.Background(), "bob@example.com", "bob-password"))
}

func TestMock_SignOutClearsSessionWhenFileRemovalFails(t *testing.T) {
	dir := t.TempDir()
	s := newMockStore(t, dir)
	require.True(t, s.SignIn(context.Background(), "admin@example.com", "password123"))

	// вместо файла сессии непустой каталог: os.Remove падает
	current := filepath.Join(dir, memory.CurrentUserFile)
	require.NoError(t, os.Remove(current))
	require.NoError(t, os.MkdirAll(filepath.Join(current, "x"), 0o755))

	require.Error(t, s.SignOut(context.Background()))
	assert.Nil(t, s.CurrentUser())
	assert.False(t, s.IsLoading())
}

func TestMock_DuplicateSignUp(t *testing.T) {
	s := newMockStore(t, t.TempDir())

	assert.False(t, s.SignUp(context.Background(), "Other", "admin@example.com", "other-password"))
	assert.Nil(t, s.CurrentUser())
	assert.True(t, s.SignIn(context.Background(), "admin@example.com", "password123"))
}

func TestMock_Reset(t *testing.T) {
	dir := t.TempDir()
	b := session.NewMockBackend(dir, cheap)
	_, err := b.SignUp(context.Background(), "Bob", "bob@example.com", "bob-password")
	require.NoError(t, err)

	require.NoError(t, b.Reset())

	_, err = b.SignIn(context.Background(), "bob@example.com", "bob-password")
	assert.Error(t, err)
}

func TestNewBackend(t *testing.T) {
	b, err := session.NewBackend("mock", session.Options{StateDir: t.TempDir(), Argon2: cheap})
	require.NoError(t, err)
	assert.IsType(t, &session.MockBackend{}, b)

	_, err = session.NewBackend("remote", session.Options{StateDir: t.TempDir()})
	assert.Error(t, err)

	_, err = session.NewBackend("ldap", session.Options{})
	assert.Error(t, err)
}
