package cli_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-polls/internal/agent/cli"
	pwcrypto "github.com/IvanChernomyrdin/go-polls/internal/shared/crypto"
)

func init() {
	cli.MockArgon2Params = pwcrypto.Argon2Params{Time: 1, MemoryKiB: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}
}

// run выполняет root-команду и возвращает stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := cli.NewRootCmd("test", "today")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func mockArgs(dir string, args ...string) []string {
	return append([]string{"--backend", "mock", "--state-dir", dir}, args...)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := cli.NewRootCmd("v", "d")

	want := []string{"signup", "signin", "signout", "whoami", "poll", "version"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmd_VersionSkipsInit(t *testing.T) {
	out, err := run(t, "--backend", "nope", "version")
	require.NoError(t, err)
	require.Equal(t, "version=test\nbuild_date=today\n", out)
}

func TestRootCmd_UnknownBackend(t *testing.T) {
	_, err := run(t, "--backend", "ldap", "--state-dir", t.TempDir(), "whoami")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown auth backend")
}

func TestMockSession_PersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, mockArgs(dir, "whoami")...)
	require.NoError(t, err)
	require.Equal(t, "not signed in\n", out)

	out, err = run(t, mockArgs(dir, "signin", "--email", "admin@example.com", "--password", "password123")...)
	require.NoError(t, err)
	require.Equal(t, "signed in as admin@example.com (id=1)\n", out)

	out, err = run(t, mockArgs(dir, "whoami")...)
	require.NoError(t, err)
	require.Contains(t, out, "email=admin@example.com")
	require.Contains(t, out, "name=Admin User")

	out, err = run(t, mockArgs(dir, "signout")...)
	require.NoError(t, err)
	require.Equal(t, "signed out\n", out)

	out, err = run(t, mockArgs(dir, "whoami")...)
	require.NoError(t, err)
	require.Equal(t, "not signed in\n", out)
}

func TestMockSession_WrongPassword(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, mockArgs(dir, "signin", "--email", "admin@example.com", "--password", "nope")...)
	require.ErrorIs(t, err, cli.ErrSignInFailed)

	out, err := run(t, mockArgs(dir, "whoami")...)
	require.NoError(t, err)
	require.Equal(t, "not signed in\n", out)
}

func TestMockSession_SignUpThenDuplicate(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, mockArgs(dir, "signup", "--name", "Bob", "--email", "bob@example.com", "--password", "secret123")...)
	require.NoError(t, err)
	require.Equal(t, "signed up as bob@example.com (id=2)\n", out)

	_, err = run(t, mockArgs(dir, "signup", "--name", "Bob", "--email", "bob@example.com", "--password", "secret123")...)
	require.ErrorIs(t, err, cli.ErrSignUpFailed)

	// сессия после неудачной регистрации не меняется
	out, err = run(t, mockArgs(dir, "whoami")...)
	require.NoError(t, err)
	require.Contains(t, out, "email=bob@example.com")
}

func TestBackendFromEnv(t *testing.T) {
	t.Setenv(cli.EnvBackend, "mock")
	dir := t.TempDir()

	out, err := run(t, "--state-dir", dir, "signin", "--email", "admin@example.com", "--password", "password123")
	require.NoError(t, err)
	require.Contains(t, out, "signed in as admin@example.com")
}

func TestPasswordFromStdin(t *testing.T) {
	dir := t.TempDir()

	root := cli.NewRootCmd("v", "d")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("password123\n"))
	root.SetArgs(mockArgs(dir, "signin", "--email", "admin@example.com", "--password-stdin"))

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "signed in as admin@example.com")
}

func TestMockSession_PollCreateNeedsToken(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, mockArgs(dir, "signin", "--email", "admin@example.com", "--password", "password123")...)
	require.NoError(t, err)

	_, err = run(t, mockArgs(dir, "poll", "create", "--question", "Q?", "--option", "a", "--option", "b")...)
	require.ErrorIs(t, err, cli.ErrSignInRequired)
}
