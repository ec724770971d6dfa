package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/cryptox"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/core"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSecrets makes readPassword return the given values in order.
func stubSecrets(t *testing.T, values ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		if len(values) == 0 {
			return nil, errors.New("no more secrets")
		}
		v := values[0]
		values = values[1:]
		return []byte(v), nil
	}
}

type harness struct {
	keeper *core.Keeper
	root   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, m, err := repomanager.Open(context.Background(), repomanager.DriverSQLite, filepath.Join(t.TempDir(), "cli.sqlite"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	root := auth.NewRootSecret()
	hasher := cryptox.NewArgon2(cryptox.Params{Time: 1, MemoryKiB: 8 * 1024, Threads: 1})
	return &harness{keeper: core.New(db, m, hasher, root, logging.Discard()), root: root}
}

// run executes one command line with stdin text and queued secrets and
// returns what was printed.
func (h *harness) run(t *testing.T, line, stdin string, secrets ...string) (string, error) {
	t.Helper()
	stubSecrets(t, secrets...)

	sudo, args, err := ParseArgs(strings.Fields(line))
	require.NoError(t, err)

	var out bytes.Buffer
	err = NewApp(h.keeper, h.root, strings.NewReader(stdin), &out).Execute(context.Background(), sudo, args)
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, line, stdin string, secrets ...string) string {
	t.Helper()
	out, err := h.run(t, line, stdin, secrets...)
	require.NoError(t, err, line)
	return out
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return lines[len(lines)-1]
}

func TestParseArgs(t *testing.T) {
	sudo, rest, err := ParseArgs([]string{"-sudo", "rename", "alice", "bob"})
	require.NoError(t, err)
	assert.True(t, sudo)
	assert.Equal(t, []string{"rename", "alice", "bob"}, rest)

	sudo, rest, err = ParseArgs([]string{"sudo", "delete", "alice"})
	require.NoError(t, err)
	assert.True(t, sudo)
	assert.Equal(t, []string{"delete", "alice"}, rest)

	sudo, rest, err = ParseArgs([]string{"list"})
	require.NoError(t, err)
	assert.False(t, sudo)
	assert.Equal(t, []string{"list"}, rest)

	_, _, err = ParseArgs([]string{"-nope"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestHelp(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "", "")
	for _, name := range order {
		assert.Contains(t, out, registry[name].rule)
	}

	out = h.mustRun(t, "help repass", "")
	assert.Contains(t, out, "repass [name]")

	_, err := h.run(t, "help nope", "")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	_, err = h.run(t, "nope", "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestUserCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "create alice", "", "secret1", "secret1")
	id := lastLine(out)
	assert.Equal(t, id, lastLine(h.mustRun(t, "unique alice", "")))
	assert.Equal(t, "alice", lastLine(h.mustRun(t, "lookup "+id, "")))

	_, err := h.run(t, "create bob", "", "secret1", "secret2")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	// Name from stdin when not given on the command line.
	h.mustRun(t, "create", "bob\n", "secret2", "secret2")

	_, err = h.run(t, "rename alice carol", "", "wrong12")
	assert.ErrorIs(t, err, common.ErrBadCredential)
	h.mustRun(t, "rename alice carol", "", "secret1")
	h.mustRun(t, "-sudo rename carol dave", "")

	assert.Equal(t, "dave\nbob\n", h.mustRun(t, "names 10 0", ""))
	assert.Len(t, strings.Fields(h.mustRun(t, "users 1 1", "")), 1)
	_, err = h.run(t, "users x 0", "")
	assert.ErrorIs(t, err, ErrBadNumber)
	_, err = h.run(t, "users 0 0", "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	h.mustRun(t, "repass dave", "", "secret1", "secret9", "secret9")
	_, err = h.run(t, "retrieve dave", "", "secret1")
	assert.ErrorIs(t, err, common.ErrBadCredential)
	h.mustRun(t, "retrieve dave", "", "secret9")

	h.mustRun(t, "sudo delete dave", "")
	_, err = h.run(t, "unique dave", "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTokenAndPrivilegeCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "create alice", "", "secret1", "secret1")
	h.mustRun(t, "create bob", "", "secret2", "secret2")

	k1 := lastLine(h.mustRun(t, "retrieve alice", "", "secret1"))
	k2 := lastLine(h.mustRun(t, "generate alice", "", "secret1"))
	require.NotEqual(t, k1, k2)

	_, err := h.run(t, "identify", "", k1)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, h.mustRun(t, "identify", "", k2), "alice")

	k3 := lastLine(h.mustRun(t, "retrieve bob", "", "secret2"))

	_, err = h.run(t, "allow theme dark", "", k3, k2)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	h.mustRun(t, "-sudo allow manage-privilege 1", "", k2)
	h.mustRun(t, "allow theme dark", "", k3, k2)

	assert.Equal(t, `theme = "dark"`, lastLine(h.mustRun(t, "check theme", "", k3)))
	assert.Equal(t, "font = null", lastLine(h.mustRun(t, "check font", "", k3)))
	assert.Contains(t, h.mustRun(t, "list", "", k3), `theme = "dark"`)

	h.mustRun(t, "deny theme", "", k3, k2)
	_, err = h.run(t, "deny theme", "", k3, k2)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPrintError(t *testing.T) {
	var out bytes.Buffer
	PrintError(&out, ErrPasswordMismatch)
	assert.Equal(t, "invalid input: passwords do not match (INVALID_INPUT)\n", out.String())
}
