// Package cli implements the administrative command line. It talks to the
// core directly, one command per invocation, and reads passwords and codes
// from the terminal without echo.
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
)

// Keeper is the part of core.Keeper the CLI calls.
type Keeper interface {
	Register(ctx context.Context, name, password string) (string, error)
	Authenticate(ctx context.Context, name, password string) (string, error)
	Rename(ctx context.Context, id, newName string) error
	ChangePassword(ctx context.Context, id, newPassword string) error
	Remove(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (string, error)
	FindByName(ctx context.Context, name string) (string, error)
	PageIDs(ctx context.Context, size, offset int) ([]string, error)
	PageNames(ctx context.Context, size, offset int) ([]string, error)
	IssueToken(ctx context.Context, ownerID, password string) (string, error)
	RecoverTokenByName(ctx context.Context, name, password string) (string, error)
	Identify(ctx context.Context, code string) (string, error)
	SetPrivilege(ctx context.Context, auth, targetCode, key, value string) error
	UnsetPrivilege(ctx context.Context, auth, targetCode, key string) error
	GetPrivilege(ctx context.Context, targetCode, key string) (string, bool, error)
	ListPrivileges(ctx context.Context, targetCode string) (map[string]string, error)
}

var (
	ErrUnknownCommand   = fmt.Errorf("%w: unknown command", common.ErrInvalidInput)
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", common.ErrInvalidInput)
	ErrBadNumber        = fmt.Errorf("%w: expected an integer", common.ErrInvalidInput)
)

type App struct {
	keeper     Keeper
	rootSecret string
	reader     *bufio.Reader
	out        io.Writer
	sudo       bool
}

// NewApp constructs an App. rootSecret is used for privilege changes made
// with -sudo.
func NewApp(k Keeper, rootSecret string, in io.Reader, out io.Writer) *App {
	return &App{keeper: k, rootSecret: rootSecret, reader: bufio.NewReader(in), out: out}
}

// ParseArgs splits the command line into the sudo switch and the command
// with its parameters. Configuration flags must be stripped beforehand (see
// flagx.StripArgs).
func ParseArgs(args []string) (bool, []string, error) {
	fs := flag.NewFlagSet("tokenkeeper-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	sudo := fs.Bool("sudo", false, "skip password checks and use the root secret")
	if err := fs.Parse(args); err != nil {
		return false, nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	rest := fs.Args()
	if len(rest) > 0 && rest[0] == "sudo" {
		*sudo = true
		rest = rest[1:]
	}
	return *sudo, rest, nil
}

// Execute runs one command. An empty command prints the help.
func (a *App) Execute(ctx context.Context, sudo bool, args []string) error {
	a.sudo = sudo
	if len(args) == 0 {
		return a.help(ctx, nil)
	}

	name, params := args[0], args[1:]
	if name == "help" {
		return a.help(ctx, params)
	}
	cmd, ok := registry[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return cmd.run(a, ctx, params)
}

// PrintError renders err with its kind the way the CLI reports failures.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%v (%s)\n", err, common.KindOf(err))
}

func (a *App) display(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// param returns params[i] or asks for it.
func (a *App) param(params []string, i int, prompt string) (string, error) {
	if i < len(params) {
		return params[i], nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) secret(prompt string) (string, error) {
	return GetSecret(prompt, a.out)
}

// newPassword asks for a password twice.
func (a *App) newPassword(prompt string) (string, error) {
	pass, err := a.secret(prompt)
	if err != nil {
		return "", err
	}
	confirm, err := a.secret("Please confirm the pass:")
	if err != nil {
		return "", err
	}
	if pass != confirm {
		return "", ErrPasswordMismatch
	}
	return pass, nil
}

// resolve returns the id of name. Without sudo the user's password is
// checked first.
func (a *App) resolve(ctx context.Context, name string) (string, error) {
	if a.sudo {
		return a.keeper.FindByName(ctx, name)
	}
	pass, err := a.secret("Please enter your pass:")
	if err != nil {
		return "", err
	}
	return a.keeper.Authenticate(ctx, name, pass)
}

// authCode returns the requester code for privilege changes.
func (a *App) authCode() (string, error) {
	if a.sudo {
		return a.rootSecret, nil
	}
	return a.secret("Please enter your own code:")
}

func (a *App) number(params []string, i int, prompt string) (int, error) {
	s, err := a.param(params, i, prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	return n, nil
}
