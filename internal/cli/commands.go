package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type command struct {
	slot string
	rule string
	hint string
	run  func(a *App, ctx context.Context, params []string) error
}

// order fixes how help lists the commands.
var order = []string{
	"create", "rename", "repass", "delete", "unique", "lookup", "users", "names",
	"generate", "retrieve", "identify",
	"allow", "deny", "check", "list",
}

var registry = map[string]command{
	"create":   {"user", "create [name]", "Creates a new user and prints its id.", (*App).create},
	"rename":   {"user", "rename [name] [rename]", "Changes a user's name.", (*App).rename},
	"repass":   {"user", "repass [name]", "Changes a user's pass. The previous token stops working.", (*App).repass},
	"delete":   {"user", "delete [name]", "Deletes a user with its token and privileges.", (*App).delete},
	"unique":   {"user", "unique [name]", "Prints a user's id.", (*App).unique},
	"lookup":   {"user", "lookup [id]", "Prints a user's name.", (*App).lookup},
	"users":    {"user", "users [size] [offset]", "Prints a page of user ids.", (*App).users},
	"names":    {"user", "names [size] [offset]", "Prints a page of user names.", (*App).names},
	"generate": {"token", "generate [name]", "Replaces a user's token and prints the new code.", (*App).generate},
	"retrieve": {"token", "retrieve [name]", "Prints a user's current code.", (*App).retrieve},
	"identify": {"token", "identify", "Prints the owner of a code.", (*App).identify},
	"allow":    {"privilege", "allow [pkey] [pval]", "Sets a privilege on a token.", (*App).allow},
	"deny":     {"privilege", "deny [pkey]", "Removes a privilege from a token.", (*App).deny},
	"check":    {"privilege", "check [pkey]", "Prints a privilege of a token.", (*App).check},
	"list":     {"privilege", "list", "Prints all privileges of a token.", (*App).list},
}

func (a *App) help(_ context.Context, params []string) error {
	if len(params) > 0 {
		cmd, ok := registry[params[0]]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCommand, params[0])
		}
		a.display("%s\n  %s", cmd.rule, cmd.hint)
		return nil
	}

	var b strings.Builder
	slot := ""
	for _, name := range order {
		cmd := registry[name]
		if cmd.slot != slot {
			if slot != "" {
				b.WriteString("\n")
			}
			slot = cmd.slot
			b.WriteString(slot + "\n")
		}
		fmt.Fprintf(&b, "  %s\n    %s\n", cmd.rule, cmd.hint)
	}
	b.WriteString("\ngeneral\n  help [command]\n  sudo <command> [...parameters]\n    Runs a command without password checks, using the root secret.\n")
	fmt.Fprint(a.out, b.String())
	return nil
}

func (a *App) create(ctx context.Context, params []string) error {
	name, err := a.param(params, 0, "Please choose your name:")
	if err != nil {
		return err
	}
	pass, err := a.newPassword("Please choose your pass:")
	if err != nil {
		return err
	}
	id, err := a.keeper.Register(ctx, name, pass)
	if err != nil {
		return err
	}
	a.display("Successfully created!")
	a.display("%s", id)
	return nil
}

func (a *App) rename(ctx context.Context, params []string) error {
	name, err := a.param(params, 0, "Please enter your old name:")
	if err != nil {
		return err
	}
	newName, err := a.param(params, 1, "Please choose your new name:")
	if err != nil {
		return err
	}
	id, err := a.resolve(ctx, name)
	if err != nil {
		return err
	}
	if err := a.keeper.Rename(ctx, id, newName); err != nil {
		return err
	}
	a.display("Successfully renamed!")
	return nil
}

func (a *App) repass(ctx context.Context, params []string) error {
	name, err := a.param(params, 0, "Please enter your name:")
	if err != nil {
		return err
	}
	id, err := a.resolve(ctx, name)
	if err != nil {
		return err
	}
	pass, err := a.newPassword("Please choose your new pass:")
	if err != nil {
		return err
	}
	if err := a.keeper.ChangePassword(ctx, id, pass); err != nil {
		return err
	}
	a.display("Successfully repassed!")
	return nil
}

func (a *App) delete(ctx context.Context, params []string) error {
	name, err := a.param(params, 0, "Please enter your name:")
	if err != nil {
		return err
	}
	id, err := a.resolve(ctx, name)
	if err != nil {
		return err
	}
	if err := a.keeper.Remove(ctx, id); err != nil {
		return err
	}
	a.display("Successfully deleted!")
	return nil
}

func (a *App) unique(ctx context.Context, params []string) error {
	name, err := a.param(params, 0, "Please enter a name:")
	if err != nil {
		return err
	}
	id, err := a.keeper.FindByName(ctx, name)
	if err != nil {
		return err
	}
	a.display("%s", id)
	return nil
}

func (a *App) lookup(ctx context.Context, params []string) error {
	id, err := a.param(params, 0, "Please enter an id:")
	if err != nil {
		return err
	}
	name, err := a.keeper.FindByID(ctx, id)
	if err != nil {
		return err
	}
	a.display("%s", name)
	return nil
}

func (a *App) page(params []string) (int, int, error) {
	size, err := a.number(params, 0, "Please enter a page size:")
	if err != nil {
		return 0, 0, err
	}
	offset, err := a.number(params, 1, "Please enter an offset:")
	if err != nil {
		return 0, 0, err
	}
	return size, offset, nil
}

func (a *App) users(ctx context.Context, params []string) error {
	size, offset, err := a.page(params)
	if err != nil {
		return err
	}
	ids, err := a.keeper.PageIDs(ctx, size, offset)
	if err != nil {
		return err
	}
	a.display("%s", strings.Join(ids, "\n"))
	return nil
}

func (a *App) names(ctx context.Context, params []string) error {
	size, offset, err := a.page(params)
	if err != nil {
		return err
	}
	names, err := a.keeper.PageNames(ctx, size, offset)
	if err != nil {
		return err
	}
	a.display("%s", strings.Join(names, "\n"))
	return nil
}

func (a *App) generate(ctx context.Context, params []string) error {
	name, err := a.param(params, 0, "Please enter your name:")
	if err != nil {
		return err
	}
	// The pass is needed to seal the new code even with sudo.
	pass, err := a.secret("Please enter your pass:")
	if err != nil {
		return err
	}
	id, err := a.keeper.FindByName(ctx, name)
	if err != nil {
		return err
	}
	code, err := a.keeper.IssueToken(ctx, id, pass)
	if err != nil {
		return err
	}
	a.display("Successfully generated!")
	a.display("%s", code)
	return nil
}

func (a *App) retrieve(ctx context.Context, params []string) error {
	name, err := a.param(params, 0, "Please enter your name:")
	if err != nil {
		return err
	}
	pass, err := a.secret("Please enter your pass:")
	if err != nil {
		return err
	}
	code, err := a.keeper.RecoverTokenByName(ctx, name, pass)
	if err != nil {
		return err
	}
	a.display("%s", code)
	return nil
}

func (a *App) identify(ctx context.Context, _ []string) error {
	code, err := a.secret("Please enter a code:")
	if err != nil {
		return err
	}
	id, err := a.keeper.Identify(ctx, code)
	if err != nil {
		return err
	}
	name, err := a.keeper.FindByID(ctx, id)
	if err != nil {
		return err
	}
	a.display("%s %s", id, name)
	return nil
}

func (a *App) allow(ctx context.Context, params []string) error {
	code, err := a.secret("Please enter the target code:")
	if err != nil {
		return err
	}
	key, err := a.param(params, 0, "Please enter a pkey:")
	if err != nil {
		return err
	}
	value, err := a.param(params, 1, "Please enter a pval:")
	if err != nil {
		return err
	}
	auth, err := a.authCode()
	if err != nil {
		return err
	}
	if err := a.keeper.SetPrivilege(ctx, auth, code, key, value); err != nil {
		return err
	}
	a.display("Successfully allowed!")
	return nil
}

func (a *App) deny(ctx context.Context, params []string) error {
	code, err := a.secret("Please enter the target code:")
	if err != nil {
		return err
	}
	key, err := a.param(params, 0, "Please enter a pkey:")
	if err != nil {
		return err
	}
	auth, err := a.authCode()
	if err != nil {
		return err
	}
	if err := a.keeper.UnsetPrivilege(ctx, auth, code, key); err != nil {
		return err
	}
	a.display("Successfully denied!")
	return nil
}

func (a *App) check(ctx context.Context, params []string) error {
	code, err := a.secret("Please enter a code:")
	if err != nil {
		return err
	}
	key, err := a.param(params, 0, "Please enter a pkey:")
	if err != nil {
		return err
	}
	value, ok, err := a.keeper.GetPrivilege(ctx, code, key)
	if err != nil {
		return err
	}
	if !ok {
		a.display("%s = null", key)
		return nil
	}
	a.display("%s = %s", key, strconv.Quote(value))
	return nil
}

func (a *App) list(ctx context.Context, _ []string) error {
	code, err := a.secret("Please enter a code:")
	if err != nil {
		return err
	}
	pairs, err := a.keeper.ListPrivileges(ctx, code)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.display("%s = %s", k, strconv.Quote(pairs[k]))
	}
	return nil
}
