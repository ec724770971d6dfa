package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/tokenkeeper/internal/cli"
	"github.com/dmitrijs2005/tokenkeeper/internal/cryptox"
	"github.com/dmitrijs2005/tokenkeeper/internal/flagx"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/config"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/core"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	sudo, args, err := cli.ParseArgs(flagx.StripArgs(os.Args[1:], config.Flags))
	if err != nil {
		cli.PrintError(os.Stderr, err)
		return 1
	}

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, "text")

	db, m, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Error(ctx, "cannot open store", "error", err)
		return 1
	}
	defer db.Close()

	rootSecret := auth.NewRootSecret()
	keeper := core.New(db, m, cryptox.NewArgon2(cfg.Argon2Params()), rootSecret, logger)
	app := cli.NewApp(keeper, rootSecret, os.Stdin, os.Stdout)

	if err := app.Execute(ctx, sudo, args); err != nil {
		cli.PrintError(os.Stderr, err)
		return 1
	}
	return 0
}
