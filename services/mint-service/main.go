package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/RigelNana/baselibrary/services/mint-service/app"
	"github.com/RigelNana/baselibrary/services/mint-service/config"
	"github.com/RigelNana/baselibrary/services/mint-service/service"
	"github.com/spf13/cobra"
)

// cli holds what every subcommand shares. The App is built on first use so
// that offline commands such as hash never touch the network or database.
type cli struct {
	cfg      *config.Config
	app      *app.App
	logLevel string
	out      io.Writer
}

func (c *cli) load(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	a, err := app.New(ctx, cfg, app.NewLogger(cfg.Log.Level))
	if err != nil {
		return nil, err
	}
	c.cfg, c.app = cfg, a
	return a, nil
}

func (c *cli) minting(ctx context.Context) (*app.App, service.MintService, error) {
	a, err := c.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc, err := a.Minting()
	if err != nil {
		return nil, nil, err
	}
	return a, svc, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
	}
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// report prints what a failed workflow left behind. A reconciliation gap
// still produced an NFT, so its result is shown before the error.
func (c *cli) report(res *service.MintResult, err error) error {
	if err == nil {
		return c.print(res)
	}
	var we *service.WorkflowError
	if errors.As(err, &we) && we.Kind == service.KindReconciliationGap && we.Result != nil {
		_ = c.print(we.Result)
		return fmt.Errorf("%w; run `reconcile %s` once the backend is reachable", err, we.Result.AttemptID)
	}
	return err
}

func newRootCommand() (*cobra.Command, *cli) {
	c := &cli{out: os.Stdout}
	root := &cobra.Command{
		Use:           "baselibrary",
		Short:         "Mint and manage Base Library learning materials",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override LOG_LEVEL")

	root.AddCommand(
		newLoginCommand(c),
		newLogoutCommand(c),
		newWhoamiCommand(c),
		newHashCommand(c),
		newCheckCommand(c),
		newMintCommand(c),
		newCreateCommand(c),
		newUpdateCommand(c),
		newOwnershipCommand(c),
		newMaterialsCommand(c),
		newAttemptsCommand(c),
		newReconcileCommand(c),
		newPinsCommand(c),
	)
	return root, c
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, c := newRootCommand()
	err := root.ExecuteContext(ctx)
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		code := 1
		if service.KindOf(err) == service.KindReconciliationGap {
			code = 2
		}
		os.Exit(code)
	}
}
