package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chattr/authcore/internal/config"
	"github.com/chattr/authcore/internal/pkg/session"
	"github.com/urfave/cli/v2"
)

const opTimeout = 30 * time.Second

// operations is the part of session.Manager the CLI drives.
type operations interface {
	Sweep(ctx context.Context) (int64, error)
	RevokeOne(ctx context.Context, token string) (bool, error)
	RevokeAll(ctx context.Context, userID string) (bool, error)
	Inspect(ctx context.Context, token string) (*session.Record, error)
	Ping(ctx context.Context) error
}

type opener func(ctx context.Context, configPath string, verbose bool) (operations, func() error, error)

var errUsage = errors.New("usage")

func newApp(open opener) *cli.App {
	withOps := func(fn func(context.Context, *cli.Context, operations) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			ctx, cancel := context.WithTimeout(c.Context, opTimeout)
			defer cancel()

			ops, closeFn, err := open(ctx, c.String("config"), c.Bool("verbose"))
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(ctx, c, ops)
		}
	}

	return &cli.App{
		Name:  "authctl",
		Usage: "Maintain refresh token records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfigPath,
				Usage:   "Path to YAML config file",
				EnvVars: []string{"AUTHCORE_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log store operations",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "ping",
				Usage:  "Check the durable store and the cache",
				Action: withOps(ping),
			},
			{
				Name:   "sweep",
				Usage:  "Delete expired refresh token records now",
				Action: withOps(sweep),
			},
			{
				Name:      "revoke",
				Usage:     "Revoke one refresh token",
				ArgsUsage: "TOKEN",
				Action:    withOps(revoke),
			},
			{
				Name:      "revoke-all",
				Usage:     "Revoke every refresh token of a user",
				ArgsUsage: "USER_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: withOps(revokeAll),
			},
			{
				Name:      "inspect",
				Usage:     "Show the durable record of a refresh token",
				ArgsUsage: "TOKEN",
				Action:    withOps(inspect),
			},
		},
	}
}

func ping(ctx context.Context, c *cli.Context, ops operations) error {
	if err := ops.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "ok")
	return nil
}

func sweep(ctx context.Context, c *cli.Context, ops operations) error {
	n, err := ops.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %d expired record(s)\n", n)
	return nil
}

func revoke(ctx context.Context, c *cli.Context, ops operations) error {
	token, err := singleArg(c, "TOKEN")
	if err != nil {
		return err
	}
	changed, err := ops.RevokeOne(ctx, token)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(c.App.Writer, "token was not active")
		return nil
	}
	fmt.Fprintln(c.App.Writer, "revoked")
	return nil
}

func revokeAll(ctx context.Context, c *cli.Context, ops operations) error {
	userID, err := singleArg(c, "USER_ID")
	if err != nil {
		return err
	}
	if !c.Bool("force") {
		return fmt.Errorf("refusing to revoke every session of %s without --force", userID)
	}
	changed, err := ops.RevokeAll(ctx, userID)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(c.App.Writer, "no active tokens")
		return nil
	}
	fmt.Fprintln(c.App.Writer, "revoked all active tokens")
	return nil
}

func inspect(ctx context.Context, c *cli.Context, ops operations) error {
	token, err := singleArg(c, "TOKEN")
	if err != nil {
		return err
	}
	rec, err := ops.Inspect(ctx, token)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("token not found")
	}

	state := "active"
	switch {
	case rec.IsRevoked:
		state = "revoked"
	case !rec.Active(time.Now()):
		state = "expired"
	}
	w := c.App.Writer
	fmt.Fprintf(w, "ID:         %s\n", rec.ID)
	fmt.Fprintf(w, "User ID:    %s\n", rec.UserID)
	fmt.Fprintf(w, "State:      %s\n", state)
	fmt.Fprintf(w, "Expires At: %s\n", rec.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Created At: %s\n", rec.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Updated At: %s\n", rec.UpdatedAt.Format(time.RFC3339))
	return nil
}

func singleArg(c *cli.Context, name string) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%w: %s %s", errUsage, c.Command.Name, name)
	}
	return c.Args().First(), nil
}
