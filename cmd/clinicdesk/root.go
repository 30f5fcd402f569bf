package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zatekoja/clinicdesk/internal/console"
	"github.com/zatekoja/clinicdesk/pkg/config"
)

// cli carries what every subcommand needs; the app is built on first use
type cli struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	app    *app
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:           "clinicdesk",
		Short:         "Clinic front desk console for the EMR backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.String("api-url", "", "EMR backend base URL (EMR_API_URL)")
	flags.String("token", "", "bearer token (EMR_API_TOKEN)")
	flags.String("clinic", "", "clinic id (CLINIC_ID)")
	flags.Duration("poll-interval", 0, "refresh period for watch and display (SYNC_POLL_INTERVAL)")
	flags.StringP("output", "o", "table", "output format: table or json")
	flags.String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	for key, flag := range map[string]string{
		"EMR_API_URL":        "api-url",
		"EMR_API_TOKEN":      "token",
		"CLINIC_ID":          "clinic",
		"SYNC_POLL_INTERVAL": "poll-interval",
		"LOG_LEVEL":          "log-level",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		c.queueCmd(),
		c.bedsCmd(),
		c.ipdCmd(),
		c.billingCmd(),
		c.pharmacyCmd(),
		c.auditCmd(),
		c.staffCmd(),
		c.displayCmd(),
	)
	return rootCmd
}

// run adapts fn to cobra, building the app from config and flags first
func (c *cli) run(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := c.load(cmd)
		if err != nil {
			return err
		}
		defer c.close()
		return fn(cmd.Context(), a, args)
	}
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func (c *cli) load(cmd *cobra.Command) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := config.LoadFrom(c.v)
	if err != nil {
		return nil, err
	}
	outFlag, _ := cmd.Flags().GetString("output")
	format, err := console.ParseFormat(outFlag)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cmd.Context(), cfg, console.NewRenderer(c.out, format), c.errOut)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// orDefault keeps the form default when a flag was left unset
func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
