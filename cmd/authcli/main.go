// Command authcli drives the auth client from a terminal: sign in, register,
// reset a password and inspect the stored session.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("authcli", flag.ContinueOnError)
	configPath := global.String("config", "", "YAML file with per-environment baseURL and timeout")
	verbose := global.Bool("v", false, "debug logging")
	global.Usage = func() { usage(global) }
	if err := global.Parse(args); err != nil {
		return err
	}

	c, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	setupLogging(*verbose)

	if global.NArg() == 0 {
		usage(global)
		return nil
	}
	cmd, ok := commands[global.Arg(0)]
	if !ok {
		usage(global)
		return fmt.Errorf("unknown command %q", global.Arg(0))
	}

	store, closeStore, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, client, err := auth.Connect(c.GetBaseURL(), store, []apiclient.Option{apiclient.WithTimeout(c.GetTimeout())})
	if err != nil {
		return err
	}
	unsubscribe := svc.State().Subscribe(func(s session.Session) {
		log.Debug().Bool("authenticated", s.IsAuthenticated()).Bool("loading", s.IsLoading).Str("error", s.Error).Msg("session changed")
	})
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc.Hydrate(ctx)
	log.Debug().Str("env", c.GetEnv()).Str("base_url", c.GetBaseURL()).Msg("client ready")
	return cmd.run(ctx, &app{svc: svc, client: client, timeout: c.GetTimeout()}, global.Args()[1:], out)
}

func setupLogging(verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func usage(fs *flag.FlagSet) {
	displayAppname(config.EnvVars{}.GetAppName())
	fmt.Fprintf(fs.Output(), "Usage: authcli [flags] <command> [command flags]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(fs.Output(), "  %-9s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(fs.Output(), "\nFlags:\n")
	fs.PrintDefaults()
}

func printError(w io.Writer, err error) {
	e := autherr.Parse(err)
	fmt.Fprintf(w, "error: %s\n", e.Message)
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(w, "  %s: %s\n", field, e.Fields[field])
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
