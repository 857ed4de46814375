package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/hfmctl/internal/config"
	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/logtrace"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logtrace.Sync()

	err := newRootCmd().ExecuteContext(ctx)
	return exitCode(err)
}

// exitError carries a code for failures that were already reported on
// stdout, such as an operation envelope.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var coded *exitError
	if errors.As(err, &coded) {
		return coded.code
	}
	return domain.ExitCode(err)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithApp(newApp())
}

func newRootCmdWithApp(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hfmctl",
		Short: "hfmctl: run Financial Management server operations from the command line",
		Long: "hfmctl logs in to a Financial Management server, starts an operation (consolidation, translation, " +
			"data load or one of the extracts), waits for the server tasks it started and prints one JSON result.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &domain.InvalidRequestError{Reason: err.Error()}
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/hfmctl/config.toml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr and progress lines on stdout")
	flags.StringP("output", "o", "json", "output format: json or text")
	flags.String("server-url", "", "base URL of the server bridge")
	flags.String("token", "", "bearer token for the server bridge")
	flags.String("build", "", "server build used to filter capability candidates")
	flags.StringP("user", "u", "", "login user")
	flags.StringP("password", "p", "", "login password (prefer --password-ref or the prompt)")
	flags.String("password-ref", "", "secret store key holding the login password")
	flags.StringP("cluster", "c", "", "server cluster")
	flags.String("provider", "", "security provider hint")
	flags.String("domain", "", "security domain hint")
	flags.String("server", "", "server name hint")
	flags.String("locale", "", "session locale")
	flags.Bool("anonymous", false, "skip login and pass credentials to the operation")
	flags.String("profile", "", "capability profile file (.toml, .yaml)")
	flags.Duration("poll-interval", 0, "delay between task status polls")
	flags.Duration("timeout", 0, "give up waiting for tasks after this long (0 waits forever)")
	flags.Bool("no-history", false, "do not record this invocation")

	bindFlags(a, flags, map[string]string{
		"output":        config.KeyOutput,
		"server-url":    config.KeyServerURL,
		"token":         config.KeyServerToken,
		"build":         config.KeyServerBuild,
		"user":          config.KeyUser,
		"password":      config.KeyPassword,
		"password-ref":  config.KeyPasswordRef,
		"cluster":       config.KeyCluster,
		"provider":      config.KeyProvider,
		"domain":        config.KeyDomain,
		"server":        config.KeyServer,
		"locale":        config.KeyLocale,
		"anonymous":     config.KeyAllowAnonymous,
		"profile":       config.KeyProfilePath,
		"poll-interval": config.KeyPollInterval,
		"timeout":       config.KeyMonitorTimeout,
		"no-history":    config.KeyHistoryDisabled,
	})

	rootCmd.AddCommand(
		newVersionCmd(),
		newHistoryCmd(a),
		newPOVCmd(),
		newProfileCmd(a),
		newSecretCmd(a),
	)
	rootCmd.AddCommand(newOperationCmds(a)...)

	return rootCmd
}

func bindFlags(a *app, flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}
