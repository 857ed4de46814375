package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bnema/hfmctl/internal/adapters/render/envelope"
	"github.com/bnema/hfmctl/internal/adapters/render/progress"
	"github.com/bnema/hfmctl/internal/application"
	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/ports"
	"github.com/spf13/cobra"
)

const outputText = "text"

func init() {
	cobra.EnableCaseInsensitive = true
}

type optionFlag struct {
	name  string
	key   domain.Key
	usage string
}

var delimiterFlag = optionFlag{name: "delimiter", key: domain.KeyDelimiter, usage: "field delimiter"}

var operationFlags = map[domain.Operation][]optionFlag{
	domain.OpConsolidate: {
		{name: "type", key: domain.KeyConsolidationType, usage: "consolidation type: allwithdata, all, impacted, force"},
	},
	domain.OpTranslate: {
		{name: "force", key: domain.KeyForce, usage: "force translation (true/false)"},
	},
	domain.OpLoadData: {
		{name: "file", key: domain.KeyDataFile, usage: "data file on the server to load"},
		{name: "mode", key: domain.KeyLoadMode, usage: "duplicate handling: merge, replace, accumulate"},
		{name: "accumulate", key: domain.KeyAccumulate, usage: "accumulate within file (true/false)"},
		delimiterFlag,
	},
	domain.OpExtractData: {
		{name: "format", key: domain.KeyExtractFormat, usage: "extract format: flatfile, noheader, warehouse, essbase"},
		{name: "dsn", key: domain.KeyDSN, usage: "warehouse DSN"},
		{name: "table-prefix", key: domain.KeyTablePrefix, usage: "warehouse table prefix"},
		{name: "calculated", key: domain.KeyCalculatedData, usage: "include calculated data (true/false)"},
		{name: "derived", key: domain.KeyDerivedData, usage: "include derived data (true/false)"},
		{name: "dynamic-accounts", key: domain.KeyDynamicAccounts, usage: "include dynamic accounts (true/false)"},
		delimiterFlag,
	},
	domain.OpExtractMetadata: {
		{name: "format", key: domain.KeyFileFormat, usage: "metadata file format: app or xml"},
		{name: "system-accounts", key: domain.KeySystemAccounts, usage: "include system accounts (true/false)"},
		delimiterFlag,
	},
	domain.OpExtractRules: {
		{name: "format", key: domain.KeyFileFormat, usage: "rules file format: xml or rle"},
	},
	domain.OpExtractSecurity: {
		{name: "users", key: domain.KeyUsers, usage: "include users (true/false)"},
		{name: "security-classes", key: domain.KeySecurityClasses, usage: "include security classes (true/false)"},
		{name: "role-access", key: domain.KeyRoleAccess, usage: "include role access (true/false)"},
		{name: "security-class-access", key: domain.KeySecurityClassAccess, usage: "include security class access (true/false)"},
		delimiterFlag,
	},
	domain.OpExtractJournals: {
		{name: "labels", key: domain.KeyLabels, usage: "journal labels separated by ; or ,"},
		{name: "groups", key: domain.KeyGroups, usage: "journal groups separated by ; or ,"},
		{name: "regular", key: domain.KeyRegular, usage: "include regular journals (true/false)"},
		{name: "standard", key: domain.KeyStandard, usage: "include standard journals (true/false)"},
		{name: "recurring", key: domain.KeyRecurring, usage: "include recurring journals (true/false)"},
		delimiterFlag,
	},
}

func newOperationCmds(a *app) []*cobra.Command {
	specs := domain.Operations()
	cmds := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		cmds = append(cmds, newOperationCmd(a, spec))
	}
	return cmds
}

func newOperationCmd(a *app, spec domain.OperationSpec) *cobra.Command {
	var (
		appName string
		pov     string
		extra   []string
	)
	options := operationFlags[spec.Operation]
	values := make([]string, len(options))

	cmd := &cobra.Command{
		Use:     strings.ToLower(string(spec.Operation)),
		Aliases: spec.Aliases,
		Short:   spec.Short,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var params domain.Params
			params.Set(domain.KeyApplication, appName)
			params.Set(domain.KeyPOV, pov)
			for i, opt := range options {
				if cmd.Flags().Changed(opt.name) {
					params.Set(opt.key, values[i])
				}
			}
			if err := applyExtraParams(&params, extra); err != nil {
				return a.reportEarlyFailure(cmd.OutOrStdout(), spec.Operation, appName, &domain.InvalidRequestError{Operation: spec.Operation, Reason: err.Error()})
			}

			return a.runOperation(cmd, spec, params)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&appName, "app", "a", "", "application name")
	flags.StringVar(&pov, "pov", "", "point of view, e.g. S#Actual.Y#2025.P#Jan.E#Total")
	for i, opt := range options {
		flags.StringVar(&values[i], opt.name, "", opt.usage)
	}
	flags.StringArrayVar(&extra, "param", nil, "extra parameter as Key=Value (repeatable)")

	return cmd
}

func applyExtraParams(params *domain.Params, extra []string) error {
	for _, raw := range extra {
		name, value, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("parameter %q is not Key=Value", raw)
		}
		key, known := domain.ParseKey(name)
		if !known || key == domain.KeySession {
			return fmt.Errorf("unknown parameter %q", name)
		}
		params.Set(key, value)
	}
	return nil
}

func (a *app) runOperation(cmd *cobra.Command, spec domain.OperationSpec, params domain.Params) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	appName := params.String(domain.KeyApplication)

	service, err := a.service(ctx)
	if err != nil {
		return a.reportEarlyFailure(out, spec.Operation, appName, err)
	}

	req, err := a.buildRequest(ctx, spec.Operation, params)
	if err != nil {
		return a.reportEarlyFailure(out, spec.Operation, appName, err)
	}

	var (
		result application.InvocationResult
		runErr error
	)
	run := func(ctx context.Context, reporter ports.ProgressReporter) error {
		result, runErr = service.Run(ctx, req, reporter)
		return nil
	}

	if a.settings.Output == outputText {
		if err := a.runText(ctx, cmd, spec, appName, run); err != nil {
			return err
		}
		rendered, err := progress.Render(result)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, rendered); err != nil {
			return err
		}
	} else {
		var reporter ports.ProgressReporter = ports.NopProgressReporter{}
		if a.verbose {
			reporter = ports.ProgressReporterFunc(func(_ context.Context, p domain.TaskProgress) {
				_ = envelope.WriteProgress(out, p)
			})
		}
		_ = run(ctx, reporter)
		if err := envelope.Write(out, envelope.FromResult(result)); err != nil {
			return err
		}
	}

	if runErr != nil {
		return &exitError{code: result.ExitCode, err: runErr}
	}
	return nil
}

// runText shows a spinner when stderr is a terminal and plain progress lines
// otherwise.
func (a *app) runText(ctx context.Context, cmd *cobra.Command, spec domain.OperationSpec, appName string, run func(context.Context, ports.ProgressReporter) error) error {
	errOut := cmd.ErrOrStderr()
	opts := progress.RenderOptions{}

	if f, ok := errOut.(*os.File); ok && a.isTerminal(f.Fd()) {
		label := fmt.Sprintf("%s on %s", spec.Operation, valueOr(appName, "?"))
		return progress.RunSpinner(ctx, errOut, label, opts, run)
	}

	return run(ctx, progress.NewReporter(errOut, opts))
}

func (a *app) buildRequest(ctx context.Context, op domain.Operation, params domain.Params) (application.Request, error) {
	auth := a.settings.Auth

	params.Set(domain.KeyUser, auth.User)
	params.Set(domain.KeyCluster, auth.Cluster)
	params.Set(domain.KeyProvider, auth.Provider)
	params.Set(domain.KeyDomain, auth.Domain)
	params.Set(domain.KeyServer, auth.Server)

	if !params.Has(domain.KeyPassword) {
		password, err := a.resolvePassword(ctx)
		if err != nil {
			return application.Request{}, err
		}
		params.Set(domain.KeyPassword, password)
	}

	return application.Request{
		Operation: op,
		Params:    params,
		Anonymous: auth.AllowAnonymous,
		Locale:    auth.Locale,
	}, nil
}

// resolvePassword tries the configured password, then the secret store, then
// an interactive prompt. An empty result is left for the service to reject.
func (a *app) resolvePassword(ctx context.Context) (string, error) {
	auth := a.settings.Auth
	if auth.Password != "" {
		return auth.Password, nil
	}

	if auth.PasswordRef != "" {
		store, err := a.secrets()
		if err != nil {
			return "", err
		}
		password, err := store.Get(ctx, auth.PasswordRef)
		if err != nil {
			return "", &domain.AuthError{Reason: "read password " + auth.PasswordRef, Err: err}
		}
		return password, nil
	}

	if auth.AllowAnonymous || auth.User == "" || !a.stdinIsTerminal() {
		return "", nil
	}
	return a.prompt(fmt.Sprintf("Password for %s:", auth.User))
}

// reportEarlyFailure reports a failure that happened before the service ran.
func (a *app) reportEarlyFailure(out io.Writer, op domain.Operation, appName string, err error) error {
	if a.settings.Output != outputText {
		if writeErr := envelope.Write(out, envelope.Failure(string(op), appName, err, a.now())); writeErr != nil {
			return writeErr
		}
	}
	return &exitError{code: domain.ExitCode(err), err: err}
}

func valueOr(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
