package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/hfmctl/internal/adapters/render/envelope"
	"github.com/bnema/hfmctl/internal/adapters/render/progress"
	"github.com/bnema/hfmctl/internal/domain"
	"github.com/spf13/cobra"
)

var errHistoryDisabled = errors.New("run history is disabled")

func newHistoryCmd(a *app) *cobra.Command {
	var (
		operation string
		status    string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded invocations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.historyRepository()
			if err != nil {
				return err
			}
			if repo == nil {
				return errHistoryDisabled
			}

			filter := domain.RunFilter{Limit: limit}
			if operation != "" {
				op, err := domain.ParseOperation(operation)
				if err != nil {
					return err
				}
				filter.Operation = op
			}
			if status != "" {
				filter.Status, err = parseRunStatus(status)
				if err != nil {
					return err
				}
			}

			records, err := repo.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.settings.Output == outputText {
				_, err := fmt.Fprintln(out, progress.RenderHistory(records))
				return err
			}
			for _, record := range records {
				if err := envelope.Write(out, envelope.FromRecord(record)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&operation, "operation", "", "only runs of this operation")
	cmd.Flags().StringVar(&status, "status", "", "only runs with this status: ok, failed, error")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs (0 for all)")

	cmd.AddCommand(newHistoryShowCmd(a))
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded invocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.historyRepository()
			if err != nil {
				return err
			}
			if repo == nil {
				return errHistoryDisabled
			}

			record, err := repo.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.settings.Output == outputText {
				_, err := fmt.Fprintln(out, progress.RenderHistory([]domain.RunRecord{record}))
				return err
			}
			return envelope.Write(out, envelope.FromRecord(record))
		},
	}
}

func parseRunStatus(raw string) (domain.RunStatus, error) {
	for _, status := range []domain.RunStatus{domain.RunOK, domain.RunFailed, domain.RunError} {
		if strings.EqualFold(string(status), strings.TrimSpace(raw)) {
			return status, nil
		}
	}
	return "", &domain.InvalidRequestError{Reason: fmt.Sprintf("unknown run status %q", raw)}
}
