package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/spf13/cobra"
)

type povReport struct {
	POV        string            `json:"pov"`
	Valid      bool              `json:"valid"`
	Missing    []string          `json:"missing"`
	CustomGaps []int             `json:"custom_gaps"`
	Dimensions map[string]string `json:"dimensions"`
}

func newPOVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pov",
		Short: "Inspect point-of-view strings",
	}
	cmd.AddCommand(newPOVValidateCmd())
	return cmd
}

func newPOVValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pov>",
		Short: "Check a POV for the dimensions an operation needs, without logging in",
		Args:  cobra.ExactArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			pov := domain.ParsePOV(args[0])
			report := povReport{
				POV:        args[0],
				Missing:    orEmpty(pov.Missing()),
				CustomGaps: pov.CustomGaps(),
				Dimensions: pov.Dimensions(),
			}
			if report.CustomGaps == nil {
				report.CustomGaps = []int{}
			}
			validateErr := pov.Validate()
			report.Valid = validateErr == nil

			output, _ := cmd.Flags().GetString("output")
			out := cmd.OutOrStdout()
			if strings.EqualFold(output, outputText) {
				if err := writePOVText(cmd, report); err != nil {
					return err
				}
			} else {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(report); err != nil {
					return fmt.Errorf("write pov report: %w", err)
				}
			}

			if validateErr != nil {
				return &exitError{code: domain.ExitInvalidRequest, err: validateErr}
			}
			return nil
		},
	}
}

func writePOVText(cmd *cobra.Command, report povReport) error {
	out := cmd.OutOrStdout()
	names := make([]string, 0, len(report.Dimensions))
	for name := range report.Dimensions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintf(out, "%-4s %s\n", name, report.Dimensions[name]); err != nil {
			return err
		}
	}
	if len(report.Missing) > 0 {
		if _, err := fmt.Fprintf(out, "missing: %s\n", strings.Join(report.Missing, ", ")); err != nil {
			return err
		}
	}
	if len(report.CustomGaps) > 0 {
		if _, err := fmt.Fprintf(out, "custom gaps: %v\n", report.CustomGaps); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "valid: %t\n", report.Valid)
	return err
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
