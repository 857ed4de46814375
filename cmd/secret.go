package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSecretCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store login passwords in the secret store",
	}
	cmd.AddCommand(newSecretSetCmd(a), newSecretDeleteCmd(a))
	return cmd
}

func newSecretSetCmd(a *app) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Save a password under key (prompted, or read from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.secrets()
			if err != nil {
				return err
			}

			var value string
			if fromStdin || !a.stdinIsTerminal() {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read secret from stdin: %w", err)
				}
				value = strings.TrimRight(line, "\r\n")
			} else {
				value, err = a.prompt(fmt.Sprintf("Value for %s:", args[0]))
				if err != nil {
					return err
				}
			}
			if value == "" {
				return errors.New("secret value is empty")
			}

			if err := store.Put(cmd.Context(), args[0], value); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "secret %s saved\n", args[0])
			return err
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the value from stdin instead of prompting")
	return cmd
}

func newSecretDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a stored password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.secrets()
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "secret %s deleted\n", args[0])
			return err
		},
	}
}
