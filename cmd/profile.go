package cmd

import (
	"fmt"

	tomlrepo "github.com/bnema/hfmctl/internal/adapters/repo/toml"
	"github.com/bnema/hfmctl/internal/application"
	"github.com/spf13/cobra"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage capability profiles",
	}
	cmd.AddCommand(newProfileExportCmd(a), newProfileCheckCmd())
	return cmd
}

func newProfileExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Write the effective capability profile to a .toml or .yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}

			repo, err := tomlrepo.NewProfileRepository(args[0])
			if err != nil {
				return err
			}

			profile := registry.Profile()
			profile.Build = registry.Build()
			if err := repo.Save(cmd.Context(), profile); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "profile written to %s\n", args[0])
			return err
		},
	}
}

func newProfileCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Parse a capability profile and report what it overrides",
		Args:  cobra.ExactArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := tomlrepo.NewProfileRepository(args[0])
			if err != nil {
				return err
			}
			profile, err := repo.Load(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := application.NewRegistry(profile.Build, profile); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"profile ok: build %q, %d operations, %d login routes, %d session openers, %d status queries, %d aliases\n",
				profile.Build, len(profile.Operations), len(profile.Login), len(profile.SessionOpeners),
				len(profile.StatusQueries), len(profile.Aliases))
			return err
		},
	}
}
