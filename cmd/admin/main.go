// Command admin manages profile roles from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"ainews/internal/bootstrap"
	"ainews/internal/config"
	"ainews/internal/models"
	"ainews/internal/service"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Manage AI News profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSetRoleCommand(), newListCommand())
	return root
}

func openProfiles() (*service.ProfileService, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	stores, db, err := bootstrap.OpenStores(cfg)
	if err != nil {
		return nil, nil, err
	}
	rt := &bootstrap.Runtime{Stores: stores, DB: db}
	return service.NewProfileService(stores.Profiles), func() { _ = rt.Close() }, nil
}

func newSetRoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <profile-id> <student|teacher|admin>",
		Short: "Change a profile's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid profile id %q", args[0])
			}

			profiles, closeFn, err := openProfiles()
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := profiles.AssignRole(context.Background(), uint(id), models.Role(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (ID: %d) is now %s\n", p.Username, p.ID, p.Role)
			return nil
		},
	}
}

func newListCommand() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles, optionally filtered by role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, closeFn, err := openProfiles()
			if err != nil {
				return err
			}
			defer closeFn()

			list, err := profiles.ListProfiles(context.Background(), models.Role(role))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE")
			for _, p := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Username, p.Email, p.Role)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "only list profiles with this role")
	return cmd
}
