// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/vip"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage VIP directory accounts",
	}
	cmd.AddCommand(
		newUsersListCmd(a),
		newUsersCreateCmd(a),
		newUsersDeleteCmd(a),
		newUsersSetRoleCmd(a),
		newUsersResetPasswordCmd(a),
	)
	return cmd
}

// users opens the database and returns the directory service.
func (a *app) users() (*vip.Service, error) {
	db, err := a.open()
	if err != nil {
		return nil, err
	}
	return vip.NewService(store.New(db), a.logger), nil
}

// findByEmail resolves an account by its email address.
func findByEmail(ctx context.Context, svc *vip.Service, email string) (vip.User, error) {
	users, err := svc.ListUsers(ctx, nil)
	if err != nil {
		return vip.User{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return vip.User{}, fmt.Errorf("%s: %w", email, vip.ErrNotFound)
}

func newUsersListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.users()
			if err != nil {
				return err
			}
			users, err := svc.ListUsers(cmd.Context(), nil)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tLAST LOGIN")
			for _, u := range users {
				lastLogin := "never"
				if u.LastLoginAt != nil {
					lastLogin = u.LastLoginAt.Format("2006-01-02 15:04")
				}
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, lastLogin)
			}
			return tw.Flush()
		},
	}
}

func newUsersCreateCmd(a *app) *cobra.Command {
	var in vip.CreateUserInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.users()
			if err != nil {
				return err
			}
			u, err := svc.CreateUser(cmd.Context(), nil, in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s (id %d, role %s)\n", u.Email, u.ID, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Role, "role", string(vip.RoleVIP), "role: vip or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUsersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <email>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.users()
			if err != nil {
				return err
			}
			u, err := findByEmail(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteUser(cmd.Context(), nil, u.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", u.Email)
			return nil
		},
	}
}

func newUsersSetRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.users()
			if err != nil {
				return err
			}
			u, err := findByEmail(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			role := args[1]
			updated, err := svc.UpdateUser(cmd.Context(), nil, u.ID, vip.UpdateUserInput{Role: &role})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.Email, updated.Role)
			return nil
		},
	}
}

func newUsersResetPasswordCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.users()
			if err != nil {
				return err
			}
			u, err := findByEmail(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			if _, err := svc.UpdateUser(cmd.Context(), nil, u.ID, vip.UpdateUserInput{Password: &password}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
