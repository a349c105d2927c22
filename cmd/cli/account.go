package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/cardvault/internal/convert"
)

func signUpCmd(a *app) *cobra.Command {
	var email, password, name, company string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			req := convert.SignUpRequest{Email: email, Password: password}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("company") {
				req.Company = &company
			}
			acc, err := a.sess.SignUp(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed up as %s\n", acc.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&email, "email", "e", "", "email")
	f.StringVarP(&password, "password", "p", "", "password (min 6 chars)")
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&company, "company", "", "company")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func signInCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			acc, err := a.sess.SignIn(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", acc.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func signOutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Revoke the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			// a missing token still clears local state
			_ = a.authed(ctx)
			if err := a.sess.SignOut(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func meCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			acc, _ := a.sess.Current()
			printJSON(cmd.OutOrStdout(), acc)
			return nil
		},
	}
}

func profileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Show or change the profile"}

	get := &cobra.Command{
		Use:  "get",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			p, err := a.api().Profile(ctx)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), p)
			return nil
		},
	}

	var name, company string
	set := &cobra.Command{
		Use:  "set",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch convert.ProfilePatchDTO
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("company") {
				patch.Company = &company
			}
			if patch.Name == nil && patch.Company == nil {
				return errors.New("nothing to change (use --name or --company)")
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			p, err := a.api().UpdateProfile(ctx, patch)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), p)
			return nil
		},
	}
	set.Flags().StringVar(&name, "name", "", "display name")
	set.Flags().StringVar(&company, "company", "", "company")

	photo := &cobra.Command{
		Use:   "photo <file|->",
		Short: "Upload a profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			up, err := openUpload(cmd, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			p, err := a.api().UploadPhoto(ctx, *up)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.PhotoURL)
			return nil
		},
	}

	cmd.AddCommand(get, set, photo)
	return cmd
}
