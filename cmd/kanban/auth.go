package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/dittokanban/internal/forms"
	"github.com/spf13/cobra"
)

func authFlags(cmd *cobra.Command, f *forms.AuthForm) {
	cmd.Flags().StringVarP(&f.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&f.Password, "password", "p", "", "account password")
}

func signUpCmd(g *globals) *cobra.Command {
	f := &forms.AuthForm{Mode: forms.SignUp}
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: runner(g, func(ctx context.Context, a *app, _ []string) error {
			defer f.Reset()
			if err := f.Validate(); err != nil {
				return errors.New(forms.Message(err))
			}
			a.sess.Mount(ctx)
			if !a.sess.SignUp(ctx, f.Email, f.Password, f.Name) {
				return errors.New(a.sess.State().Error)
			}
			return whoami(ctx, a)
		}),
	}
	authFlags(cmd, f)
	cmd.Flags().StringVarP(&f.Name, "name", "n", "", "display name")
	cmd.Flags().StringVar(&f.ConfirmPassword, "confirm", "", "password confirmation")
	return cmd
}

func signInCmd(g *globals) *cobra.Command {
	f := &forms.AuthForm{Mode: forms.SignIn}
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: runner(g, func(ctx context.Context, a *app, _ []string) error {
			defer f.Reset()
			if err := f.Validate(); err != nil {
				return errors.New(forms.Message(err))
			}
			a.sess.Mount(ctx)
			if !a.sess.SignIn(ctx, f.Email, f.Password) {
				return errors.New(a.sess.State().Error)
			}
			return whoami(ctx, a)
		}),
	}
	authFlags(cmd, f)
	return cmd
}

func signOutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: runner(g, func(ctx context.Context, a *app, _ []string) error {
			a.sess.Mount(ctx)
			if !a.sess.SignOut(ctx) {
				return errors.New(a.sess.State().Error)
			}
			fmt.Fprintln(a.out, "signed out")
			return nil
		}),
	}
}

func whoamiCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE:  runner(g, func(ctx context.Context, a *app, _ []string) error { return whoami(ctx, a) }),
	}
}

func whoami(ctx context.Context, a *app) error {
	st, err := a.signedIn(ctx)
	if err != nil {
		return err
	}
	a.printJSON(st.User)
	return nil
}
