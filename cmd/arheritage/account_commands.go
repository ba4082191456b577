package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"arheritage/internal/accounts"
	"arheritage/internal/records"
)

// passwordEnv supplies the password when --password is omitted.
const passwordEnv = "ARHERITAGE_PASSWORD"

func newAccountCommand(ctx *commandContext) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Create accounts and issue session tokens",
	}

	var name, email, password string
	var asJSON bool
	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			form := &accounts.Form{}
			form.SetMode(accounts.ModeSignUp)
			form.SetName(name)
			form.SetEmail(email)
			form.SetPassword(resolvePassword(password))
			return ctx.submitForm(cmd, form, asJSON)
		},
	}
	signupCmd.Flags().StringVar(&name, "name", "", "Full name")
	signupCmd.Flags().StringVar(&email, "email", "", "Email address")
	signupCmd.Flags().StringVar(&password, "password", "", "Password (or set "+passwordEnv+")")
	addJSONFlag(signupCmd, &asJSON)

	var loginEmail, loginPassword string
	var loginJSON bool
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			form := &accounts.Form{}
			form.SetMode(accounts.ModeLogin)
			form.SetEmail(loginEmail)
			form.SetPassword(resolvePassword(loginPassword))
			return ctx.submitForm(cmd, form, loginJSON)
		},
	}
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email address")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (or set "+passwordEnv+")")
	addJSONFlag(loginCmd, &loginJSON)

	accountCmd.AddCommand(signupCmd, loginCmd)
	return accountCmd
}

func resolvePassword(flag string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	return os.Getenv(passwordEnv)
}

func (c *commandContext) submitForm(cmd *cobra.Command, form *accounts.Form, asJSON bool) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	return c.withRecords(func(store *records.Store, logger *slog.Logger) error {
		svc, err := accounts.NewService(store, cfg.Session.Secret,
			time.Duration(cfg.Session.TTLMinutes)*time.Minute, accounts.WithLogger(logger))
		if err != nil {
			return err
		}
		session, err := form.Submit(cmd.Context(), svc)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd, session)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Welcome, %s\n", session.Name)
		fmt.Fprintf(out, "Token (expires %s):\n%s\n", session.ExpiresAt.Local().Format(time.RFC1123), session.Token)
		return nil
	})
}
