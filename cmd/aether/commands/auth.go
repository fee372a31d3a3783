package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aethershop/aether/internal/printer"
)

var (
	loginEmail    string
	loginPassword string

	registerEmail    string
	registerPassword string
	registerName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the storefront",
	Long: `Sign in with an existing account.

On success the session is persisted for the active profile and the guest
cart (if any) is merged into the account cart on the server. The local
guest cart is cleared only after the server confirms the merge.

Examples:
  aether login --email you@example.com --password secret

  # Sign in under a separate profile
  aether --profile work login --email you@corp.example --password secret`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out of the storefront",
	Long: `Sign out and clear the persisted session.

Logout always succeeds locally: if the server cannot be reached, the
session is still cleared on this machine.`,
	RunE: runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email (required)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password (required)")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Account email (required)")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Account password (required)")
	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.auth.Login(ctx, loginEmail, loginPassword); err != nil {
		return printer.Error(
			"login failed",
			err.Error(),
			[]string{"Check the email and password, then retry:\n  aether login --email " + loginEmail + " --password <password>"},
		)
	}
	printer.Success("Signed in as %s\n", loginEmail)

	if err := app.syncCart(ctx); err != nil {
		printer.Warning("Cart sync failed: %v\nYour guest cart is untouched; it will merge on the next command.\n", err)
		return nil
	}
	if cart := app.cart.Cart(); cart != nil && cart.ItemCount > 0 {
		printer.Info("Your cart has %d item(s).\n", cart.ItemCount)
	}
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.auth.Register(ctx, registerEmail, registerPassword, registerName); err != nil {
		return printer.Error("registration failed", err.Error(), nil)
	}
	printer.Success("Account created, signed in as %s\n", registerEmail)

	if err := app.syncCart(ctx); err != nil {
		printer.Warning("Cart sync failed: %v\n", err)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.auth.Authenticated() {
		printer.Info("Not signed in.\n")
		return nil
	}

	if err := app.auth.Logout(ctx); err != nil {
		return err
	}
	if err := app.syncCart(ctx); err != nil {
		app.log.WithError(err).Debug("cart reset after logout failed")
	}
	printer.Success("Signed out\n")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	session := app.auth.Session()
	if !session.Authenticated() {
		printer.Info("Not signed in (profile %q).\n", app.cfg.Profile)
		return nil
	}

	user, err := app.api.Me(ctx)
	if err != nil {
		// The server is unreachable or the token expired; fall back to
		// what the session remembers.
		printer.Info("%s (profile %q, session not verified: %v)\n", session.Email, app.cfg.Profile, err)
		return nil
	}

	printer.Info("%s", user.Email)
	if user.Name != "" {
		printer.Info(" (%s)", user.Name)
	}
	printer.Info(" [profile %q]\n", app.cfg.Profile)
	return nil
}
