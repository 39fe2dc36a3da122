package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate against the task service",
	Long: `Runs the OAuth2 authorization-code flow: prints the provider's
authorization URL, waits for the redirected URL, and exchanges the one-time
code for a stored credential.`,
	RunE: runAuth,
}

func runAuth(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireOAuth(); err != nil {
		return err
	}

	mgr := a.authManager()
	authURL, state := mgr.BeginAuthorization()

	fmt.Println("1. Open the following URL in your browser:")
	fmt.Println()
	fmt.Println("   " + authURL)
	fmt.Println()
	fmt.Println("2. Log in and authorize the application.")
	fmt.Println("3. Copy the ENTIRE redirected URL from the address bar.")
	fmt.Println()

	raw, err := readLine("Paste the redirected URL here: ")
	if err != nil {
		return err
	}

	code, gotState := extractAuthCode(raw)
	if code == "" {
		return fmt.Errorf("could not extract an authorization code; paste the complete redirected URL")
	}
	if gotState == "" {
		// A bare code carries no state; fall back to the one we issued.
		gotState = state
	}

	cred, err := mgr.CompleteAuthorization(cmd.Context(), code, gotState)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Authentication complete.")
	fmt.Printf("Credential saved to %s (expires %s)\n",
		a.cfg.Credential.Path, cred.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}
