package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/gdrive-go/internal/driver"
)

// stateTokenBytes is the number of random bytes for the OAuth2 state parameter.
const stateTokenBytes = 16

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize access to your Drive account",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved token",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	d := driver.New(resolvedCfg, driver.Options{HTTPClient: defaultHTTPClient()}, logger)

	state, err := generateState()
	if err != nil {
		return fmt.Errorf("generating state token: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in your browser and authorize access:\n\n%s\n\n", d.AuthURL(state))
	fmt.Fprint(cmd.OutOrStdout(), "Paste the authorization code here: ")

	code, err := readLine(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading authorization code: %w", err)
	}

	if code == "" {
		return fmt.Errorf("no authorization code entered")
	}

	if err := d.Authorize(cmd.Context(), code); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Login successful.")

	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	d := driver.New(resolvedCfg, driver.Options{}, logger)

	if err := d.Logout(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")

	return nil
}

// generateState produces a cryptographically random hex string for the
// OAuth2 state parameter. Using crypto/rand prevents CSRF attacks.
func generateState() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// readLine reads one trimmed line from r.
func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return strings.TrimSpace(scanner.Text()), nil
}
