package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/quorumslot/internal/config"
	"github.com/teemow/quorumslot/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		account string
		code    string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize read access to Google Calendar free/busy data",
		Long: `Print the Google OAuth URL, then store the token obtained from the
authorization code for --account. The code is read from --code or, if that
is empty, from standard input.

GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if google.HasTokenForAccount(account) && code == "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "A token for account %q already exists; continuing replaces it.\n", account)
			}

			if code == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Visit this URL in your browser and authorize access:\n\n  %s\n\nAuthorization code: ", google.GetAuthURL())
				var err error
				if code, err = readAuthCode(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			if err := google.SaveTokenForAccount(cmd.Context(), account, code); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved for account %q.\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", config.DefaultAccount, "Account name the token is stored under")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code (default: read from stdin)")

	return cmd
}

func readAuthCode(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", errors.New("no authorization code given")
	}
	return code, nil
}
