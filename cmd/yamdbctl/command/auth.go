package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"yamdb/internal/microservices/http-api/dto"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Signup and token commands",
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register (or re-request a code) and have a confirmation code mailed",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")

		resp, err := newClient().Signup(cmd.Context(), dto.SignupRequest{Username: username, Email: email})
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Confirmation code sent to %s for %s\n", resp.Email, resp.Username)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Exchange a confirmation code for an access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		code, _ := cmd.Flags().GetString("code")

		resp, err := newClient().Token(cmd.Context(), dto.TokenRequest{Username: username, ConfirmationCode: code})
		if err != nil {
			return fmt.Errorf("token exchange failed: %w", err)
		}
		// printed bare so it can be captured: export YAMDB_TOKEN=$(yamdbctl auth token ...)
		fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(signupCmd)
	authCmd.AddCommand(tokenCmd)

	signupCmd.Flags().StringP("username", "u", "", "username for the account")
	signupCmd.Flags().StringP("email", "e", "", "email address for the account")
	_ = signupCmd.MarkFlagRequired("username")
	_ = signupCmd.MarkFlagRequired("email")

	tokenCmd.Flags().StringP("username", "u", "", "username for the account")
	tokenCmd.Flags().StringP("code", "c", "", "confirmation code from the email")
	_ = tokenCmd.MarkFlagRequired("username")
	_ = tokenCmd.MarkFlagRequired("code")
}
