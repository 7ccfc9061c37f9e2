package command

// root.go defines yamdbctl and the flags every subcommand shares.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yamdb/cmd/yamdbctl/command/client"
)

var (
	apiURL string // API base URL, including /api/v1
	token  string // bearer token for authenticated calls
)

var rootCmd = &cobra.Command{
	Use:   "yamdbctl",
	Short: "yamdbctl - YaMDb operations and API client",
	Long: `yamdbctl talks to a YaMDb deployment. It can:
- apply database migrations and bootstrap the first admin
- sign up and exchange a confirmation code for a token
- browse titles and their reviews

Database commands read the same environment as the API server.`,
	SilenceUsage: true,
}

// Execute runs the root command; called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("YAMDB_API", "http://localhost:8080/api/v1"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("YAMDB_TOKEN"), "bearer token (or YAMDB_TOKEN)")
}

func newClient() *client.HTTPClient {
	c := client.NewHTTPClient(apiURL)
	c.SetToken(token)
	return c
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
