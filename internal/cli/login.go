package cli

import (
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var displayName string

	cmd := &cobra.Command{
		Use:   "login <user-id>",
		Short: "Issue a session via the internal endpoint and store the token",
		Long: `login exchanges a platform user id for a chat session token.

The internal session endpoint is only reachable on the platform network;
this command exists for local development against a local server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"user_id":      args[0],
				"display_name": displayName,
			}

			var result Session
			if err := client.Post("/internal/sessions", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return err
			}
			client.SetToken(result.Token)

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "Display name for the session")
	return cmd
}
