package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		after string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history <conversation-key>",
		Short: "Fetch conversation history",
		Long: `history fetches messages for a conversation key.

Direct conversations use the key dm:<user-a>:<user-b> (lexically sorted);
tryout conversations use tryout:<chat-id>. Use --after with a message id
to fetch only what came after it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/conversations/%s/messages", url.PathEscape(args[0]))

			query := url.Values{}
			if after != "" {
				query.Set("after", after)
			}
			if limit > 0 {
				query.Set("limit", fmt.Sprintf("%d", limit))
			}
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var result []Message
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&after, "after", "", "Fetch messages after this message id")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of messages")
	return cmd
}
