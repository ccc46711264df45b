package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	var (
		tryoutID   string
		invitation bool
		tournament string
	)

	cmd := &cobra.Command{
		Use:   "send <receiver-or-chat> <message...>",
		Short: "Send a message",
		Long: `send delivers a message over the REST surface.

By default the first argument is a receiver user id and a direct message
is sent. With --tryout, the first argument is ignored and the message
goes to the given tryout chat. With --invitation the message is sent as
an invitation; with --tournament it is sent as a tournament reference.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			body := strings.Join(args[1:], " ")

			var result Message
			switch {
			case tryoutID != "":
				// Tryout messages go over the socket normally; the REST
				// path is not exposed, so reject rather than silently DM
				return fmt.Errorf("tryout messages are sent via 'chatctl watch' interactive mode or the socket API")
			case tournament != "":
				req := map[string]string{"receiver_id": target, "tournament_id": tournament}
				if err := client.Post("/api/v1/messages/tournament", req, &result); err != nil {
					return err
				}
			case invitation:
				req := map[string]string{"receiver_id": target, "message": body}
				if err := client.Post("/api/v1/messages/invitation", req, &result); err != nil {
					return err
				}
			default:
				req := map[string]string{"receiver_id": target, "message": body}
				if err := client.Post("/api/v1/messages", req, &result); err != nil {
					return err
				}
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&tryoutID, "tryout", "", "Send into a tryout chat instead of a DM")
	cmd.Flags().BoolVar(&invitation, "invitation", false, "Send as an invitation")
	cmd.Flags().StringVar(&tournament, "tournament", "", "Send a tournament reference by id")
	return cmd
}
