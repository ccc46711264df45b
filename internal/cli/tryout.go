package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTryoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tryout",
		Short: "Tryout lifecycle commands",
	}

	cmd.AddCommand(newTryoutStartCmd())
	cmd.AddCommand(newTryoutGetCmd())
	cmd.AddCommand(newTryoutOfferCmd())
	cmd.AddCommand(newTryoutRespondCmd())
	cmd.AddCommand(newTryoutEndCmd())

	return cmd
}

func newTryoutStartCmd() *cobra.Command {
	var fromApproach bool

	cmd := &cobra.Command{
		Use:   "start <application-id>",
		Short: "Accept a pending application and open a tryout",
		Long: `start opens a tryout session from a pending application.

As a team captain, pass the application id of a player who applied to
your team. With --approach, pass an approach id instead: you are the
approached player accepting a team's outreach.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/applications/%s/tryout", args[0])
			if fromApproach {
				path = fmt.Sprintf("/api/v1/approaches/%s/tryout", args[0])
			}

			var result Tryout
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromApproach, "approach", false, "Start from a recruitment approach instead of an application")
	return cmd
}

func newTryoutGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <tryout-id>",
		Short: "Get a tryout session snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Tryout
			if err := client.Get(fmt.Sprintf("/api/v1/tryouts/%s", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newTryoutOfferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offer <tryout-id> <message...>",
		Short: "Send a team offer (captain only)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"message": strings.Join(args[1:], " ")}

			var result Tryout
			if err := client.Post(fmt.Sprintf("/api/v1/tryouts/%s/offer", args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newTryoutRespondCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "respond <tryout-id> <accept|reject>",
		Short: "Respond to a pending team offer (applicant only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var accept bool
			switch args[1] {
			case "accept":
				accept = true
			case "reject":
				accept = false
			default:
				return fmt.Errorf("response must be 'accept' or 'reject'")
			}

			req := map[string]bool{"accept": accept}

			var result Tryout
			if err := client.Post(fmt.Sprintf("/api/v1/tryouts/%s/offer/respond", args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newTryoutEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end <tryout-id> <reason...>",
		Short: "End a tryout (either participant; reason required)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"reason": strings.Join(args[1:], " ")}

			var result Tryout
			if err := client.Post(fmt.Sprintf("/api/v1/tryouts/%s/end", args[0]), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
