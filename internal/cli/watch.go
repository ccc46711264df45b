package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scrimline/scrimline-chat/internal/chatclient"
	"github.com/scrimline/scrimline-chat/internal/model"
)

func newWatchCmd() *cobra.Command {
	var (
		to        string
		tryoutID  string
		verboseWS bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the socket and stream events",
		Long: `watch connects to the websocket endpoint and prints events as they
arrive, reconnecting with backoff and backfilling missed messages.

With --to, lines typed on stdin are sent as direct messages to that
user. With --tryout, the tryout chat is joined and stdin lines are sent
there instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var me Session
			if err := client.Get("/api/v1/me", &me); err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			if verboseWS {
				logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
			}

			sessionCfg := chatclient.DefaultConfig()
			sessionCfg.ServerURL = cfg.ServerURL
			sessionCfg.Token = cfg.Token

			session := chatclient.NewSession(sessionCfg, model.UserID(me.UserID), client, logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigs
				cancel()
				_ = session.Close()
			}()

			go func() {
				_ = session.Run(ctx)
				cancel()
			}()

			if to != "" {
				session.TrackConversation(model.DirectConversationKey(model.UserID(me.UserID), model.UserID(to)))
			}
			if tryoutID != "" {
				_ = session.JoinTryoutChat(model.TryoutID(tryoutID))
			}

			go readStdin(ctx, session, to, tryoutID)

			out := NewOutput(cfg.Output)
			for {
				select {
				case <-ctx.Done():
					return nil
				case event := <-session.Events():
					printEvent(out, event)
				}
			}
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Send stdin lines as DMs to this user id")
	cmd.Flags().StringVar(&tryoutID, "tryout", "", "Join this tryout chat and send stdin lines there")
	cmd.Flags().BoolVar(&verboseWS, "ws-verbose", false, "Log socket lifecycle to stderr")
	return cmd
}

func readStdin(ctx context.Context, session *chatclient.Session, to, tryoutID string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		switch {
		case tryoutID != "":
			_, err = session.SendTryout(model.TryoutID(tryoutID), line)
		case to != "":
			_, err = session.SendDirect(model.UserID(to), line)
		default:
			fmt.Fprintln(os.Stderr, "no send target; use --to or --tryout")
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %s\n", err)
		}
	}
}

func printEvent(out *Output, event chatclient.Event) {
	switch {
	case event.Error != nil:
		out.PrintError(fmt.Errorf("%s (%s)", event.Error.Message, event.Error.Code))
	case event.Message != nil:
		out.Print(messageFromModel(event.Message))
	default:
		out.PrintMessage(fmt.Sprintf("event: %s %s", event.Type, string(event.Raw)))
	}
}

func messageFromModel(m *model.ChatMessage) Message {
	return Message{
		ID:               string(m.ID),
		ConversationKey:  string(m.ConversationKey),
		SenderID:         string(m.SenderID),
		ReceiverID:       string(m.ReceiverID),
		ChatID:           string(m.TryoutID),
		Kind:             string(m.Kind),
		Body:             m.Body,
		ClientRef:        m.ClientRef,
		InvitationStatus: string(m.InvitationStatus),
		TournamentID:     string(m.TournamentID),
		TournamentName:   m.TournamentName,
		CreatedAt:        m.CreatedAt,
	}
}
