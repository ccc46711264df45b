package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/scrimline/scrimline-chat/internal/model"
)

// Notifier tells the platform's team-roster collaborator to add a player
// after an accepted offer. The roster itself is owned upstream; failures
// here do not roll back the accepted tryout.
type Notifier interface {
	AddPlayer(ctx context.Context, teamID model.TeamID, playerID model.UserID) error
}

// HTTPNotifier calls the platform's roster endpoint
type HTTPNotifier struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPNotifier creates a notifier against the given platform base URL
func NewHTTPNotifier(baseURL string, logger *slog.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With(slog.String("component", "roster")),
	}
}

var _ Notifier = (*HTTPNotifier)(nil)

type addPlayerRequest struct {
	PlayerID string `json:"playerId"`
}

// AddPlayer posts the new member to the platform roster endpoint
func (n *HTTPNotifier) AddPlayer(ctx context.Context, teamID model.TeamID, playerID model.UserID) error {
	body, err := json.Marshal(addPlayerRequest{PlayerID: string(playerID)})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/teams/%s/roster", n.baseURL, teamID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("roster update failed: HTTP %d", resp.StatusCode)
	}

	n.logger.Info("player added to roster",
		slog.String("team_id", string(teamID)),
		slog.String("player_id", string(playerID)),
	)
	return nil
}

// NopNotifier discards roster notifications. Used when the service runs
// without a platform endpoint (local development, tests).
type NopNotifier struct{}

var _ Notifier = (*NopNotifier)(nil)

// AddPlayer does nothing
func (NopNotifier) AddPlayer(ctx context.Context, teamID model.TeamID, playerID model.UserID) error {
	return nil
}
