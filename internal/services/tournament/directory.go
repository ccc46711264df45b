package tournament

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/scrimline/scrimline-chat/internal/model"
)

// ErrTournamentNotFound is returned when the referenced tournament is absent
var ErrTournamentNotFound = errors.New("tournament not found")

// Directory is the read-only tournament collaborator, consulted when a
// tournament_reference message is sent so the stored message can carry a
// display summary.
type Directory interface {
	Summary(ctx context.Context, id model.TournamentID) (*model.TournamentSummary, error)
}

// HTTPDirectory resolves summaries from the platform API
type HTTPDirectory struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPDirectory creates a directory against the given platform base URL
func NewHTTPDirectory(baseURL string, logger *slog.Logger) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With(slog.String("component", "tournament")),
	}
}

var _ Directory = (*HTTPDirectory)(nil)

// Summary fetches the tournament summary by id
func (d *HTTPDirectory) Summary(ctx context.Context, id model.TournamentID) (*model.TournamentSummary, error) {
	url := fmt.Sprintf("%s/internal/tournaments/%s", d.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTournamentNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("tournament lookup failed: HTTP %d", resp.StatusCode)
	}

	var summary model.TournamentSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// StaticDirectory serves summaries from a fixed map. Used in tests and
// local development.
type StaticDirectory struct {
	Summaries map[model.TournamentID]*model.TournamentSummary
}

var _ Directory = (*StaticDirectory)(nil)

// Summary returns the fixed summary for the id
func (d *StaticDirectory) Summary(ctx context.Context, id model.TournamentID) (*model.TournamentSummary, error) {
	summary, ok := d.Summaries[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return summary, nil
}
