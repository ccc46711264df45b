package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Message:
		o.printMessage(v)
	case []Message:
		for _, m := range v {
			o.printMessage(m)
		}
	case Tryout:
		o.printTryout(v)
	case Session:
		o.printSession(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Message response type (matches API)
type Message struct {
	ID               string    `json:"id"`
	ConversationKey  string    `json:"conversation_key"`
	SenderID         string    `json:"sender_id"`
	ReceiverID       string    `json:"receiver_id,omitempty"`
	ChatID           string    `json:"chat_id,omitempty"`
	Kind             string    `json:"kind"`
	Body             string    `json:"body"`
	ClientRef        string    `json:"client_ref,omitempty"`
	InvitationStatus string    `json:"invitation_status,omitempty"`
	TournamentID     string    `json:"tournament_id,omitempty"`
	TournamentName   string    `json:"tournament_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Offer response type
type Offer struct {
	Message string    `json:"message"`
	SentBy  string    `json:"sent_by"`
	SentAt  time.Time `json:"sent_at"`
}

// Tryout response type
type Tryout struct {
	ID          string    `json:"id"`
	ApplicantID string    `json:"applicant_id"`
	TeamID      string    `json:"team_id"`
	CaptainID   string    `json:"captain_id"`
	Status      string    `json:"status"`
	Offer       *Offer    `json:"offer,omitempty"`
	EndReason   string    `json:"end_reason,omitempty"`
	EndedBy     string    `json:"ended_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Session response type
type Session struct {
	Token       string    `json:"token"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printMessage(m Message) {
	ts := m.CreatedAt.Local().Format("15:04:05")
	switch m.Kind {
	case "system":
		fmt.Printf("[%s] * %s\n", ts, m.Body)
	case "invitation":
		fmt.Printf("[%s] %s (invitation, %s): %s\n", ts, m.SenderID, m.InvitationStatus, m.Body)
	case "tournament_reference":
		fmt.Printf("[%s] %s shared tournament %s (%s)\n", ts, m.SenderID, m.TournamentName, m.TournamentID)
	default:
		fmt.Printf("[%s] %s: %s\n", ts, m.SenderID, m.Body)
	}
}

func (o *Output) printTryout(t Tryout) {
	fmt.Printf("Tryout: %s\n", t.ID)
	fmt.Printf("Status: %s\n", t.Status)
	fmt.Printf("Applicant: %s\n", t.ApplicantID)
	fmt.Printf("Team: %s (captain %s)\n", t.TeamID, t.CaptainID)
	if t.Offer != nil {
		fmt.Printf("Offer: %q (sent by %s)\n", t.Offer.Message, t.Offer.SentBy)
	}
	if t.EndReason != "" {
		fmt.Printf("Ended by %s: %s\n", t.EndedBy, t.EndReason)
	}
}

func (o *Output) printSession(s Session) {
	fmt.Printf("User: %s (%s)\n", s.DisplayName, s.UserID)
	fmt.Printf("Token: %s\n", s.Token)
	fmt.Printf("Expires: %s\n", s.ExpiresAt.Local().Format(time.RFC3339))
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
