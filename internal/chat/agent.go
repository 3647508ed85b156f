package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Response is what the agent returns for one user message.
type Response struct {
	SessionID string         `json:"session_id"`
	Reply     string         `json:"reply"`
	Action    string         `json:"action"`
	Data      map[string]any `json:"data,omitempty"`
}

// Agent answers chat messages by letting the model choose at most one
// ledger operation per message.
type Agent struct {
	model      Model
	tools      *Dispatcher
	ledger     Ledger
	history    History
	historyMax int
	log        *zap.Logger
}

// AgentOptions configures an Agent.  History may be nil.
type AgentOptions struct {
	History      History
	HistoryLimit int
	Logger       *zap.Logger
}

// NewAgent wires an Agent over ledger.
func NewAgent(m Model, ledger Ledger, opts AgentOptions) *Agent {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	return &Agent{
		model:      m,
		tools:      NewDispatcher(ledger),
		ledger:     ledger,
		history:    opts.History,
		historyMax: opts.HistoryLimit,
		log:        opts.Logger,
	}
}

// Handle processes one message from owner in session.  The first model
// pass may select a tool; its result is fed to a second pass that
// produces the reply text.  History failures are logged and ignored.
func (a *Agent) Handle(ctx context.Context, session, owner, text string) (*Response, error) {
	text = strings.TrimSpace(text)
	past := a.loadHistory(ctx, session)
	turn := Turn{
		System:  a.systemPrompt(owner),
		History: past,
		Prompt:  text,
		Tools:   a.tools.Specs(),
	}

	first, err := a.model.Complete(ctx, turn)
	if err != nil {
		return nil, fmt.Errorf("chat: model: %w", err)
	}

	resp := &Response{SessionID: session, Action: ActionInfo, Reply: first.Text}
	if first.Call != nil {
		result, action := a.tools.Run(ctx, owner, *first.Call)
		a.log.Info("chat tool call",
			zap.String("session", session), zap.String("tool", first.Call.Name),
			zap.Any("ok", result["ok"]))
		resp.Action = action
		resp.Data = result

		turn.Call = first.Call
		turn.Result = result
		second, err := a.model.Complete(ctx, turn)
		switch {
		case err != nil:
			a.log.Warn("chat: formatting pass failed", zap.Error(err))
			resp.Reply = fallbackReply(result)
		case strings.TrimSpace(second.Text) == "":
			resp.Reply = fallbackReply(result)
		default:
			resp.Reply = second.Text
		}
	}

	a.saveHistory(ctx, session, text, resp.Reply)
	return resp, nil
}

func (a *Agent) loadHistory(ctx context.Context, session string) []Message {
	if a.history == nil {
		return nil
	}
	past, err := a.history.Load(ctx, session, a.historyMax)
	if err != nil {
		a.log.Warn("chat: load history failed", zap.String("session", session), zap.Error(err))
		return nil
	}
	return past
}

func (a *Agent) saveHistory(ctx context.Context, session, prompt, reply string) {
	if a.history == nil {
		return
	}
	now := time.Now()
	err := a.history.Append(ctx, session,
		Message{Role: RoleUser, Content: prompt, At: now},
		Message{Role: RoleModel, Content: reply, At: now},
	)
	if err != nil {
		a.log.Warn("chat: save history failed", zap.String("session", session), zap.Error(err))
	}
}

func (a *Agent) systemPrompt(owner string) string {
	policy := a.ledger.Policy()
	grid := policy.Grid()
	openAt, closeAt := policy.Hours()
	now := grid.Now()

	var b strings.Builder
	b.WriteString("You are the assistant of a meeting room reservation system.\n")
	b.WriteString("Read the user's message and call the matching function to reserve, cancel, list or search rooms.\n\n")
	b.WriteString("Rooms:\n")
	for _, r := range a.ledger.Rooms().List() {
		fmt.Fprintf(&b, "- %s (ID: %d, capacity: %d)\n", r.Name, r.ID, r.Capacity)
	}
	fmt.Fprintf(&b, "\nCurrent time: %s %s (%s)\n", grid.DateString(now), grid.TimeString(now), grid.Location())
	fmt.Fprintf(&b, "The user is %q.\n\n", owner)
	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "- \"today\" = %s, \"tomorrow\" = %s\n", grid.DateString(now), grid.DateString(now.AddDate(0, 0, 1)))
	b.WriteString("- Use 24-hour HH:MM times and YYYY-MM-DD dates.\n")
	fmt.Fprintf(&b, "- Times must be on %d-minute boundaries between %s and %s.\n", int(grid.Step()/time.Minute), openAt, closeAt)
	b.WriteString("- If no duration is given, assume one hour.\n")
	b.WriteString("- For \"now\" or \"right away\" use book_now.\n")
	b.WriteString("- After a function result, answer briefly in the user's language and explain any error.\n")
	return b.String()
}

// fallbackReply phrases a tool result when the model cannot.
func fallbackReply(result map[string]any) string {
	if ok, _ := result["ok"].(bool); !ok {
		return fmt.Sprintf("Sorry, that did not work: %v", result["message"])
	}
	switch {
	case result["reservation"] != nil:
		if r, ok := result["reservation"].(map[string]any); ok {
			return fmt.Sprintf("Booked %v on %v from %v to %v (reservation #%v).",
				r["room_name"], r["date"], r["start_time"], r["end_time"], r["id"])
		}
	case result["cancelled_id"] != nil:
		return fmt.Sprintf("Reservation #%v was cancelled.", result["cancelled_id"])
	case result["reservations"] != nil:
		list, _ := result["reservations"].([]any)
		if len(list) == 0 {
			return "There are no reservations."
		}
		lines := make([]string, 0, len(list))
		for _, item := range list {
			if r, ok := item.(map[string]any); ok {
				lines = append(lines, fmt.Sprintf("- #%v %v %v %v-%v (%v)",
					r["id"], r["room_name"], r["date"], r["start_time"], r["end_time"], r["owner"]))
			}
		}
		return strings.Join(lines, "\n")
	case result["rooms"] != nil:
		list, _ := result["rooms"].([]any)
		if len(list) == 0 {
			return "No room is free for that time."
		}
		names := make([]string, 0, len(list))
		for _, item := range list {
			if r, ok := item.(map[string]any); ok {
				names = append(names, fmt.Sprintf("%v (%v seats)", r["name"], r["capacity"]))
			}
		}
		return "Available: " + strings.Join(names, ", ")
	}
	return "Done."
}
