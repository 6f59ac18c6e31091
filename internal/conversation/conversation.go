// Package conversation owns the ordered message log for one chat session
// and the single in-flight turn rule. It drives the gateway but never
// inspects result internals beyond existence, and it converts every
// gateway failure into one fixed, non-technical assistant message.
package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"querydeck/internal/gateway"
)

// Role tags one side of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Apology is the only failure text ever shown in the transcript. The real
// failure kind and diagnostics go to the log.
const Apology = "Sorry, I ran into a problem answering that. Please try again."

// maxMessages caps log growth; the oldest full turns are evicted in pairs
// so user/assistant adjacency survives eviction.
const maxMessages = 500

// Message is one immutable turn entry. Result and QueryInfo are assistant
// only; Failed marks a recovered gateway error.
type Message struct {
	ID        string
	Role      Role
	Text      string
	CreatedAt time.Time
	Result    *gateway.ResultEnvelope
	QueryInfo *gateway.QueryInfo
	Failed    bool
}

// Sender is the slice of the gateway client the conversation needs.
type Sender interface {
	SendMessage(ctx context.Context, message, conversationID string) (*gateway.ChatResponse, error)
}

// Outcome is the resolved result of one turn's network call.
type Outcome struct {
	Response *gateway.ChatResponse
	Err      error
}

// Conversation is the per-session state machine. All mutation is expected
// to happen on one logical thread (the TUI update loop); only Resolve is
// safe to run elsewhere, and it touches no mutable state.
type Conversation struct {
	id       string
	gw       Sender
	log      *zap.Logger
	messages []Message
	sending  bool
	pending  string
}

// New creates an empty conversation with a fresh session identity.
func New(gw Sender, log *zap.Logger) *Conversation {
	if log == nil {
		log = zap.NewNop()
	}
	return &Conversation{
		id:  uuid.NewString(),
		gw:  gw,
		log: log,
	}
}

// ID returns the session identity sent as conversation_id.
func (c *Conversation) ID() string { return c.id }

// Sending reports whether a turn is in flight.
func (c *Conversation) Sending() bool { return c.sending }

// Messages returns the ordered log. Callers must treat it as read-only.
func (c *Conversation) Messages() []Message { return c.messages }

// Submit starts a turn. Blank input or an in-flight turn is a no-op and
// returns false; input is ignored, never queued. On acceptance the user
// message is appended synchronously and the conversation enters Sending;
// the caller then runs Resolve asynchronously and feeds Complete.
func (c *Conversation) Submit(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || c.sending {
		return false
	}
	c.sending = true
	c.append(Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      trimmed,
		CreatedAt: time.Now(),
	})
	c.log.Info("turn started", zap.String("conversation_id", c.id))
	return true
}

// Resolve performs the network call for an accepted turn. No retries; a
// timeout resolves to a failed outcome like any other gateway error.
func (c *Conversation) Resolve(ctx context.Context, text string) Outcome {
	resp, err := c.gw.SendMessage(ctx, strings.TrimSpace(text), c.id)
	return Outcome{Response: resp, Err: err}
}

// Complete appends the assistant message for the resolved turn and returns
// to idle. Failures append the fixed apology with Failed set; the kind and
// diagnostic text are logged, never shown.
func (c *Conversation) Complete(out Outcome) Message {
	c.sending = false
	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
	}
	if out.Err != nil {
		msg.Text = Apology
		msg.Failed = true
		c.log.Warn("turn failed",
			zap.String("conversation_id", c.id),
			zap.String("kind", string(gateway.KindOf(out.Err))),
			zap.Error(out.Err),
		)
		c.append(msg)
		return msg
	}

	msg.Text = out.Response.Response
	if !out.Response.Data.Empty() {
		msg.Result = out.Response.Data
	}
	msg.QueryInfo = out.Response.QueryInfo
	c.log.Info("turn fulfilled",
		zap.String("conversation_id", c.id),
		zap.Bool("has_result", msg.Result != nil),
	)
	c.append(msg)
	return msg
}

// Prefill stages input text (quick-query shortcuts) without submitting.
func (c *Conversation) Prefill(text string) { c.pending = text }

// TakePrefill returns and clears the staged input.
func (c *Conversation) TakePrefill() string {
	text := c.pending
	c.pending = ""
	return text
}

func (c *Conversation) append(msg Message) {
	c.messages = append(c.messages, msg)
	for len(c.messages) > maxMessages && len(c.messages) >= 2 {
		c.messages = c.messages[2:]
	}
}
