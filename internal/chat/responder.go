package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/contractor-leads/internal/observability/metrics"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

const (
	ModeAI      = "ai"
	ModeKeyword = "keyword"

	defaultMaxHistory = 20
	defaultMaxStored  = 100
)

// AwaySource reports whether the manager has marked themselves away.
type AwaySource interface {
	IsAway(ctx context.Context) (bool, error)
}

// AwayFunc adapts a function to AwaySource.
type AwayFunc func(ctx context.Context) (bool, error)

func (f AwayFunc) IsAway(ctx context.Context) (bool, error) { return f(ctx) }

// Reply is the bot utterance produced for one user turn.
type Reply struct {
	Text      string    `json:"text"`
	Mode      string    `json:"mode"`
	Topic     Topic     `json:"topic,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ResponderConfig bounds the AI-backed mode. MaxHistory turns are sent to
// the completer; MaxStored messages are kept per session.
type ResponderConfig struct {
	MaxHistory int
	MaxStored  int
	Timeout    time.Duration
}

// Responder produces bot replies, attempting AI-backed mode first and
// degrading to keyword selection on any failure.
type Responder struct {
	selector  *Selector
	completer Completer
	history   HistoryStore
	away      AwaySource
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
	cfg       ResponderConfig
	locks     *sessionLocks
	now       func() time.Time
}

// NewResponder wires a responder. completer and away may be nil.
func NewResponder(selector *Selector, completer Completer, history HistoryStore, away AwaySource, m *metrics.LeadMetrics, cfg ResponderConfig, logger *logging.Logger) *Responder {
	if selector == nil {
		selector = NewSelector(nil)
	}
	if history == nil {
		history = NewMemoryHistoryStore(0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = defaultMaxHistory
	}
	if cfg.MaxStored <= 0 {
		cfg.MaxStored = defaultMaxStored
	}
	if cfg.MaxStored < cfg.MaxHistory {
		cfg.MaxStored = cfg.MaxHistory
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCompletionTimeout
	}
	return &Responder{
		selector:  selector,
		completer: completer,
		history:   history,
		away:      away,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
		locks:     newSessionLocks(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StartSession creates a fresh session seeded with the greeting.
func (r *Responder) StartSession(ctx context.Context) (string, []Message, error) {
	id := generateSessionID()
	history := []Message{{Role: RoleAssistant, Text: GreetingReply, Timestamp: r.now()}}
	if err := r.history.Save(ctx, id, history); err != nil {
		return "", nil, err
	}
	return id, history, nil
}

// History returns the transcript for a session.
func (r *Responder) History(ctx context.Context, sessionID string) ([]Message, error) {
	return r.history.Load(ctx, sessionID)
}

// Known reports whether sessionID has a live transcript. Every issued
// session starts with the greeting, so an empty load means unknown or expired.
func (r *Responder) Known(ctx context.Context, sessionID string) (bool, error) {
	history, err := r.history.Load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return len(history) > 0, nil
}

// Reply answers one utterance and appends both turns to the session. Turns
// on the same session are serialized.
func (r *Responder) Reply(ctx context.Context, sessionID, utterance string) (Reply, error) {
	if strings.TrimSpace(utterance) == "" {
		return Reply{}, ErrEmptyMessage
	}
	unlock, err := r.locks.acquire(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}
	defer unlock()

	history, err := r.history.Load(ctx, sessionID)
	if err != nil {
		r.logger.Warn("chat history load failed", "session_id", sessionID, "error", err)
		history = nil
	}

	away := r.isAway(ctx)
	reply := r.compose(ctx, history, utterance, away)

	now := r.now()
	reply.Timestamp = now
	history = append(history,
		Message{Role: RoleUser, Text: utterance, Timestamp: now},
		Message{Role: RoleAssistant, Text: reply.Text, Timestamp: now},
	)
	if err := r.history.Save(ctx, sessionID, r.capStored(history)); err != nil {
		r.logger.Warn("chat history save failed", "session_id", sessionID, "error", err)
	}
	r.metrics.ObserveChatReply(reply.Mode, string(reply.Topic))
	return reply, nil
}

// QuickAction runs the canned utterance for a menu value through Reply.
func (r *Responder) QuickAction(ctx context.Context, sessionID, value string) (string, Reply, error) {
	utterance, err := QuickActionUtterance(value)
	if err != nil {
		return "", Reply{}, err
	}
	reply, err := r.Reply(ctx, sessionID, utterance)
	return utterance, reply, err
}

// AppendAssistant adds a bot message outside the reply pipeline. The session
// must already exist.
func (r *Responder) AppendAssistant(ctx context.Context, sessionID, text string) (Message, error) {
	unlock, err := r.locks.acquire(ctx, sessionID)
	if err != nil {
		return Message{}, err
	}
	defer unlock()

	history, err := r.history.Load(ctx, sessionID)
	if err != nil {
		return Message{}, err
	}
	if len(history) == 0 {
		return Message{}, ErrUnknownSession
	}
	msg := Message{Role: RoleAssistant, Text: text, Timestamp: r.now()}
	if err := r.history.Save(ctx, sessionID, r.capStored(append(history, msg))); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (r *Responder) capStored(history []Message) []Message {
	if len(history) > r.cfg.MaxStored {
		return history[len(history)-r.cfg.MaxStored:]
	}
	return history
}

func (r *Responder) compose(ctx context.Context, history []Message, utterance string, away bool) Reply {
	if r.completer != nil {
		text, err := r.complete(ctx, history, utterance, away)
		if err == nil && strings.TrimSpace(text) != "" {
			return Reply{Text: text, Mode: ModeAI}
		}
		if err == nil {
			err = ErrEmptyCompletion
		}
		r.logger.Warn("chat completion failed, using keyword reply", "error", err)
	}
	match := r.selector.WithAway(away).Select(utterance)
	return Reply{Text: match.Reply, Mode: ModeKeyword, Topic: match.Topic}
}

func (r *Responder) complete(ctx context.Context, history []Message, utterance string, away bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if len(history) > r.cfg.MaxHistory {
		history = history[len(history)-r.cfg.MaxHistory:]
	}
	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, Turn{Role: m.Role, Content: m.Text})
	}
	system := []string{systemPrompt}
	if away {
		system = append(system, awayPrompt)
	}
	return r.completer.Complete(ctx, CompletionRequest{
		System:    system,
		History:   turns,
		Message:   utterance,
		MaxTokens: 300,
	})
}

func (r *Responder) isAway(ctx context.Context) bool {
	if r.away == nil {
		return false
	}
	away, err := r.away.IsAway(ctx)
	if err != nil {
		r.logger.Warn("away flag lookup failed", "error", err)
		return false
	}
	return away
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}
