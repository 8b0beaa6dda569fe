package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/contractor-leads/pkg/logging"
)

type stubCompleter struct {
	mu   sync.Mutex
	text string
	err  error
	reqs []CompletionRequest
}

func (s *stubCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.text, s.err
}

func newTestResponder(c Completer, away AwaySource, maxHistory int) *Responder {
	return NewResponder(nil, c, NewMemoryHistoryStore(time.Hour), away, nil,
		ResponderConfig{MaxHistory: maxHistory, Timeout: time.Second}, logging.New("error"))
}

func TestResponderKeywordModeWithoutCompleter(t *testing.T) {
	r := newTestResponder(nil, nil, 0)
	ctx := context.Background()

	id, history, err := r.StartSession(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, GreetingReply, history[0].Text)

	reply, err := r.Reply(ctx, id, "myhvacbroke")
	require.NoError(t, err)
	assert.Equal(t, ModeKeyword, reply.Mode)
	assert.Equal(t, TopicHVAC, reply.Topic)

	stored, err := r.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, RoleUser, stored[1].Role)
	assert.Equal(t, "myhvacbroke", stored[1].Text)
	assert.Equal(t, RoleAssistant, stored[2].Role)
	assert.Equal(t, reply.Text, stored[2].Text)
}

func TestResponderUsesAIReplyVerbatim(t *testing.T) {
	c := &stubCompleter{text: "A roofer will call you shortly."}
	r := newTestResponder(c, nil, 0)
	ctx := context.Background()
	id, _, err := r.StartSession(ctx)
	require.NoError(t, err)

	reply, err := r.Reply(ctx, id, "roof leak")
	require.NoError(t, err)
	assert.Equal(t, ModeAI, reply.Mode)
	assert.Equal(t, "A roofer will call you shortly.", reply.Text)

	require.Len(t, c.reqs, 1)
	assert.Equal(t, "roof leak", c.reqs[0].Message)
	assert.Equal(t, []Turn{{Role: RoleAssistant, Content: GreetingReply}}, c.reqs[0].History)
}

func TestResponderFallsBackOnCompleterError(t *testing.T) {
	c := &stubCompleter{err: errors.New("503 from upstream")}
	r := newTestResponder(c, nil, 0)

	reply, err := r.Reply(context.Background(), "s1", "is it free?")
	require.NoError(t, err)
	assert.Equal(t, ModeKeyword, reply.Mode)
	assert.Equal(t, TopicPricing, reply.Topic)
}

func TestResponderFallsBackOnEmptyCompletion(t *testing.T) {
	r := newTestResponder(&stubCompleter{text: "   "}, nil, 0)

	reply, err := r.Reply(context.Background(), "s1", "good morning")
	require.NoError(t, err)
	assert.Equal(t, ModeKeyword, reply.Mode)
	assert.Equal(t, DefaultReply, reply.Text)
}

func TestResponderBoundsHistory(t *testing.T) {
	c := &stubCompleter{text: "ok"}
	r := newTestResponder(c, nil, 4)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := r.Reply(ctx, "s1", "message")
		require.NoError(t, err)
	}
	last := c.reqs[len(c.reqs)-1]
	assert.Len(t, last.History, 4)
}

func TestResponderAwayFlag(t *testing.T) {
	away := false
	source := AwayFunc(func(ctx context.Context) (bool, error) { return away, nil })
	r := newTestResponder(nil, source, 0)
	ctx := context.Background()

	present, err := r.Reply(ctx, "s1", "emergency")
	require.NoError(t, err)
	assert.Equal(t, EmergencyReply, present.Text)

	away = true
	gone, err := r.Reply(ctx, "s1", "emergency")
	require.NoError(t, err)
	assert.Equal(t, EmergencyAwayReply, gone.Text)

	roof, err := r.Reply(ctx, "s1", "roof")
	require.NoError(t, err)
	assert.Equal(t, NewSelector(nil).Select("roof").Reply, roof.Text)
}

func TestResponderAwayLookupErrorMeansPresent(t *testing.T) {
	source := AwayFunc(func(ctx context.Context) (bool, error) { return false, errors.New("db down") })
	r := newTestResponder(nil, source, 0)

	reply, err := r.Reply(context.Background(), "s1", "urgent")
	require.NoError(t, err)
	assert.Equal(t, EmergencyReply, reply.Text)
}

func TestResponderAwayAddsPrompt(t *testing.T) {
	c := &stubCompleter{text: "ok"}
	source := AwayFunc(func(ctx context.Context) (bool, error) { return true, nil })
	r := newTestResponder(c, source, 0)

	_, err := r.Reply(context.Background(), "s1", "help")
	require.NoError(t, err)
	assert.Contains(t, c.reqs[0].System, awayPrompt)
}

func TestResponderQuickActionUsesSamePipeline(t *testing.T) {
	r := newTestResponder(nil, nil, 0)

	utterance, reply, err := r.QuickAction(context.Background(), "s1", "plumbing")
	require.NoError(t, err)
	assert.Equal(t, "I need help with plumbing", utterance)
	assert.Equal(t, TopicPlumbing, reply.Topic)

	_, _, err = r.QuickAction(context.Background(), "s1", "nope")
	assert.ErrorIs(t, err, ErrUnknownQuickAction)
}

func TestResponderRejectsEmpty(t *testing.T) {
	r := newTestResponder(nil, nil, 0)
	_, err := r.Reply(context.Background(), "s1", "  ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

// gatedCompleter parks the first call until release is closed.
type gatedCompleter struct {
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (g *gatedCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.release
	}
	return "reply to " + req.Message, nil
}

func (g *gatedCompleter) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestResponderSerializesTurnsPerSession(t *testing.T) {
	c := &gatedCompleter{entered: make(chan struct{}), release: make(chan struct{})}
	r := newTestResponder(c, nil, 0)
	ctx := context.Background()
	id, _, err := r.StartSession(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := r.Reply(ctx, id, "first")
		assert.NoError(t, err)
	}()
	<-c.entered
	go func() {
		defer wg.Done()
		_, err := r.Reply(ctx, id, "second")
		assert.NoError(t, err)
	}()

	assert.Never(t, func() bool { return c.callCount() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	close(c.release)
	wg.Wait()

	history, err := r.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, "first", history[1].Text)
	assert.Equal(t, "second", history[3].Text)

	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	assert.Empty(t, r.locks.held)
}

func TestResponderReplyHonorsContextWhileWaiting(t *testing.T) {
	r := newTestResponder(nil, nil, 0)
	unlock, err := r.locks.acquire(context.Background(), "s1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Reply(ctx, "s1", "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResponderCapsStoredHistory(t *testing.T) {
	r := NewResponder(nil, nil, NewMemoryHistoryStore(time.Hour), nil, nil,
		ResponderConfig{MaxHistory: 2, MaxStored: 6, Timeout: time.Second}, logging.New("error"))
	ctx := context.Background()
	id, _, err := r.StartSession(ctx)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := r.Reply(ctx, id, "roof")
		require.NoError(t, err)
	}
	history, err := r.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 6)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, RoleAssistant, history[5].Role)
}

func TestResponderAppendAssistantRequiresSession(t *testing.T) {
	r := newTestResponder(nil, nil, 0)
	ctx := context.Background()

	_, err := r.AppendAssistant(ctx, "never-issued", "hello")
	assert.ErrorIs(t, err, ErrUnknownSession)
	known, err := r.Known(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, known)

	id, _, err := r.StartSession(ctx)
	require.NoError(t, err)
	known, err = r.Known(ctx, id)
	require.NoError(t, err)
	assert.True(t, known)
}
