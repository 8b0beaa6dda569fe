// Package dashboard keeps the manager-side view of leads in sync with the
// store and exposes editing, filtering and export over HTTP.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wolfman30/contractor-leads/internal/leads"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

const listenerBuffer = 32

// ErrAlreadyStarted is returned when Start is called on a running mirror.
var ErrAlreadyStarted = errors.New("dashboard: mirror already started")

// Notification is the toast raised for a newly inserted lead.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewLeadNotification builds the toast for a lead.
func NewLeadNotification(l *leads.Lead) Notification {
	return Notification{
		Title:       "🎯 New Lead!",
		Description: fmt.Sprintf("%s - %s", l.FullName, l.ServiceNeeded),
	}
}

// Event is fanned out to listeners for every applied change.
type Event struct {
	Type         leads.ChangeType `json:"type"`
	Lead         *leads.Lead      `json:"lead"`
	Notification *Notification    `json:"notification,omitempty"`
}

// Mirror is an ordered-by-recency copy of the lead table kept current by a
// push subscription.
type Mirror struct {
	repo   leads.Repository
	logger *logging.Logger

	mu        sync.RWMutex
	leads     []*leads.Lead
	listeners map[int]chan Event
	nextID    int

	runMu   sync.Mutex
	running bool
	unsub   func()
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewMirror(repo leads.Repository, logger *logging.Logger) *Mirror {
	if logger == nil {
		logger = logging.Default()
	}
	return &Mirror{
		repo:      repo,
		logger:    logger,
		listeners: make(map[int]chan Event),
	}
}

// Start subscribes before the initial load so an insert that lands while
// the list is being fetched is kept. Events queued during the load are
// applied afterwards and de-duplicated by id.
func (m *Mirror) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.running {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	changes, unsub, err := m.repo.Subscribe(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("dashboard: subscribe: %w", err)
	}

	loaded, err := m.repo.List(runCtx)
	if err != nil {
		unsub()
		cancel()
		return fmt.Errorf("dashboard: initial load: %w", err)
	}
	m.mu.Lock()
	m.leads = mergeByID(loaded, m.leads)
	m.mu.Unlock()

	done := make(chan struct{})
	m.running = true
	m.unsub = unsub
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		for {
			select {
			case change, ok := <-changes:
				if !ok {
					m.logger.Warn("dashboard: lead subscription closed")
					return
				}
				m.Apply(change)
			case <-runCtx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop tears down the subscription and waits for the event loop to exit.
func (m *Mirror) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if !m.running {
		return
	}
	m.cancel()
	m.unsub()
	<-m.done
	m.running = false
}

// Apply handles a single pushed change. Inserts go to the head, or replace
// an entry already present; updates replace in place.
func (m *Mirror) Apply(change leads.Change) {
	if change.Lead == nil || change.Lead.ID == "" {
		return
	}
	lead := *change.Lead

	m.mu.Lock()
	idx := m.indexLocked(lead.ID)
	var ev Event
	switch change.Type {
	case leads.ChangeInsert:
		if idx >= 0 {
			m.leads[idx] = &lead
		} else {
			m.leads = append([]*leads.Lead{&lead}, m.leads...)
		}
		n := NewLeadNotification(&lead)
		ev = Event{Type: change.Type, Lead: &lead, Notification: &n}
	case leads.ChangeUpdate:
		if idx < 0 {
			m.mu.Unlock()
			return
		}
		m.leads[idx] = &lead
		ev = Event{Type: change.Type, Lead: &lead}
	default:
		m.mu.Unlock()
		return
	}
	m.broadcastLocked(ev)
	m.mu.Unlock()
}

// Refresh re-fetches the list from the store. Fetched rows win over mirrored
// ones; anything pushed while the fetch was in flight is kept.
func (m *Mirror) Refresh(ctx context.Context) error {
	loaded, err := m.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("dashboard: refresh: %w", err)
	}
	m.mu.Lock()
	m.leads = mergeByID(loaded, m.leads)
	m.mu.Unlock()
	return nil
}

// Leads returns a snapshot of the mirrored list.
func (m *Mirror) Leads() []*leads.Lead {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*leads.Lead, len(m.leads))
	for i, l := range m.leads {
		cp := *l
		out[i] = &cp
	}
	return out
}

// Get returns the mirrored lead with id.
func (m *Mirror) Get(id string) (*leads.Lead, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.indexLocked(id)
	if idx < 0 {
		return nil, false
	}
	cp := *m.leads[idx]
	return &cp, true
}

// Filtered applies Filter to the current snapshot.
func (m *Mirror) Filtered(term string) []*leads.Lead {
	return Filter(m.Leads(), term)
}

// Listen registers a listener. Slow listeners drop events rather than block
// the event loop.
func (m *Mirror) Listen() (<-chan Event, func()) {
	ch := make(chan Event, listenerBuffer)
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			close(ch)
			m.mu.Unlock()
		})
	}
}

func (m *Mirror) broadcastLocked(ev Event) {
	for id, ch := range m.listeners {
		select {
		case ch <- ev:
		default:
			m.logger.Warn("dashboard: listener full, event dropped", "listener", id, "type", ev.Type, "lead_id", ev.Lead.ID)
		}
	}
}

func (m *Mirror) indexLocked(id string) int {
	for i, l := range m.leads {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// mergeByID unions two lists keeping the first occurrence of each id, ordered
// by created_at descending.
func mergeByID(primary, extra []*leads.Lead) []*leads.Lead {
	seen := make(map[string]bool, len(primary)+len(extra))
	out := make([]*leads.Lead, 0, len(primary)+len(extra))
	for _, list := range [][]*leads.Lead{primary, extra} {
		for _, l := range list {
			if l == nil || seen[l.ID] {
				continue
			}
			seen[l.ID] = true
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Filter keeps leads whose name, email or service contains term
// case-insensitively, or whose phone contains term verbatim.
func Filter(list []*leads.Lead, term string) []*leads.Lead {
	if term == "" {
		return list
	}
	lowered := strings.ToLower(term)
	out := make([]*leads.Lead, 0, len(list))
	for _, l := range list {
		if strings.Contains(strings.ToLower(l.FullName), lowered) ||
			strings.Contains(strings.ToLower(l.Email), lowered) ||
			strings.Contains(strings.ToLower(l.ServiceNeeded), lowered) ||
			strings.Contains(l.Phone, term) {
			out = append(out, l)
		}
	}
	return out
}
