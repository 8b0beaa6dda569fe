package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, lead *Lead) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context) ([]*Lead, error)
	Update(ctx context.Context, id string, upd Update) (*Lead, error)
	Subscribe(ctx context.Context) (<-chan Change, func(), error)
	ListCatalog(ctx context.Context) ([]CatalogEntry, error)
}

const subscriberBuffer = 64

// memorySub queues changes for one subscriber. Publishing never blocks the
// writer and never drops; a pump goroutine drains the queue into ch in order.
type memorySub struct {
	ch      chan Change
	wake    chan struct{}
	stopped chan struct{}

	mu    sync.Mutex
	queue []Change
}

func newMemorySub() *memorySub {
	return &memorySub{
		ch:      make(chan Change, subscriberBuffer),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

func (s *memorySub) push(change Change) {
	s.mu.Lock()
	s.queue = append(s.queue, change)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *memorySub) pump() {
	defer close(s.ch)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.stopped:
				return
			}
		}
		next := s.queue[0]
		s.queue[0] = Change{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.ch <- next:
		case <-s.stopped:
			return
		}
	}
}

// InMemoryRepository keeps leads in process and pushes changes to subscribers.
type InMemoryRepository struct {
	mu       sync.RWMutex
	leads    map[string]*Lead
	seq      map[string]int
	next     int
	catalog  []CatalogEntry
	subs     map[int]*memorySub
	nextSub  int
	now      func() time.Time
	failNext error
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads:   make(map[string]*Lead),
		seq:     make(map[string]int),
		catalog: DefaultCatalog(),
		subs:    make(map[int]*memorySub),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetCatalog replaces the service catalog.
func (r *InMemoryRepository) SetCatalog(entries []CatalogEntry) {
	r.mu.Lock()
	r.catalog = append([]CatalogEntry(nil), entries...)
	r.mu.Unlock()
}

// FailNext makes the next write return err. Used by tests and local demos.
func (r *InMemoryRepository) FailNext(err error) {
	r.mu.Lock()
	r.failNext = err
	r.mu.Unlock()
}

// Create stores a copy of the lead with a fresh id and timestamps.
func (r *InMemoryRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	r.mu.Lock()
	if err := r.takeFailure(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	stored := *lead
	stored.ID = uuid.New().String()
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt
	if stored.Status == "" {
		stored.Status = StatusNew
	}
	r.leads[stored.ID] = &stored
	r.seq[stored.ID] = r.next
	r.next++
	out := stored
	r.publishLocked(Change{Type: ChangeInsert, Lead: &out})
	r.mu.Unlock()

	result := stored
	return &result, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	out := *lead
	return &out, nil
}

// List returns every lead, newest first.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		l := *lead
		out = append(out, &l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.seq[out[i].ID] > r.seq[out[j].ID]
	})
	return out, nil
}

// Update sets status and notes on exactly one lead.
func (r *InMemoryRepository) Update(ctx context.Context, id string, upd Update) (*Lead, error) {
	if !upd.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	lead.Status = upd.Status
	lead.Notes = upd.Notes
	lead.UpdatedAt = r.now()

	out := *lead
	r.publishLocked(Change{Type: ChangeUpdate, Lead: &out})
	result := *lead
	return &result, nil
}

// Subscribe registers for insert/update pushes until the returned func is
// called or ctx ends. Changes queued when the subscription stops are
// discarded.
func (r *InMemoryRepository) Subscribe(ctx context.Context) (<-chan Change, func(), error) {
	sub := newMemorySub()

	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = sub
	r.mu.Unlock()

	go sub.pump()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
			close(sub.stopped)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-sub.stopped:
		}
	}()
	return sub.ch, cancel, nil
}

// ListCatalog returns the configured service catalog.
func (r *InMemoryRepository) ListCatalog(ctx context.Context) ([]CatalogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]CatalogEntry(nil), r.catalog...), nil
}

func (r *InMemoryRepository) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *InMemoryRepository) publishLocked(change Change) {
	for _, sub := range r.subs {
		sub.push(change)
	}
}
