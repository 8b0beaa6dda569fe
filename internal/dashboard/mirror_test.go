package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wolfman30/contractor-leads/internal/leads"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedRepo serves a fixed list and a test-controlled change stream.
type scriptedRepo struct {
	leads.Repository

	mu      sync.Mutex
	list    []*leads.Lead
	listErr error
	onList  func()
	changes chan leads.Change
	closed  bool
}

func newScriptedRepo(list ...*leads.Lead) *scriptedRepo {
	return &scriptedRepo{
		Repository: leads.NewInMemoryRepository(),
		list:       list,
		changes:    make(chan leads.Change, 8),
	}
}

func (r *scriptedRepo) List(context.Context) ([]*leads.Lead, error) {
	if r.onList != nil {
		r.onList()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]*leads.Lead(nil), r.list...), nil
}

func (r *scriptedRepo) Subscribe(context.Context) (<-chan leads.Change, func(), error) {
	return r.changes, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.closed {
			r.closed = true
			close(r.changes)
		}
	}, nil
}

var baseTime = time.Date(2025, 7, 4, 9, 0, 0, 0, time.UTC)

func lead(id, name string, minutes int) *leads.Lead {
	return &leads.Lead{
		ID:            id,
		FullName:      name,
		Email:         id + "@example.com",
		Phone:         "305-555-0" + id,
		ServiceNeeded: "Roofing",
		Status:        leads.StatusNew,
		LeadValue:     450,
		CreatedAt:     baseTime.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(list []*leads.Lead) []string {
	out := make([]string, 0, len(list))
	for _, l := range list {
		out = append(out, l.ID)
	}
	return out
}

func TestMirrorStartKeepsInsertArrivingDuringLoad(t *testing.T) {
	repo := newScriptedRepo(lead("101", "Old", 0))
	repo.onList = func() {
		repo.changes <- leads.Change{Type: leads.ChangeInsert, Lead: lead("102", "Fresh", 5)}
	}
	m := NewMirror(repo, nil)

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	require.Eventually(t, func() bool { return len(m.Leads()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"102", "101"}, ids(m.Leads()))
}

func TestMirrorInsertAlreadyLoadedIsNotDuplicated(t *testing.T) {
	fresh := lead("102", "Fresh", 5)
	repo := newScriptedRepo(fresh, lead("101", "Old", 0))
	m := NewMirror(repo, nil)
	listener, stop := m.Listen()
	defer stop()
	repo.changes <- leads.Change{Type: leads.ChangeInsert, Lead: fresh}

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	select {
	case ev := <-listener:
		assert.Equal(t, leads.ChangeInsert, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected insert event")
	}
	assert.Equal(t, []string{"102", "101"}, ids(m.Leads()))
}

func TestMirrorApplyInsertPrependsAndNotifies(t *testing.T) {
	m := NewMirror(newScriptedRepo(), nil)
	m.leads = []*leads.Lead{lead("101", "Old", 0)}
	events, stop := m.Listen()
	defer stop()

	m.Apply(leads.Change{Type: leads.ChangeInsert, Lead: lead("102", "Maria Lopez", 5)})

	assert.Equal(t, []string{"102", "101"}, ids(m.Leads()))
	ev := <-events
	require.NotNil(t, ev.Notification)
	assert.Equal(t, "🎯 New Lead!", ev.Notification.Title)
	assert.Equal(t, "Maria Lopez - Roofing", ev.Notification.Description)
}

func TestMirrorApplyInsertTwiceKeepsOneEntry(t *testing.T) {
	m := NewMirror(newScriptedRepo(), nil)
	l := lead("102", "Fresh", 5)

	m.Apply(leads.Change{Type: leads.ChangeInsert, Lead: l})
	m.Apply(leads.Change{Type: leads.ChangeInsert, Lead: l})

	assert.Equal(t, []string{"102"}, ids(m.Leads()))
}

func TestMirrorApplyUpdateReplacesInPlace(t *testing.T) {
	m := NewMirror(newScriptedRepo(), nil)
	m.leads = []*leads.Lead{lead("103", "C", 10), lead("102", "B", 5), lead("101", "A", 0)}
	events, stop := m.Listen()
	defer stop()

	updated := lead("102", "B", 5)
	updated.Status = leads.StatusQualified
	updated.Notes = "wants quote Friday"
	m.Apply(leads.Change{Type: leads.ChangeUpdate, Lead: updated})

	assert.Equal(t, []string{"103", "102", "101"}, ids(m.Leads()))
	got, ok := m.Get("102")
	require.True(t, ok)
	assert.Equal(t, leads.StatusQualified, got.Status)
	assert.Equal(t, "wants quote Friday", got.Notes)

	ev := <-events
	assert.Equal(t, leads.ChangeUpdate, ev.Type)
	assert.Nil(t, ev.Notification)
}

func TestMirrorApplyUpdateForUnknownLeadIsIgnored(t *testing.T) {
	m := NewMirror(newScriptedRepo(), nil)
	m.leads = []*leads.Lead{lead("101", "A", 0)}

	m.Apply(leads.Change{Type: leads.ChangeUpdate, Lead: lead("999", "Ghost", 1)})
	m.Apply(leads.Change{Type: leads.ChangeInsert})

	assert.Equal(t, []string{"101"}, ids(m.Leads()))
}

func TestMirrorRefreshKeepsInsertPushedDuringFetch(t *testing.T) {
	repo := newScriptedRepo(lead("101", "Old", 0))
	m := NewMirror(repo, nil)
	require.NoError(t, m.Refresh(context.Background()))

	fetching := make(chan struct{})
	release := make(chan struct{})
	repo.onList = func() {
		close(fetching)
		<-release
	}
	repo.mu.Lock()
	stale := lead("101", "Old", 0)
	stale.Status = leads.StatusContacted
	repo.list = []*leads.Lead{stale}
	repo.mu.Unlock()

	refreshed := make(chan error, 1)
	go func() { refreshed <- m.Refresh(context.Background()) }()

	<-fetching
	m.Apply(leads.Change{Type: leads.ChangeInsert, Lead: lead("late", "Late Arrival", 30)})
	close(release)
	require.NoError(t, <-refreshed)

	assert.Equal(t, []string{"late", "101"}, ids(m.Leads()))
	got, ok := m.Get("101")
	require.True(t, ok)
	assert.Equal(t, leads.StatusContacted, got.Status, "fetched row wins")
}

func TestMirrorSnapshotIsCopy(t *testing.T) {
	m := NewMirror(newScriptedRepo(), nil)
	m.leads = []*leads.Lead{lead("101", "A", 0)}

	snap := m.Leads()
	snap[0].FullName = "mutated"

	got, _ := m.Get("101")
	assert.Equal(t, "A", got.FullName)
}

func TestMirrorStartErrors(t *testing.T) {
	repo := newScriptedRepo()
	repo.listErr = errors.New("db down")
	m := NewMirror(repo, nil)

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial load")

	repo2 := newScriptedRepo()
	m2 := NewMirror(repo2, nil)
	require.NoError(t, m2.Start(context.Background()))
	assert.ErrorIs(t, m2.Start(context.Background()), ErrAlreadyStarted)
	m2.Stop()
	m2.Stop()
}

func TestMirrorFollowsInMemoryRepository(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMirror(repo, nil)
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	created, err := repo.Create(ctx, lead("", "Live", 0))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(m.Leads()) == 1 }, time.Second, 5*time.Millisecond)

	_, err = repo.Update(ctx, created.ID, leads.Update{Status: leads.StatusContacted, Notes: "left voicemail"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got, ok := m.Get(created.ID)
		return ok && got.Status == leads.StatusContacted
	}, time.Second, 5*time.Millisecond)
}

func TestFilter(t *testing.T) {
	list := []*leads.Lead{
		{ID: "1", FullName: "Maria Lopez", Email: "maria@example.com", Phone: "305-555-0101", ServiceNeeded: "Roofing"},
		{ID: "2", FullName: "Tom Hale", Email: "tom@hale.net", Phone: "(786) 555-0199", ServiceNeeded: "AC/HVAC"},
		{ID: "3", FullName: "Ana Ruiz", Email: "ana@example.com", Phone: "954-555-0123", ServiceNeeded: "Pool Service"},
	}

	tests := []struct {
		term string
		want []string
	}{
		{term: "", want: []string{"1", "2", "3"}},
		{term: "MARIA", want: []string{"1"}},
		{term: "hvac", want: []string{"2"}},
		{term: "example.com", want: []string{"1", "3"}},
		{term: "(786)", want: []string{"2"}},
		{term: "555-01", want: []string{"1", "2", "3"}},
		{term: "solar", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(list, tt.term)))
		})
	}
}
