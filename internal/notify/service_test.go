package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/contractor-leads/internal/leads"
)

type failingSender struct {
	mu   sync.Mutex
	fail map[string]bool
	to   []string
}

func (f *failingSender) Send(_ context.Context, msg EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, msg.To)
	if f.fail[msg.To] {
		return errors.New("smtp down")
	}
	return nil
}

func sampleLead() *leads.Lead {
	return &leads.Lead{
		ID:                 "lead-1",
		FullName:           "Ana <Ruiz>",
		Phone:              "305-555-0100",
		Email:              "ana@example.com",
		ServiceNeeded:      "Roofing",
		ProjectDescription: "Shingles missing after storm",
		UrgencyLevel:       leads.UrgencyEmergency,
		Timeline:           "Emergency",
		LeadValue:          810,
		Source:             "form",
	}
}

func TestNewLeadMessage(t *testing.T) {
	msg := NewLeadMessage(sampleLead())

	assert.Equal(t, "🚨 🎯 New Lead - Roofing (Ana <Ruiz>)", msg.Subject)
	assert.Contains(t, msg.Body, "Value: $810\n")
	assert.Contains(t, msg.Body, "Urgency: emergency\n")
	assert.NotContains(t, msg.Body, "Address:")
	assert.Contains(t, msg.HTML, "Ana &lt;Ruiz&gt;")
	assert.Empty(t, msg.To)
	assert.Equal(t, sampleLead().Email, msg.ReplyTo)
	assert.Equal(t, LeadAlertCategory, msg.Category)
}

func TestNotifyNewLead_SendsToEveryRecipient(t *testing.T) {
	stub := NewStubEmailSender(nil)
	svc := NewService(stub, []string{"owner@example.com", " ", "manager@example.com"}, nil)

	require.NoError(t, svc.NotifyNewLead(context.Background(), sampleLead()))

	sent := stub.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "owner@example.com", sent[0].To)
	assert.Equal(t, "manager@example.com", sent[1].To)
}

func TestNotifyNewLead_JoinsFailures(t *testing.T) {
	sender := &failingSender{fail: map[string]bool{"owner@example.com": true}}
	svc := NewService(sender, []string{"owner@example.com", "manager@example.com"}, nil)

	err := svc.NotifyNewLead(context.Background(), sampleLead())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, []string{"owner@example.com", "manager@example.com"}, sender.to)
}

func TestNotifyNewLead_Disabled(t *testing.T) {
	assert.False(t, NewService(nil, []string{"owner@example.com"}, nil).Enabled())
	assert.False(t, NewService(NewStubEmailSender(nil), nil, nil).Enabled())

	var svc *Service
	assert.NoError(t, svc.NotifyNewLead(context.Background(), sampleLead()))
}
