package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{FromEmail: "leads@example.com"}, nil)
	assert.Nil(t, sender)
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "leads@example.com"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "Florida Pro Leads", sender.fromName)
}

func TestNewSendGridSender_CustomFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "leads@example.com",
		FromName:  "Powerhouse",
	}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "Powerhouse", sender.fromName)
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}
	err := sender.Send(context.Background(), EmailMessage{To: "owner@example.com", Subject: "Test", Body: "body"})
	assert.Error(t, err)
}

func TestStubEmailSender_RecordsMessages(t *testing.T) {
	sender := NewStubEmailSender(nil)

	require.NoError(t, sender.Send(context.Background(), EmailMessage{To: "owner@example.com", Subject: "One"}))
	require.NoError(t, sender.Send(context.Background(), EmailMessage{To: "owner@example.com", Subject: "Two"}))

	sent := sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "One", sent[0].Subject)
	assert.Equal(t, "Two", sent[1].Subject)
}

func TestSendGridSender_BuildMessage(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "leads@example.com"}, nil)
	require.NotNil(t, sender)

	message := sender.buildMessage(EmailMessage{
		To:          "owner@example.com",
		ReplyTo:     "maria@example.com",
		ReplyToName: "Maria Lopez",
		Subject:     "New lead",
		Body:        "plain",
		Category:    LeadAlertCategory,
	})

	assert.Equal(t, "leads@example.com", message.From.Address)
	assert.Equal(t, "Florida Pro Leads", message.From.Name)
	require.NotNil(t, message.ReplyTo)
	assert.Equal(t, "maria@example.com", message.ReplyTo.Address)
	assert.Equal(t, []string{"new-lead"}, message.Categories)
	require.Len(t, message.Content, 2)
	assert.Equal(t, "plain", message.Content[1].Value, "html part falls back to the text body")
}
