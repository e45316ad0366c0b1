package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTaskStatus(t *testing.T) {
	now := time.Now().UTC()
	accepter := uuid.New()

	task := Task{ID: uuid.New(), RequestedBy: uuid.New()}
	assert.Equal(t, TaskOpen, task.Status())

	task.AcceptedBy = &accepter
	task.AcceptedAt = &now
	assert.Equal(t, TaskAccepted, task.Status())

	task.CompletedAt = &now
	assert.Equal(t, TaskCompleted, task.Status())

	task.ApprovedAt = &now
	assert.Equal(t, TaskApproved, task.Status())

	// Rejection clears completed_at and the task reads as accepted again.
	task.ApprovedAt = nil
	task.CompletedAt = nil
	assert.Equal(t, TaskAccepted, task.Status())
}

func TestTaskParties(t *testing.T) {
	requester := uuid.New()
	accepter := uuid.New()
	now := time.Now().UTC()

	task := Task{ID: uuid.New(), RequestedBy: requester}
	assert.True(t, task.IsRequester(UserViewer(requester)))
	assert.False(t, task.IsAccepter(UserViewer(requester)))
	assert.False(t, task.IsParty(UserViewer(accepter)))
	assert.False(t, task.IsParty(AnonymousViewer()))

	task.AcceptedBy = &accepter
	task.AcceptedAt = &now
	assert.True(t, task.IsAccepter(UserViewer(accepter)))
	assert.True(t, task.IsParty(UserViewer(accepter)))
	assert.True(t, task.IsParty(UserViewer(requester)))
	assert.False(t, task.IsParty(UserViewer(uuid.New())))
}

func TestTaskUpdateApply(t *testing.T) {
	task := Task{
		Summary:        "Old summary",
		Detail:         "Old detail",
		RewardAmount:   50,
		RewardCurrency: "USD",
		DueBy:          time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	summary := "New summary"
	TaskUpdate{Summary: &summary}.Apply(&task)

	assert.Equal(t, "New summary", task.Summary)
	assert.Equal(t, "Old detail", task.Detail)
	assert.Equal(t, 50.0, task.RewardAmount)
	assert.Equal(t, "USD", task.RewardCurrency)

	amount := 75.0
	currency := "ETH"
	TaskUpdate{RewardAmount: &amount, RewardCurrency: &currency}.Apply(&task)

	assert.Equal(t, "New summary", task.Summary)
	assert.Equal(t, 75.0, task.RewardAmount)
	assert.Equal(t, "ETH", task.RewardCurrency)
}

func TestAcceptedCurrencies(t *testing.T) {
	assert.True(t, IsAcceptedCurrency("USD"))
	assert.True(t, IsAcceptedCurrency("CAD"))
	assert.True(t, IsAcceptedCurrency("BTC"))
	assert.True(t, IsAcceptedCurrency("USDT"))
	assert.False(t, IsAcceptedCurrency("GBP"))
	assert.False(t, IsAcceptedCurrency("usd"))
	assert.False(t, IsAcceptedCurrency(""))
}

func TestViewerIs(t *testing.T) {
	id := uuid.New()
	assert.True(t, UserViewer(id).Is(id))
	assert.False(t, UserViewer(uuid.New()).Is(id))
	assert.False(t, AnonymousViewer().Is(id))
	assert.False(t, Viewer{UserID: id, Anonymous: true}.Is(id))
}
