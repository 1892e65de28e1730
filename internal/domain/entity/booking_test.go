package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusIsTerminal(t *testing.T) {
	terminal := []BookingStatus{
		BookingStatusUserCancelled,
		BookingStatusCompleted,
		BookingStatusClosed,
	}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	nonTerminal := []BookingStatus{
		BookingStatusPending,
		BookingStatusRequestSent,
		BookingStatusWorkerViewed,
		BookingStatusWorkerAccepted,
		BookingStatusWorkerRejected,
		BookingStatusConfirmed,
	}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}

func TestBookingStatusAwaitingDecision(t *testing.T) {
	assert.True(t, BookingStatusRequestSent.AwaitingDecision())
	assert.True(t, BookingStatusWorkerViewed.AwaitingDecision())
	assert.False(t, BookingStatusWorkerAccepted.AwaitingDecision())
	assert.False(t, BookingStatusPending.AwaitingDecision())
	assert.False(t, BookingStatusUserCancelled.AwaitingDecision())
}

func TestCancellableStatusesExcludeTerminal(t *testing.T) {
	for _, s := range CancellableStatuses() {
		assert.False(t, s.IsTerminal(), "%s listed as cancellable", s)
	}
}

func TestProviderBookable(t *testing.T) {
	p := &Provider{ApprovedByAdmin: true, IsOnline: true}
	assert.True(t, p.Bookable())

	p.IsOnline = false
	assert.False(t, p.Bookable())

	p.IsOnline = true
	p.ApprovedByAdmin = false
	assert.False(t, p.Bookable())
}
