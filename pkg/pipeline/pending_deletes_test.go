package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPendingDeleteTrackerCreateOrRefresh(t *testing.T) {
	// Arrange
	tracker := newPendingDeleteTracker()
	t0 := time.Now()

	// Act
	tracker.CreateOrRefresh("/ws/a.go", t0)
	tracker.CreateOrRefresh("/ws/a.go", t0.Add(1*time.Second))

	// Assert - refresh reuses the same entry, bumping LastActivityTime
	assert.Equal(t, 1, tracker.Len())
}

func TestPendingDeleteTrackerCancel(t *testing.T) {
	// Arrange
	tracker := newPendingDeleteTracker()
	t0 := time.Now()
	tracker.CreateOrRefresh("/ws/a.go", t0)

	// Act
	tracker.Cancel("/ws/a.go")
	due := tracker.DueForVerification(t0.Add(time.Hour), 5*time.Second)

	// Assert
	assert.Len(t, due, 1)
	assert.True(t, due[0].Cancelled)
}

func TestPendingDeleteTrackerDueForVerificationRespectsQuietPeriod(t *testing.T) {
	// Arrange
	tracker := newPendingDeleteTracker()
	t0 := time.Now()
	tracker.CreateOrRefresh("/ws/a.go", t0)

	// Act
	notYetDue := tracker.DueForVerification(t0.Add(2*time.Second), 5*time.Second)
	due := tracker.DueForVerification(t0.Add(6*time.Second), 5*time.Second)

	// Assert
	assert.Empty(t, notYetDue)
	assert.Len(t, due, 1)
	assert.Equal(t, "/ws/a.go", due[0].Path)
	assert.Equal(t, 0, tracker.Len())
}

func TestPendingDeleteTrackerRefreshResetsQuietPeriod(t *testing.T) {
	// Arrange
	tracker := newPendingDeleteTracker()
	t0 := time.Now()
	tracker.CreateOrRefresh("/ws/a.go", t0)

	// Act - activity at +4s resets the clock before the 5s quiet period elapses
	tracker.CreateOrRefresh("/ws/a.go", t0.Add(4*time.Second))
	due := tracker.DueForVerification(t0.Add(6*time.Second), 5*time.Second)

	// Assert
	assert.Empty(t, due)
	assert.Equal(t, 1, tracker.Len())
}
