package sse

import (
	"context"
	"time"

	"github.com/GTDGit/wawi_bi/internal/models"
)

// HubNotifier publishes finished run reports to the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// PublishReport broadcasts report to connected clients. It never fails.
func (n *HubNotifier) PublishReport(_ context.Context, report *models.SyncReport) error {
	if n.hub.ClientCount() == 0 {
		return nil
	}
	n.hub.Broadcast(reportToEvent(report))
	return nil
}

func reportToEvent(report *models.SyncReport) *RunEvent {
	event := EventSyncCompleted
	if !report.Success {
		event = EventSyncFailed
	}
	return &RunEvent{
		Event:     event,
		Report:    report,
		Timestamp: time.Now(),
	}
}
