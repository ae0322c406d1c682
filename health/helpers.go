package health

import (
	"fmt"
	"strings"
	"time"
)

func newStatus(component, level, message string) Status {
	return Status{
		Component: component,
		Healthy:   level == StatusHealthy,
		Status:    level,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy returns a healthy status stamped now.
func NewHealthy(component, message string) Status {
	return newStatus(component, StatusHealthy, message)
}

// NewUnhealthy returns an unhealthy status stamped now.
func NewUnhealthy(component, message string) Status {
	return newStatus(component, StatusUnhealthy, message)
}

// NewDegraded returns a degraded status stamped now. Degraded is not
// Healthy but still serves.
func NewDegraded(component, message string) Status {
	return newStatus(component, StatusDegraded, message)
}

// Aggregate rolls sub-statuses up to the worst of them. The message names
// the components at that level, e.g. "unhealthy: nats, tickport".
func Aggregate(component string, subStatuses []Status) Status {
	var unhealthy, degraded []string
	for _, sub := range subStatuses {
		switch {
		case sub.IsUnhealthy():
			unhealthy = append(unhealthy, sub.Component)
		case sub.IsDegraded():
			degraded = append(degraded, sub.Component)
		}
	}

	var status Status
	switch {
	case len(unhealthy) > 0:
		status = NewUnhealthy(component, fmt.Sprintf("%s: %s", StatusUnhealthy, strings.Join(unhealthy, ", ")))
	case len(degraded) > 0:
		status = NewDegraded(component, fmt.Sprintf("%s: %s", StatusDegraded, strings.Join(degraded, ", ")))
	default:
		status = NewHealthy(component, fmt.Sprintf("%d components healthy", len(subStatuses)))
	}

	if len(subStatuses) > 0 {
		status.SubStatuses = append([]Status(nil), subStatuses...)
	}
	return status
}
