package models

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an event is not allowed from the
// domain's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// NextStatus is the single authority for status changes. Every write path
// computes the target status here and persists it with a guard on the
// expected current status, so concurrent operations cannot race a domain
// into an unreachable state.
func NextStatus(current DomainStatus, event EventType) (DomainStatus, error) {
	switch event {
	case EventCreated:
		if current == "" {
			return DomainStatusPending, nil
		}
	case EventHostRegistered:
		switch current {
		case DomainStatusPending, DomainStatusVerifying, DomainStatusFailed:
			return DomainStatusVerifying, nil
		}
	case EventVerificationAttempt:
		// A failed ownership check always lands back on pending, never
		// on the transient verifying state.
		switch current {
		case DomainStatusPending, DomainStatusVerifying, DomainStatusFailed:
			return DomainStatusPending, nil
		}
	case EventDNSVerified:
		switch current {
		case DomainStatusPending, DomainStatusVerifying:
			return DomainStatusVerified, nil
		}
	case EventSSLProvisioning:
		switch current {
		case DomainStatusVerified, DomainStatusProvisioningSSL, DomainStatusFailed:
			return DomainStatusProvisioningSSL, nil
		}
	case EventActivated:
		// Failed is included: an SSL retry can find the certificate
		// already issued and activate in one step.
		switch current {
		case DomainStatusVerified, DomainStatusProvisioningSSL, DomainStatusFailed:
			return DomainStatusActive, nil
		}
	case EventError:
		return DomainStatusFailed, nil
	}
	return current, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, current)
}

// ReplayStatus folds an ordered event log back into a status. Replaying a
// domain's events must reconstruct its stored status; events that were not
// legal transitions when appended do not exist, so an illegal event here
// means the log was tampered with and the fold stops at the last good state.
func ReplayStatus(events []DomainEvent) DomainStatus {
	status := DomainStatus("")
	for _, ev := range events {
		next, err := NextStatus(status, ev.EventType)
		if err != nil {
			continue
		}
		status = next
	}
	return status
}
