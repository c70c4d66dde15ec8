package ccoord

import "github.com/google/uuid"

// NewSubscriberID returns a random, globally unique subscriber id.
//
// Subscriber ids must be unique per consumer instance within a subscription;
// a process that registers the same subscriber id as a peer would be treated
// as the same consumer by the lease store. Generate one id per instance at
// startup and reuse it for all registrations of that instance.
func NewSubscriberID() string {
	return uuid.NewString()
}
