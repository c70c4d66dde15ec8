package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	require.Equal(t, "LockNotAcquired", StatusLockNotAcquired.String())
	require.Equal(t, "LockAcquired", StatusLockAcquired.String())
	require.Equal(t, "Unknown", Status(42).String())
}

func TestConsumerID_ComparedByValue(t *testing.T) {
	a := ConsumerID{SubscriptionID: "orders", SubscriberID: "node-1"}
	b := ConsumerID{SubscriptionID: "orders", SubscriberID: "node-1"}
	c := ConsumerID{SubscriptionID: "orders", SubscriberID: "node-2"}

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
