package ccoord

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewSubscriberID(t *testing.T) {
	id := NewSubscriberID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	require.NotEqual(t, id, NewSubscriberID())
}
