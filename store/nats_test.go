package store

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	ccoordtest "github.com/arloliu/ccoord/testing"
)

func TestNATSStore_AcquireOrRefresh(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lease := 20 * time.Second

	t.Run("acquires free lease", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		st := NewNATSStore(ccoordtest.CreateLockBucket(t, nc, "locks-acquire-1"))

		ok, err := st.AcquireOrRefresh(ctx, "sub", "a", t0, lease)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("rejects competing subscriber while lease is live", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		st := NewNATSStore(ccoordtest.CreateLockBucket(t, nc, "locks-acquire-2"))

		ok, err := st.AcquireOrRefresh(ctx, "sub", "a", t0, lease)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = st.AcquireOrRefresh(ctx, "sub", "b", t0.Add(5*time.Second), lease)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("refreshes lease for the current owner", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		st := NewNATSStore(ccoordtest.CreateLockBucket(t, nc, "locks-acquire-3"))

		ok, err := st.AcquireOrRefresh(ctx, "sub", "a", t0, lease)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = st.AcquireOrRefresh(ctx, "sub", "a", t0.Add(10*time.Second), lease)
		require.NoError(t, err)
		require.True(t, ok)

		// Refresh moved expiry to t0+30s; b is still blocked at t0+25s.
		ok, err = st.AcquireOrRefresh(ctx, "sub", "b", t0.Add(25*time.Second), lease)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("takes over an expired lease", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		st := NewNATSStore(ccoordtest.CreateLockBucket(t, nc, "locks-acquire-4"))

		ok, err := st.AcquireOrRefresh(ctx, "sub", "a", t0, lease)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = st.AcquireOrRefresh(ctx, "sub", "b", t0.Add(21*time.Second), lease)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("rejects non-positive lease duration", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		st := NewNATSStore(ccoordtest.CreateLockBucket(t, nc, "locks-acquire-5"))

		_, err := st.AcquireOrRefresh(ctx, "sub", "a", t0, 0)
		require.ErrorIs(t, err, ErrInvalidLeaseDuration)
	})
}

func TestNATSStore_Renew(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lease := 20 * time.Second

	t.Run("owner renews", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		st := NewNATSStore(ccoordtest.CreateLockBucket(t, nc, "locks-renew-1"))

		ok, err := st.AcquireOrRefresh(ctx, "sub", "a", t0, lease)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = st.Renew(ctx, "sub", "a", t0.Add(10*time.Second), lease)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("renew of an absent lease fails", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		st := NewNATSStore(ccoordtest.CreateLockBucket(t, nc, "locks-renew-2"))

		ok, err := st.Renew(ctx, "sub", "a", t0, lease)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("renew after takeover fails for the old owner", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		st := NewNATSStore(ccoordtest.CreateLockBucket(t, nc, "locks-renew-3"))

		ok, err := st.AcquireOrRefresh(ctx, "sub", "a", t0, lease)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = st.AcquireOrRefresh(ctx, "sub", "b", t0.Add(21*time.Second), lease)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = st.Renew(ctx, "sub", "a", t0.Add(22*time.Second), lease)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestNATSStore_Remove(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("remove frees the lease for another subscriber", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		st := NewNATSStore(ccoordtest.CreateLockBucket(t, nc, "locks-remove-1"))

		ok, err := st.AcquireOrRefresh(ctx, "sub", "a", t0, 20*time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, st.Remove(ctx, "sub"))

		ok, err = st.AcquireOrRefresh(ctx, "sub", "b", t0.Add(time.Second), 20*time.Second)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("removing an absent lease is a no-op", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		st := NewNATSStore(ccoordtest.CreateLockBucket(t, nc, "locks-remove-2"))

		require.NoError(t, st.Remove(ctx, "missing"))
	})
}

func TestEnsureLockBucket(t *testing.T) {
	t.Run("creates then reopens the same bucket", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		js, err := jetstream.New(nc)
		require.NoError(t, err)

		kv1, err := EnsureLockBucket(ctx, js, "ensure-bucket", 3)
		require.NoError(t, err)
		require.NotNil(t, kv1)

		kv2, err := EnsureLockBucket(ctx, js, "ensure-bucket", 3)
		require.NoError(t, err)
		require.NotNil(t, kv2)
	})

	t.Run("defaults the bucket name", func(t *testing.T) {
		ctx := t.Context()

		_, nc := ccoordtest.StartEmbeddedNATS(t)
		js, err := jetstream.New(nc)
		require.NoError(t, err)

		kv, err := EnsureLockBucket(ctx, js, "", 0)
		require.NoError(t, err)
		require.Equal(t, DefaultBucket, kv.Bucket())
	})
}
