package ecs

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

type weight struct {
	Grams int
}

func newTestStore(t *testing.T) (*Store, *Pool[label], *Pool[weight]) {
	t.Helper()
	store := NewStore()
	labels, err := Register[label](store, "label")
	require.NoError(t, err)
	weights, err := Register[weight](store, "weight")
	require.NoError(t, err)
	return store, labels, weights
}

func TestStoreRegister(t *testing.T) {
	store, labels, _ := newTestStore(t)

	_, err := Register[label](store, "label")
	require.ErrorIs(t, err, ErrComponentAlreadyRegistered)

	_, err = Register[label](store, "")
	require.ErrorIs(t, err, ErrEmptyComponentTag)

	got, err := PoolOf[label](store, "label")
	require.NoError(t, err)
	require.Same(t, labels, got)

	_, err = PoolOf[weight](store, "label")
	require.ErrorIs(t, err, ErrComponentTypeMismatch)

	_, err = PoolOf[label](store, "missing")
	require.ErrorIs(t, err, ErrComponentNotRegistered)

	require.Equal(t, []string{"label", "weight"}, store.Tags())
}

func TestStoreDestroyCascades(t *testing.T) {
	store, labels, weights := newTestStore(t)

	id := store.Create()
	other := store.Create()
	require.NoError(t, labels.Attach(id, label{Name: "x"}))
	require.NoError(t, weights.Attach(id, weight{Grams: 3}))
	require.NoError(t, labels.Attach(other, label{Name: "y"}))
	require.Equal(t, []string{"label", "weight"}, store.ComponentsOf(id))

	require.NoError(t, store.Destroy(id))
	require.False(t, labels.Has(id))
	require.False(t, weights.Has(id))
	require.True(t, labels.Has(other))
	require.Equal(t, 1, store.Len())

	require.ErrorIs(t, store.Destroy(id), ErrEntityNotFound)
	require.Equal(t, 1, store.Len(), "failed destroy must not change state")

	reused := store.Create()
	require.Equal(t, id.Index(), reused.Index())
	_, ok := labels.Get(id)
	require.False(t, ok, "stale handle must not see the recycled entity")
}

func TestStoreUntypedAccess(t *testing.T) {
	store, labels, _ := newTestStore(t)
	id := store.Create()

	require.NoError(t, store.Attach("label", id, label{Name: "z"}))
	require.ErrorIs(t, store.Attach("label", id, weight{}), ErrComponentTypeMismatch)
	require.ErrorIs(t, store.Attach("missing", id, label{}), ErrComponentNotRegistered)

	v, ok, err := store.Get("label", id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, label{Name: "z"}, v)

	_, ok, err = store.Get("weight", id)
	require.NoError(t, err)
	require.False(t, ok)

	removed, err := store.Remove("label", id)
	require.NoError(t, err)
	require.True(t, removed)
	require.Zero(t, labels.Len())

	_, err = store.Remove("missing", id)
	require.ErrorIs(t, err, ErrComponentNotRegistered)
}

func TestStoreStagingReplace(t *testing.T) {
	store, labels, weights := newTestStore(t)
	old := store.Create()
	require.NoError(t, labels.Attach(old, label{Name: "old"}))

	staging := store.NewStaging()
	require.Equal(t, 1, store.Len(), "staging must not touch the target")

	stagedLabels, err := PoolOf[label](staging, "label")
	require.NoError(t, err)
	a := staging.Create()
	b := staging.Create()
	require.NoError(t, stagedLabels.Attach(a, label{Name: "a"}))
	require.NoError(t, staging.Attach("weight", b, weight{Grams: 9}))

	require.NoError(t, store.Replace(staging))
	require.Equal(t, 2, store.Len())
	require.False(t, store.IsAlive(old))
	require.Equal(t, []EntityID{a, b}, slices.Collect(store.Live()))

	got, ok := labels.Get(a)
	require.True(t, ok, "typed pools stay valid after replace")
	require.Equal(t, "a", got.Name)
	w, ok := weights.Get(b)
	require.True(t, ok)
	require.Equal(t, 9, w.Grams)

	_, ok = labels.Get(old)
	require.False(t, ok)

	c := store.Create()
	require.NoError(t, labels.Attach(c, label{Name: "c"}))
	require.Equal(t, 2, labels.Len())
}

func TestStoreReplaceRejectsForeignStaging(t *testing.T) {
	store, _, _ := newTestStore(t)
	other, _, _ := newTestStore(t)

	require.ErrorIs(t, store.Replace(other.NewStaging()), ErrStagingMismatch)
	require.ErrorIs(t, store.Replace(nil), ErrStagingMismatch)

	staging := store.NewStaging()
	_, err := Register[int](staging, "extra")
	require.NoError(t, err)
	require.ErrorIs(t, store.Replace(staging), ErrStagingMismatch)
}

func TestStoreClear(t *testing.T) {
	store, labels, _ := newTestStore(t)
	id := store.Create()
	require.NoError(t, labels.Attach(id, label{Name: "x"}))

	store.Clear()
	require.Zero(t, store.Len())
	require.Zero(t, labels.Len())
	require.False(t, store.IsAlive(id))

	next := store.Create()
	require.NotEqual(t, id, next)
}

func TestStoreOrder(t *testing.T) {
	store, labels, weights := newTestStore(t)
	x := store.Create()
	y := store.Create()
	z := store.Create()
	bare := store.Create()

	require.NoError(t, weights.Attach(x, weight{Grams: 1}))
	require.NoError(t, labels.Attach(z, label{Name: "z"}))
	require.NoError(t, labels.Attach(y, label{Name: "y"}))
	require.NoError(t, weights.Attach(y, weight{Grams: 2}))

	require.Equal(t, []EntityID{z, y, x, bare}, store.Order())

	require.NoError(t, store.Destroy(z))
	reused := store.Create()
	require.Equal(t, z.Index(), reused.Index())
	require.NoError(t, labels.Attach(reused, label{Name: "reused"}))
	require.Equal(t, []EntityID{y, reused, x, bare}, store.Order())
}
