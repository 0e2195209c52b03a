package engine

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onceinteractive/cascade/internal/fetch"
	"github.com/onceinteractive/cascade/internal/fieldgraph"
	"github.com/onceinteractive/cascade/internal/persist"
	"github.com/onceinteractive/cascade/internal/render"
	"github.com/onceinteractive/cascade/pkg/types"
)

// stubFetcher resolves operations from canned data and counts remote calls.
type stubFetcher struct {
	calls   atomic.Int32
	resolve func(operation string, filters map[string]string) []types.Choice
}

func (s *stubFetcher) Fetch(_ context.Context, operation string, filters map[string]string) []types.Choice {
	s.calls.Add(1)
	if s.resolve == nil {
		return nil
	}
	return s.resolve(operation, filters)
}

func choices(values ...string) []types.Choice {
	out := make([]types.Choice, 0, len(values))
	for _, v := range values {
		out = append(out, types.Choice{Value: v, Text: v})
	}
	return out
}

// returnsFixture resolves the built-in operations for a small two-state world.
func returnsFixture() func(string, map[string]string) []types.Choice {
	return func(operation string, filters map[string]string) []types.Choice {
		switch operation {
		case fieldgraph.OpStores:
			if filters["state"] == "Texas" {
				return choices("Mega Mart", "Corner Shop")
			}
			return choices("City Store")
		case fieldgraph.OpBrands:
			if filters["state"] == "Texas" {
				return choices("Acme", "Globex")
			}
			return choices("Initech")
		case fieldgraph.OpManufacturedBy:
			return choices("Plant A")
		case fieldgraph.OpForms:
			if filters["brand"] == "Acme" {
				return choices("ModelX", "ModelY")
			}
			return choices("Basic")
		case fieldgraph.OpProductTypes:
			return choices("Widget")
		case fieldgraph.OpReturnReasons:
			return choices("Damaged", "Wrong Item")
		case fieldgraph.OpProductDetails:
			return choices("Widget-1")
		}
		return nil
	}
}

func newEngine(t *testing.T, fetcher fetch.Fetcher, opts ...Option) (*Engine, *render.FakeSurface) {
	t.Helper()
	surface := render.NewFakeSurface()
	e := New("form-7", fieldgraph.Default(), fetcher, surface, opts...)
	return e, surface
}

func TestRefetchShortCircuitsWithoutRemoteCall(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, surface := newEngine(t, fetcher)

	// No state selected: every dependent fetch must resolve empty locally.
	applied, err := e.Refetch(context.Background(), fieldgraph.FieldBrand, "")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Zero(t, fetcher.calls.Load())

	opts := surface.Options(fieldgraph.FieldBrand)
	require.Len(t, opts, 1)
	assert.Equal(t, types.Placeholder(), opts[0])
}

func TestRefetchIsIdempotent(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, surface := newEngine(t, fetcher)

	require.NoError(t, e.Store().Commit(fieldgraph.FieldState, "Texas"))

	for i := 0; i < 2; i++ {
		applied, err := e.Refetch(context.Background(), fieldgraph.FieldBrand, "Acme")
		require.NoError(t, err)
		assert.True(t, applied)

		st, _ := e.Store().Get(fieldgraph.FieldBrand)
		assert.Equal(t, "Acme", st.Committed)
		assert.Equal(t, types.PhasePopulated, st.Phase)

		opts := surface.Options(fieldgraph.FieldBrand)
		require.Len(t, opts, 3)
		assert.Equal(t, types.Placeholder(), opts[0])
		assert.Equal(t, "Acme", opts[1].Value)
		assert.Equal(t, "Globex", opts[2].Value)
	}
}

func TestPreservationLaw(t *testing.T) {
	t.Parallel()

	t.Run("present_value_survives", func(t *testing.T) {
		fetcher := &stubFetcher{resolve: returnsFixture()}
		e, surface := newEngine(t, fetcher)
		require.NoError(t, e.Store().Commit(fieldgraph.FieldState, "Texas"))

		_, err := e.Refetch(context.Background(), fieldgraph.FieldBrand, "Acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme", e.Store().Committed(fieldgraph.FieldBrand))
		assert.Equal(t, "Acme", surface.Value(fieldgraph.FieldBrand))
	})

	t.Run("absent_value_collapses", func(t *testing.T) {
		fetcher := &stubFetcher{resolve: returnsFixture()}
		e, surface := newEngine(t, fetcher)
		require.NoError(t, e.Store().Commit(fieldgraph.FieldState, "NY"))

		_, err := e.Refetch(context.Background(), fieldgraph.FieldBrand, "Acme")
		require.NoError(t, err)
		assert.Empty(t, e.Store().Committed(fieldgraph.FieldBrand))
		assert.Empty(t, surface.Value(fieldgraph.FieldBrand))
	})
}

func TestCascadeLawResetsBeforeAnyResponse(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, _ := newEngine(t, fetcher)

	// Seed a fully selected chain.
	for id, v := range map[types.FieldID]string{
		fieldgraph.FieldBrand:          "Acme",
		fieldgraph.FieldForm:           "ModelX",
		fieldgraph.FieldProductType:    "Widget",
		fieldgraph.FieldProductDetails: "Widget-1",
		fieldgraph.FieldReturnReason:   "Damaged",
		fieldgraph.FieldStore:          "Mega Mart",
		fieldgraph.FieldManufacturedBy: "Plant A",
	} {
		require.NoError(t, e.Store().Commit(id, v))
	}

	pendings, err := e.OnUserChange(fieldgraph.FieldState, "CA")
	require.NoError(t, err)

	// Immediately after the change, with no pending completed yet, every field in
	// the subtree under State is empty.
	for _, id := range []types.FieldID{
		fieldgraph.FieldStore, fieldgraph.FieldBrand, fieldgraph.FieldManufacturedBy,
		fieldgraph.FieldForm, fieldgraph.FieldProductType,
		fieldgraph.FieldReturnReason, fieldgraph.FieldProductDetails,
	} {
		assert.Empty(t, e.Store().Committed(id), "field %s", id)
	}
	assert.Equal(t, "CA", e.Store().Committed(fieldgraph.FieldState))

	// Only the direct children are fetched eagerly, in graph order.
	got := make([]types.FieldID, 0, len(pendings))
	for _, p := range pendings {
		got = append(got, p.Field)
		assert.Empty(t, p.Preserve, "reset descendants must carry empty preserve targets")
	}
	assert.Equal(t, []types.FieldID{fieldgraph.FieldStore, fieldgraph.FieldBrand, fieldgraph.FieldManufacturedBy}, got)
}

func TestStalenessLaw(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, surface := newEngine(t, fetcher)

	caPendings, err := e.OnUserChange(fieldgraph.FieldState, "CA")
	require.NoError(t, err)

	// The user changes their mind before the CA responses arrive.
	nyPendings, err := e.OnUserChange(fieldgraph.FieldState, "NY")
	require.NoError(t, err)

	ctx := context.Background()

	// The slow CA responses arrive after the NY change: all dropped.
	for _, p := range caPendings {
		assert.False(t, e.Complete(p, e.Resolve(ctx, p)), "stale %s response must be dropped", p.Field)
	}

	for _, p := range nyPendings {
		assert.True(t, e.Complete(p, e.Resolve(ctx, p)))
	}

	// The eventual Brand choice list reflects NY only.
	opts := surface.Options(fieldgraph.FieldBrand)
	require.Len(t, opts, 2)
	assert.Equal(t, "Initech", opts[1].Value)
}

func TestCompleteDropsWhenFieldWasReset(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, _ := newEngine(t, fetcher)

	require.NoError(t, e.Store().Commit(fieldgraph.FieldState, "Texas"))
	require.NoError(t, e.Store().Commit(fieldgraph.FieldBrand, "Acme"))

	p, err := e.Begin(fieldgraph.FieldForm, "")
	require.NoError(t, err)
	choices := e.Resolve(context.Background(), p)

	// An upstream edit lands while the Form response is in flight. The Form
	// filter tuple (brand, state) no longer matches.
	_, err = e.OnUserChange(fieldgraph.FieldBrand, "Globex")
	require.NoError(t, err)

	assert.False(t, e.Complete(p, choices))
}

func TestNotificationOnlyWhenNotPreserving(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, surface := newEngine(t, fetcher)
	require.NoError(t, e.Store().Commit(fieldgraph.FieldState, "Texas"))

	// Preserving a restored value: the host must not hear a change, or it
	// would re-trigger this same cascade.
	_, err := e.Refetch(context.Background(), fieldgraph.FieldBrand, "Acme")
	require.NoError(t, err)
	assert.Zero(t, surface.Notifications(fieldgraph.FieldBrand))

	// Reset-to-empty: the host is told.
	_, err = e.Refetch(context.Background(), fieldgraph.FieldBrand, "")
	require.NoError(t, err)
	assert.Equal(t, 1, surface.Notifications(fieldgraph.FieldBrand))
}

func TestUserChangeNotifiesResetDescendants(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, surface := newEngine(t, fetcher)

	require.NoError(t, e.Store().Commit(fieldgraph.FieldState, "Texas"))
	require.NoError(t, e.Store().Commit(fieldgraph.FieldBrand, "Acme"))
	require.NoError(t, e.Store().Commit(fieldgraph.FieldForm, "ModelX"))
	require.NoError(t, e.Store().Commit(fieldgraph.FieldProductType, "Widget"))

	_, err := e.OnUserChange(fieldgraph.FieldBrand, "Globex")
	require.NoError(t, err)

	// Form is refetched (notification comes with its completion); the deeper
	// fields that lost values are reset and notified immediately.
	assert.Equal(t, 1, surface.Notifications(fieldgraph.FieldForm)+surface.Notifications(fieldgraph.FieldProductType))
	assert.Equal(t, 1, surface.Notifications(fieldgraph.FieldProductType))
	// ReturnReason and ProductDetails had no value: reset silently.
	assert.Zero(t, surface.Notifications(fieldgraph.FieldReturnReason))
	assert.Zero(t, surface.Notifications(fieldgraph.FieldProductDetails))
}

func TestReplayTraversesOnlySurvivingSubtrees(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, surface := newEngine(t, fetcher)

	snapshot := types.Selections{
		fieldgraph.FieldState: "Texas",
		fieldgraph.FieldBrand: "Acme",
		fieldgraph.FieldForm:  "ModelX",
		// ProductType was never selected; its subtree must stay dormant.
	}
	require.NoError(t, e.Replay(context.Background(), snapshot))

	assert.Equal(t, "Acme", surface.Value(fieldgraph.FieldBrand))
	assert.Equal(t, "ModelX", surface.Value(fieldgraph.FieldForm))
	assert.Equal(t, "ModelX", e.Store().Committed(fieldgraph.FieldForm))

	// ProductType was fetched (its parent survived) but committed empty.
	assert.Empty(t, e.Store().Committed(fieldgraph.FieldProductType))
	// ProductDetails was never fetched: its parent reconciled to empty.
	opts := surface.Options(fieldgraph.FieldProductDetails)
	assert.LessOrEqual(t, len(opts), 1)
}

func TestReplayWithEmptyRootIsANoOp(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, _ := newEngine(t, fetcher)

	require.NoError(t, e.Replay(context.Background(), types.Selections{
		fieldgraph.FieldBrand: "Acme",
	}))
	assert.Zero(t, fetcher.calls.Load())
}

func TestReplayPreserveAbsentFromChoices(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, surface := newEngine(t, fetcher)

	// The persisted brand no longer exists for this state.
	require.NoError(t, e.Replay(context.Background(), types.Selections{
		fieldgraph.FieldState: "NY",
		fieldgraph.FieldBrand: "Acme",
		fieldgraph.FieldForm:  "ModelX",
	}))

	assert.Empty(t, e.Store().Committed(fieldgraph.FieldBrand))
	assert.Empty(t, surface.Value(fieldgraph.FieldBrand))
	// Brand collapsed, so Form stays dormant with at most its placeholder.
	assert.Empty(t, e.Store().Committed(fieldgraph.FieldForm))
}

func TestPersistenceMirror(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	adapter := persist.NewMemory()
	surface := render.NewFakeSurface()
	e := New("form-7", fieldgraph.Default(), fetcher, surface, WithPersistence(adapter))

	_, err := e.OnUserChange(fieldgraph.FieldState, "Texas")
	require.NoError(t, err)

	stored := adapter.Load("form-7")
	assert.Equal(t, "Texas", stored[fieldgraph.FieldState])

	e.SubmissionSucceeded()
	assert.Empty(t, adapter.Load("form-7"))
}

func TestRootIsNeverRefetched(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{resolve: returnsFixture()}
	e, _ := newEngine(t, fetcher)

	_, err := e.Begin(fieldgraph.FieldState, "")
	require.Error(t, err)
}
