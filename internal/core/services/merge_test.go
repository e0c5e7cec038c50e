package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/iocsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/iocsync/internal/core/domain"
)

// --- Store wrappers for merge testing ---

// mergeFailingStore fails writes for one value.
type mergeFailingStore struct {
	*memory.IndicatorStore
	failValue string
}

var errMergeStoreDown = errors.New("store unavailable")

func (s *mergeFailingStore) Create(ctx context.Context, ind *domain.Indicator) error {
	if ind.Value == s.failValue {
		return errMergeStoreDown
	}
	return s.IndicatorStore.Create(ctx, ind)
}

func (s *mergeFailingStore) Save(ctx context.Context, ind *domain.Indicator) error {
	if ind.Value == s.failValue {
		return errMergeStoreDown
	}
	return s.IndicatorStore.Save(ctx, ind)
}

// mergeRaceStore hides an existing indicator from the first Find, as if
// it had been created between Find and Create.
type mergeRaceStore struct {
	*memory.IndicatorStore
	hidden bool
}

func (s *mergeRaceStore) Find(ctx context.Context, t domain.IndicatorType, v string) (*domain.Indicator, error) {
	if !s.hidden {
		s.hidden = true
		return nil, domain.ErrNotFound
	}
	return s.IndicatorStore.Find(ctx, t, v)
}

func day(month time.Month, d int) *time.Time {
	t := time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func conf(v int) *int { return &v }

// --- Tests ---

func TestMerger_ExistingIndicatorScenario(t *testing.T) {
	store := memory.NewIndicatorStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &domain.Indicator{
		Type:       domain.TypeDomain,
		Value:      "evil.example",
		FirstSeen:  day(time.January, 1),
		LastSeen:   day(time.January, 10),
		Confidence: conf(50),
		Labels:     []string{"a"},
		Sources:    []string{"x"},
	}))

	res, err := NewMerger(store).Merge(ctx, []domain.Indicator{{
		Type:       domain.TypeDomain,
		Value:      "evil.example",
		FirstSeen:  day(time.January, 5),
		LastSeen:   day(time.February, 1),
		Confidence: conf(70),
		Labels:     []string{"b"},
		Sources:    []string{"y"},
	}}, "y")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Updated)

	got, err := store.Find(ctx, domain.TypeDomain, "evil.example")
	require.NoError(t, err)
	assert.True(t, got.FirstSeen.Equal(*day(time.January, 1)))
	assert.True(t, got.LastSeen.Equal(*day(time.February, 1)))
	assert.Equal(t, 70, *got.Confidence)
	assert.Equal(t, []string{"a", "b"}, got.Labels)
	assert.Equal(t, []string{"x", "y"}, got.Sources)
}

func TestMerger_CreateSetsCurrentSource(t *testing.T) {
	store := memory.NewIndicatorStore()
	ctx := context.Background()

	res, err := NewMerger(store).Merge(ctx, []domain.Indicator{
		{Type: domain.TypeIPv4, Value: "198.51.100.1", Sources: []string{"stale"}},
	}, "threatfox")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	got, err := store.Find(ctx, domain.TypeIPv4, "198.51.100.1")
	require.NoError(t, err)
	assert.Equal(t, []string{"threatfox"}, got.Sources)
	assert.NotEmpty(t, got.ID)
}

func TestMerger_Idempotent(t *testing.T) {
	store := memory.NewIndicatorStore()
	merger := NewMerger(store)
	ctx := context.Background()

	batch := []domain.Indicator{
		{Type: domain.TypeDomain, Value: "a.example", LastSeen: day(time.March, 1), Labels: []string{"c2"}},
		{Type: domain.TypeMD5, Value: "d41d8cd98f00b204e9800998ecf8427e", Confidence: conf(90)},
		{Type: domain.TypeURL, Value: "http://a.example/X"},
	}

	first, err := merger.Merge(ctx, batch, "otx")
	require.NoError(t, err)
	assert.Equal(t, 3, first.Created)

	before, err := store.List(ctx, domain.IndicatorFilter{})
	require.NoError(t, err)

	second, err := merger.Merge(ctx, batch, "otx")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 3, second.Unchanged)

	after, err := store.List(ctx, domain.IndicatorFilter{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMerger_Monotonic(t *testing.T) {
	store := memory.NewIndicatorStore()
	merger := NewMerger(store)
	ctx := context.Background()

	_, err := merger.Merge(ctx, []domain.Indicator{{
		Type:       domain.TypeDomain,
		Value:      "m.example",
		FirstSeen:  day(time.January, 2),
		LastSeen:   day(time.June, 1),
		Confidence: conf(80),
		Labels:     []string{"apt", "c2"},
	}}, "otx")
	require.NoError(t, err)

	// Older, less confident, fewer labels: nothing may regress.
	res, err := merger.Merge(ctx, []domain.Indicator{{
		Type:       domain.TypeDomain,
		Value:      "m.example",
		FirstSeen:  day(time.March, 1),
		LastSeen:   day(time.April, 1),
		Confidence: conf(10),
		Labels:     []string{"c2"},
	}}, "otx")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Unchanged)

	// No timestamps or confidence at all.
	_, err = merger.Merge(ctx, []domain.Indicator{{Type: domain.TypeDomain, Value: "m.example"}}, "stix")
	require.NoError(t, err)

	got, err := store.Find(ctx, domain.TypeDomain, "m.example")
	require.NoError(t, err)
	assert.True(t, got.FirstSeen.Equal(*day(time.January, 2)))
	assert.True(t, got.LastSeen.Equal(*day(time.June, 1)))
	assert.Equal(t, 80, *got.Confidence)
	assert.Equal(t, []string{"apt", "c2"}, got.Labels)
	assert.Equal(t, []string{"otx", "stix"}, got.Sources)
}

func TestMerger_StoreErrorAbortsOnlyThatRecord(t *testing.T) {
	store := &mergeFailingStore{IndicatorStore: memory.NewIndicatorStore(), failValue: "bad.example"}
	ctx := context.Background()

	res, err := NewMerger(store).Merge(ctx, []domain.Indicator{
		{Type: domain.TypeDomain, Value: "good.example"},
		{Type: domain.TypeDomain, Value: "bad.example"},
		{Type: domain.TypeDomain, Value: "also-good.example"},
	}, "otx")

	require.Error(t, err)
	assert.ErrorIs(t, err, errMergeStoreDown)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "domain:bad.example", res.Failed[0].Origin)

	_, err = store.Find(ctx, domain.TypeDomain, "also-good.example")
	assert.NoError(t, err)
}

func TestMerger_ConcurrentCreateFallsBackToMerge(t *testing.T) {
	inner := memory.NewIndicatorStore()
	ctx := context.Background()
	require.NoError(t, inner.Create(ctx, &domain.Indicator{
		Type: domain.TypeIPv4, Value: "192.0.2.9", Sources: []string{"otx"},
	}))

	res, err := NewMerger(&mergeRaceStore{IndicatorStore: inner}).Merge(ctx, []domain.Indicator{
		{Type: domain.TypeIPv4, Value: "192.0.2.9"},
	}, "threatfox")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Updated)

	got, err := inner.Find(ctx, domain.TypeIPv4, "192.0.2.9")
	require.NoError(t, err)
	assert.Equal(t, []string{"otx", "threatfox"}, got.Sources)
}

func TestMergeInto(t *testing.T) {
	tests := []struct {
		name     string
		existing domain.Indicator
		incoming domain.Indicator
		source   string
		changed  bool
		check    func(t *testing.T, got domain.Indicator)
	}{
		{
			name:     "first seen fills when absent",
			existing: domain.Indicator{},
			incoming: domain.Indicator{FirstSeen: day(time.May, 5)},
			changed:  true,
			check: func(t *testing.T, got domain.Indicator) {
				require.NotNil(t, got.FirstSeen)
				assert.True(t, got.FirstSeen.Equal(*day(time.May, 5)))
			},
		},
		{
			name:     "absent incoming keeps existing times",
			existing: domain.Indicator{FirstSeen: day(time.May, 1), LastSeen: day(time.May, 2)},
			incoming: domain.Indicator{},
			changed:  false,
		},
		{
			name:     "confidence set when absent",
			existing: domain.Indicator{},
			incoming: domain.Indicator{Confidence: conf(0)},
			changed:  true,
			check: func(t *testing.T, got domain.Indicator) {
				require.NotNil(t, got.Confidence)
				assert.Equal(t, 0, *got.Confidence)
			},
		},
		{
			name:     "equal confidence is no change",
			existing: domain.Indicator{Confidence: conf(40)},
			incoming: domain.Indicator{Confidence: conf(40)},
			changed:  false,
		},
		{
			name:     "duplicate labels ignored",
			existing: domain.Indicator{Labels: []string{"a", "b"}},
			incoming: domain.Indicator{Labels: []string{"b", "a", ""}},
			changed:  false,
		},
		{
			name:     "empty source uses incoming sources",
			existing: domain.Indicator{Sources: []string{"x"}},
			incoming: domain.Indicator{Sources: []string{"y", "x"}},
			changed:  true,
			check: func(t *testing.T, got domain.Indicator) {
				assert.Equal(t, []string{"x", "y"}, got.Sources)
			},
		},
		{
			name:     "source overrides incoming sources",
			existing: domain.Indicator{Sources: []string{"x"}},
			incoming: domain.Indicator{Sources: []string{"y"}},
			source:   "x",
			changed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := tt.existing.Clone()
			changed := MergeInto(&existing, &tt.incoming, tt.source)
			assert.Equal(t, tt.changed, changed)
			if tt.check != nil {
				tt.check(t, existing)
			}
		})
	}
}

func TestMergeInto_DoesNotAliasIncoming(t *testing.T) {
	existing := domain.Indicator{}
	incoming := domain.Indicator{LastSeen: day(time.July, 1), Confidence: conf(5)}

	require.True(t, MergeInto(&existing, &incoming, "otx"))

	*incoming.LastSeen = time.Time{}
	*incoming.Confidence = 99
	assert.True(t, existing.LastSeen.Equal(*day(time.July, 1)))
	assert.Equal(t, 5, *existing.Confidence)
}
