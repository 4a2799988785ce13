package plant

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/plantit/internal/core/ecs"
	"github.com/zeusync/plantit/internal/core/schema/registry"
	"github.com/zeusync/plantit/internal/core/snapshot"
	"github.com/zeusync/plantit/internal/core/storage"
	"github.com/zeusync/plantit/pkg/encoding"
)

func jsonRecord(t *testing.T, raw string) registry.Record {
	t.Helper()
	var rec registry.Record
	require.NoError(t, encoding.JSON{}.Unmarshal([]byte(raw), &rec))
	return rec
}

func TestDescriptorIsValid(t *testing.T) {
	d := Descriptor()
	require.NoError(t, d.Validate())
	assert.Equal(t, []int{1, 2, 3}, d.Versions())
	assert.Equal(t, []string{"watered_at"}, d.Defaults(2))
	assert.Empty(t, d.Defaults(1))
}

func TestDecodeVersions(t *testing.T) {
	t1 := time.Unix(1700000000, 0).UTC()
	t2 := time.Unix(1700086400, 0).UTC()

	tests := []struct {
		name    string
		version int
		raw     string
		want    Plant
	}{
		{
			name:    "v1 seconds",
			version: 1,
			raw:     `{"version": 1, "key": "steve", "description": "ficus", "watered_at": [1700000000, 1700086400]}`,
			want:    Plant{Key: "steve", Description: "ficus", WateredAt: []time.Time{t1, t2}},
		},
		{
			name:    "v1 nanoseconds",
			version: 1,
			raw:     `{"version": 1, "key": "steve", "description": "ficus", "watered_at": [1700000000000000000]}`,
			want:    Plant{Key: "steve", Description: "ficus", WateredAt: []time.Time{t1}},
		},
		{
			name:    "v2 has no history",
			version: 2,
			raw:     `{"version": 2, "key": "steve", "description": "ficus"}`,
			want:    Plant{Key: "steve", Description: "ficus", WateredAt: []time.Time{}},
		},
		{
			name:    "v3",
			version: 3,
			raw:     `{"version": 3, "key": "steve", "description": "ficus", "watered_at": ["2023-11-14T22:13:20Z", "2023-11-15T22:13:20Z"]}`,
			want:    Plant{Key: "steve", Description: "ficus", WateredAt: []time.Time{t1, t2}},
		},
	}

	reg := registry.New()
	require.NoError(t, reg.Register(Descriptor()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := reg.Decode(Tag, tt.version, jsonRecord(t, tt.raw))
			require.NoError(t, err)
			require.Equal(t, tt.want, v)
		})
	}
}

func TestDecodeRejectsBadRecords(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(Descriptor()))

	tests := []struct {
		name    string
		version int
		raw     string
		target  error
	}{
		{"missing key", 3, `{"description": "x", "watered_at": []}`, registry.ErrMalformedPayload},
		{"v1 string timestamps", 1, `{"key": "a", "description": "x", "watered_at": ["2023-11-14T22:13:20Z"]}`, registry.ErrMalformedPayload},
		{"v1 negative timestamp", 1, `{"key": "a", "description": "x", "watered_at": [-1]}`, registry.ErrMalformedPayload},
		{"v1 windows ticks", 1, `{"key": "a", "description": "x", "watered_at": [17000000000000000]}`, registry.ErrMalformedPayload},
		{"v1 implausible seconds", 1, `{"key": "a", "description": "x", "watered_at": [5]}`, registry.ErrMalformedPayload},
		{"v1 far future seconds", 1, `{"key": "a", "description": "x", "watered_at": [999999999999999]}`, registry.ErrMalformedPayload},
		{"v3 bad time", 3, `{"key": "a", "description": "x", "watered_at": ["yesterday"]}`, registry.ErrMalformedPayload},
		{"v3 missing history", 3, `{"key": "a", "description": "x"}`, registry.ErrMalformedPayload},
		{"future version", 4, `{"key": "a", "description": "x", "watered_at": []}`, registry.ErrUnknownSchemaVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Decode(Tag, tt.version, jsonRecord(t, tt.raw))
			require.ErrorIs(t, err, tt.target)
		})
	}
}

func TestEncodeWritesCurrentVersion(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(Descriptor()))

	at := time.Date(2023, 11, 14, 22, 13, 20, 0, time.FixedZone("X", 3600))
	rec, err := reg.Encode(Tag, Plant{Key: "steve", Description: "ficus", WateredAt: []time.Time{at}})
	require.NoError(t, err)
	require.Equal(t, 3, rec[registry.VersionField])
	require.Equal(t, []string{"2023-11-14T21:13:20Z"}, rec["watered_at"])
}

type env struct {
	reg     *registry.Registry
	store   *ecs.Store
	plants  *ecs.Pool[Plant]
	gateway *storage.Gateway
	path    string
}

func newEnv(t *testing.T, file string) *env {
	t.Helper()
	e := &env{reg: registry.New(), store: ecs.NewStore(), path: filepath.Join(t.TempDir(), file)}
	var err error
	e.plants, err = Register(e.reg, e.store)
	require.NoError(t, err)
	e.gateway = storage.NewGateway(
		snapshot.NewWriter(e.reg, snapshot.WithChecksum(true)),
		snapshot.NewReader(e.reg, snapshot.WithDecodeWorkers(4)),
		nil,
	)
	return e
}

func TestEndToEndWatering(t *testing.T) {
	for _, file := range []string{"plants.json", "plants.yaml"} {
		t.Run(file, func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t, file)

			id := e.store.Create()
			require.NoError(t, e.plants.Attach(id, Plant{Key: "steve", Description: "", WateredAt: []time.Time{}}))

			t1 := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
			t2 := t1.Add(24 * time.Hour)
			e.plants.Update(id, func(p *Plant) {
				p.WateredAt = append(p.WateredAt, t1, t2)
			})

			require.NoError(t, e.gateway.Save(ctx, e.store, e.path))
			e.store.Clear()
			require.Equal(t, 0, e.plants.Len())

			ok, err := e.gateway.LoadIfExists(ctx, e.store, e.path)
			require.NoError(t, err)
			require.True(t, ok)

			entry, found := e.plants.FindFirst(func(p Plant) bool { return p.Key == "steve" })
			require.True(t, found)
			require.Equal(t, "", entry.Value.Description)
			require.Equal(t, []time.Time{t1, t2}, entry.Value.WateredAt)
			require.False(t, e.store.IsAlive(id))
		})
	}
}

func TestMigrationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "plants.json")

	doc := &snapshot.Document{
		Format:        snapshot.FormatName,
		FormatVersion: snapshot.FormatVersion,
		Entities: []snapshot.EntityRecord{
			{ID: 1, Components: map[string]registry.Record{
				Tag: {"version": 1, "key": "steve", "description": "ficus", "watered_at": []any{1700000000, 1700086400}},
			}},
			{ID: 2, Components: map[string]registry.Record{
				Tag: {"version": 2, "key": "bob", "description": "cactus"},
			}},
		},
	}
	stats, err := snapshot.NewReader(e.reg).Read(ctx, doc, e.store)
	require.NoError(t, err)
	require.Equal(t, map[string]map[int]int{Tag: {1: 1, 2: 1}}, stats.Migrated)

	require.NoError(t, e.gateway.Save(ctx, e.store, e.path))
	first, err := e.gateway.Load(ctx, e.store, e.path)
	require.NoError(t, err)
	require.Zero(t, first.MigratedTotal())
	require.Equal(t, 2, first.Components)

	svc := NewService(e.store, e.plants, e.gateway, e.path)
	bob, err := svc.Info("bob")
	require.NoError(t, err)
	require.Empty(t, bob.WateredAt)
	steve, err := svc.Info("steve")
	require.NoError(t, err)
	require.Len(t, steve.WateredAt, 2)

	require.NoError(t, e.gateway.Save(ctx, e.store, e.path))
	again, err := e.gateway.Load(ctx, e.store, e.path)
	require.NoError(t, err)
	require.Equal(t, first, again)
	require.Equal(t, []Plant{steve, bob}, svc.List())
}

func TestFutureVersionLeavesStoreIntact(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "plants.json")
	svc := NewService(e.store, e.plants, e.gateway, e.path)
	_, err := svc.Add(ctx, "kept", "fern")
	require.NoError(t, err)

	doc := &snapshot.Document{
		Format:        snapshot.FormatName,
		FormatVersion: snapshot.FormatVersion,
		Entities: []snapshot.EntityRecord{
			{ID: 1, Components: map[string]registry.Record{
				Tag: {"version": json.Number("4"), "key": "x", "description": "y", "watered_at": []any{}},
			}},
		},
	}
	_, err = snapshot.NewReader(e.reg).Read(ctx, doc, e.store)
	require.ErrorIs(t, err, registry.ErrUnknownSchemaVersion)

	plants := svc.List()
	require.Len(t, plants, 1)
	require.Equal(t, "kept", plants[0].Key)
}

func TestDuplicateKeyChoiceSurvivesReload(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, "plants.json")
	svc := NewService(e.store, e.plants, e.gateway, e.path)

	_, err := svc.Add(ctx, "a", "placeholder")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "steve", "first")
	require.NoError(t, err)
	_, err = svc.Delete(ctx, "a")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "steve", "second")
	require.NoError(t, err)

	before, err := svc.Info("steve")
	require.NoError(t, err)
	require.Equal(t, "first", before.Description)
	listed := svc.List()

	_, err = e.gateway.Load(ctx, e.store, e.path)
	require.NoError(t, err)

	after, err := svc.Info("steve")
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, listed, svc.List())
}
