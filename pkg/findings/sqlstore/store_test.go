package sqlstore_test

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-trscan/pkg/findings"
	"github.com/goliatone/go-trscan/pkg/findings/sqlstore"
	"github.com/goliatone/go-trscan/pkg/lookup"
	"github.com/goliatone/go-trscan/pkg/storage/sqlite"
)

var now = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newSeededStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.OpenAndMigrate(ctx, filepath.Join(t.TempDir(), "trscan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := sqlstore.New(db)
	endpoints, items := findings.Sample(now)
	require.NoError(t, store.Seed(ctx, endpoints, items))
	return store
}

func ids(items []findings.Finding) []int {
	out := make([]int, 0, len(items))
	for _, f := range items {
		out = append(out, f.ID)
	}
	return out
}

func TestStoreFindings(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		lookup lookup.Lookup
		want   []int
	}{
		{name: "all", want: []int{1, 2, 3, 4}},
		{name: "severity list", lookup: lookup.Lookup{"severity__in": []string{"Critical", "High"}}, want: []int{1, 2}},
		{name: "tags", lookup: lookup.FromValues(url.Values{"tags": {"web"}}, now), want: []int{1, 2}},
		{name: "past thirty days", lookup: lookup.FromValues(url.Values{"date": {"3"}}, now), want: []int{1, 2}},
		{name: "current month", lookup: lookup.FromValues(url.Values{"date": {"5"}}, now), want: []int{1, 2}},
		{name: "test id", lookup: lookup.FromValues(url.Values{"test": {"11"}}, now), want: []int{3, 4}},
		{name: "false positive", lookup: lookup.FromValues(url.Values{"false_p": {"true"}}, now), want: []int{4}},
		{name: "title contains", lookup: lookup.Lookup{"title": "overflow"}, want: []int{3}},
		{name: "like wildcard escaped", lookup: lookup.Lookup{"title": "%"}, want: []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := store.Findings(ctx, findings.Query{Lookup: tc.lookup})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(page.Items))
			assert.Equal(t, len(tc.want), page.Total)
		})
	}
}

func TestStoreFindingsLoadsRelations(t *testing.T) {
	store := newSeededStore(t)
	page, err := store.Findings(context.Background(), findings.Query{Lookup: lookup.Lookup{"id": 1}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	f := page.Items[0]
	assert.Equal(t, findings.SeverityCritical, f.Severity)
	assert.Equal(t, []string{"injection", "web"}, f.Tags)
	assert.Equal(t, []int{2}, f.EndpointIDs)
	require.Len(t, f.Notes, 1)
	assert.Equal(t, "analyst", f.Notes[0].Author)
	assert.Equal(t, time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC), f.Date)
	assert.True(t, f.Active)
	assert.True(t, f.Verified)
}

func TestStoreFindingsPaging(t *testing.T) {
	store := newSeededStore(t)
	page, err := store.Findings(context.Background(), findings.Query{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ids(page.Items))
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, 4, page.Total)
	assert.False(t, page.HasNext())
}

func TestStoreEndpoints(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	got, err := store.Endpoints(ctx, findings.Query{ReportableOnly: true})
	require.NoError(t, err)
	var hosts []string
	for _, e := range got {
		hosts = append(hosts, e.Host)
	}
	assert.Equal(t, []string{"api.example.com", "shop.example.com"}, hosts)

	got, err = store.Endpoints(ctx, findings.Query{ProductIDs: []int{2}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "legacy.example.com", got[0].Host)
}

func TestStoreWords(t *testing.T) {
	store := newSeededStore(t)
	got, err := store.Words(context.Background(), "component_name", findings.Query{
		Lookup: lookup.Lookup{"severity__in": []string{"Critical", "High"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders-service", "storefront"}, got)
}

func TestStoreRejectsUnknownField(t *testing.T) {
	store := newSeededStore(t)
	_, err := store.Findings(context.Background(), findings.Query{Lookup: lookup.Lookup{"password": "x"}})
	assert.ErrorIs(t, err, findings.ErrUnknownField)
}
