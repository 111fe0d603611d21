package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arh "github.com/meigma/arh/core"
	arhhttp "github.com/meigma/arh/core/http"
	"github.com/meigma/arh/core/testutil"
	"github.com/meigma/arh/registry/cache/disk"
)

func TestCollector_WriteToTextfile(t *testing.T) {
	t.Parallel()

	members := []testutil.Member{
		{Name: "a.txt", Data: []byte("alpha")},
		{Name: "b.txt", Data: []byte("bravo!")},
	}
	headerPath, dataPath := testutil.WriteArchive(t, t.TempDir(), 8, members)
	a, err := arh.Open(headerPath, dataPath)
	require.NoError(t, err)
	a.SupplyFilenames([]string{"a.txt"})

	c := New()
	c.ObserveArchive(a)

	start := time.Now()
	report, err := a.ExtractMany(context.Background(), []string{"a.txt", "missing.txt"}, t.TempDir())
	require.NoError(t, err)
	c.ObserveReport(report, start)

	outcome, err := a.ExtractOne(context.Background(), "a.txt", t.TempDir())
	require.NoError(t, err)
	c.ObserveOutcome(outcome)
	c.ObserveSource(arhhttp.Stats{Requests: 4, Bytes: 1024})
	c.ObserveBlockCache(disk.BlockStats{Hits: 3, Misses: 2})

	path := filepath.Join(t.TempDir(), "arh.prom")
	require.NoError(t, c.WriteToTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)

	assert.Contains(t, text, `arh_extract_members_total{status="extracted"} 2`)
	assert.Contains(t, text, `arh_extract_members_total{status="not_found"} 1`)
	assert.Contains(t, text, `arh_extract_members_total{status="failed"} 0`)
	assert.Contains(t, text, "arh_extract_bytes_total 10")
	assert.Contains(t, text, "arh_header_members 2")
	assert.Contains(t, text, "arh_header_resolved_members 1")
	assert.Contains(t, text, "arh_remote_range_requests_total 4")
	assert.Contains(t, text, "arh_remote_bytes_total 1024")
	assert.Contains(t, text, "arh_block_cache_hits_total 3")
	assert.Contains(t, text, "arh_block_cache_misses_total 2")
	assert.Contains(t, text, "arh_extract_duration_seconds_total")
}

func TestCollector_Independent(t *testing.T) {
	t.Parallel()

	first, second := New(), New()
	first.ObserveOutcome(arh.Outcome{Status: arh.StatusFailed})

	families, err := second.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "arh_extract_members_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			assert.Zero(t, m.GetCounter().GetValue())
		}
	}
}
