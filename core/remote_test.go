package arh

import (
	"bytes"
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arhhttp "github.com/meigma/arh/core/http"
	"github.com/meigma/arh/core/testutil"
)

func TestNew_HTTPDataSource(t *testing.T) {
	t.Parallel()

	data := testutil.BuildData(16, sampleMembers)
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeContent(w, r, "archive.ard", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)

	src, err := arhhttp.NewSource(context.Background(), server.URL)
	require.NoError(t, err)

	a, err := New(testutil.BuildHeader(16, sampleMembers), src, WithWorkers(3))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), a.DataSize())
	a.SupplyFilenames(testutil.Names(sampleMembers))

	dest := t.TempDir()
	report, err := a.ExtractAll(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, sampleMembers[1].Data, readFile(t, filepath.Join(dest, "script", "main.sb")))
	assert.Equal(t, uint64(10+33+5), src.Stats().Bytes)
}

func TestNew_HTTPDataSource_LargeMember(t *testing.T) {
	t.Parallel()

	members := []testutil.Member{{Name: "/movie/opening.bik", Data: bytes.Repeat([]byte{0x5A}, 4<<20)}}
	data := testutil.BuildData(16, members)
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeContent(w, r, "archive.ard", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)

	src, err := arhhttp.NewSource(context.Background(), server.URL)
	require.NoError(t, err)

	a, err := New(testutil.BuildHeader(16, members), src)
	require.NoError(t, err)

	report, err := a.ExtractAll(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, uint64(4<<20), src.Stats().Bytes)
	assert.LessOrEqual(t, src.Stats().Requests, uint64(4))
}
