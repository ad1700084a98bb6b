package seadex

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamaggr/streamaggr/internal/cache"
)

type fakeProvider struct {
	calls    int64
	releases []Release
	err      error
}

func (f *fakeProvider) GetAniListEntries(ctx context.Context, anilistID int) ([]Release, error) {
	atomic.AddInt64(&f.calls, 1)
	return f.releases, f.err
}

func newTestService(p Provider) *Service {
	backend := cache.NewSingleflightCache(cache.NewMemoryCache(cache.DefaultMemoryCacheConfig()), time.Minute)
	return NewService(p, backend, time.Minute, zerolog.Nop())
}

func TestGetSeaDexInfoHashes_BuildsSetsAndCaches(t *testing.T) {
	fp := &fakeProvider{releases: []Release{
		{InfoHash: "AAAA", ReleaseGroup: "SubsPlease", IsBest: true},
		{InfoHash: "bbbb", ReleaseGroup: "Erai-raws", IsBest: false},
	}}
	svc := newTestService(fp)

	info, err := svc.GetSeaDexInfoHashes(context.Background(), 5114)
	require.NoError(t, err)

	// Hashes and groups are normalized to lowercase on the way in and
	// matched case-insensitively on the way out.
	assert.True(t, info.HasHash("aaaa"))
	assert.True(t, info.IsBestHash("AAAA"))
	assert.True(t, info.HasHash("BBBB"))
	assert.False(t, info.IsBestHash("bbbb"))
	assert.True(t, info.HasGroup("subsplease"))
	assert.True(t, info.IsBestGroup("SubsPlease"))
	assert.True(t, info.HasGroup("erai-raws"))
	assert.False(t, info.IsBestGroup("erai-raws"))

	_, err = svc.GetSeaDexInfoHashes(context.Background(), 5114)
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&fp.calls))
}

func TestInfoHelpers_NilReceiverIsAlwaysFalse(t *testing.T) {
	var info *Info
	assert.False(t, info.HasHash("aaaa"))
	assert.False(t, info.IsBestHash("aaaa"))
	assert.False(t, info.HasGroup("subsplease"))
	assert.False(t, info.IsBestGroup("subsplease"))
}
