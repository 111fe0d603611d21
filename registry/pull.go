package registry

import (
	"context"
	"fmt"
	"io"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	arh "github.com/meigma/arh/core"
	arhhttp "github.com/meigma/arh/core/http"
	"github.com/meigma/arh/registry/cache"
)

// Pull retrieves the archive stored at ref.
//
// The header blob is downloaded and verified immediately. The data blob is
// not downloaded; members are read from it on demand with HTTP range
// requests while extracting.
func (c *Client) Pull(ctx context.Context, ref string, opts ...PullOption) (*arh.Archive, error) {
	cfg := pullConfig{
		maxHeaderSize: defaultMaxHeaderSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c.log().Info("pulling archive", "ref", ref)

	reportPullProgress(cfg.progress, arh.StageFetchingManifest, 0, 0)
	var fetchOpts []FetchOption
	if cfg.skipCache {
		fetchOpts = append(fetchOpts, WithSkipCache())
	}
	manifest, err := c.Fetch(ctx, ref, fetchOpts...)
	if err != nil {
		return nil, err
	}
	reportPullProgress(cfg.progress, arh.StageFetchingManifest, 1, 1)

	headerDesc := manifest.HeaderDescriptor()
	reportPullProgress(cfg.progress, arh.StageFetchingHeader, 0, sizeToUint64(headerDesc.Size))
	headerData, err := c.fetchHeaderBlob(ctx, ref, &headerDesc, &cfg)
	if err != nil {
		return nil, err
	}
	reportPullProgress(cfg.progress, arh.StageFetchingHeader, uint64(len(headerData)), uint64(len(headerData)))

	source, err := c.createDataSource(ctx, ref, manifest)
	if err != nil {
		return nil, err
	}
	c.log().Debug("created data source", "url", source.SourceID(), "size", source.Size())

	return arh.New(headerData, source, cfg.archOpts...)
}

// fetchHeaderBlob returns the verified header bytes, using the cache if set.
func (c *Client) fetchHeaderBlob(ctx context.Context, ref string, desc *ocispec.Descriptor, cfg *pullConfig) ([]byte, error) {
	if cfg.maxHeaderSize > 0 && desc.Size > cfg.maxHeaderSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrHeaderTooLarge, desc.Size, cfg.maxHeaderSize)
	}

	dgst := desc.Digest.String()
	if !cfg.skipCache && c.headerCache != nil {
		if cached, ok := c.headerCache.GetHeader(dgst); ok && verifyDigest(cached, desc.Digest) == nil {
			c.log().Debug("header cache hit", "digest", shortDigest(dgst), "size", len(cached))
			return cached, nil
		}
		c.log().Debug("header cache miss", "digest", shortDigest(dgst))
	}

	rc, err := c.oci.FetchBlob(ctx, ref, desc)
	if err != nil {
		return nil, fmt.Errorf("fetch header blob: %w", mapOCIError(err))
	}
	defer rc.Close()

	data, err := readLimited(rc, cfg.maxHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("read header blob: %w", err)
	}
	if err := verifyDigest(data, desc.Digest); err != nil {
		c.log().Warn("header digest verification failed", "expected", dgst)
		return nil, fmt.Errorf("read header blob: %w", err)
	}

	if c.headerCache != nil {
		if err := c.headerCache.PutHeader(dgst, data); err != nil {
			c.log().Warn("caching header failed", "digest", shortDigest(dgst), "error", err)
		}
	}
	return data, nil
}

// createDataSource opens a ranged HTTP reader over the data blob, wrapped
// by the block cache when one is set.
func (c *Client) createDataSource(ctx context.Context, ref string, manifest *ArchiveManifest) (cache.Source, error) {
	dataDesc := manifest.DataDescriptor()
	dataURL, err := c.oci.BlobURL(ref, dataDesc.Digest.String())
	if err != nil {
		return nil, fmt.Errorf("build data blob URL: %w", mapOCIError(err))
	}

	var sourceOpts []arhhttp.Option
	if provider, ok := c.oci.(authClientProvider); ok {
		authClient, authErr := provider.AuthClient(ref)
		if authErr != nil {
			return nil, fmt.Errorf("get auth client: %w", mapOCIError(authErr))
		}
		sourceOpts = append(sourceOpts, arhhttp.WithClient(authClient))
	} else {
		headers, headerErr := c.oci.AuthHeaders(ctx, ref)
		if headerErr != nil {
			return nil, fmt.Errorf("get auth headers: %w", mapOCIError(headerErr))
		}
		sourceOpts = append(sourceOpts, arhhttp.WithHeaders(headers))
	}

	source, err := arhhttp.NewSource(ctx, dataURL, sourceOpts...)
	if err != nil {
		return nil, fmt.Errorf("create data source: %w", err)
	}
	if source.Size() != dataDesc.Size {
		c.log().Warn("data blob size differs from manifest",
			"manifest", dataDesc.Size,
			"served", source.Size(),
		)
	}
	if c.blockCache == nil {
		return source, nil
	}
	cached, err := c.blockCache.Wrap(source)
	if err != nil {
		return nil, fmt.Errorf("wrap data source: %w", err)
	}
	return cached, nil
}

// readLimited reads r fully. If maxSize is positive, more than maxSize bytes
// is an error.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrHeaderTooLarge, maxSize)
	}
	return data, nil
}

func sizeToUint64(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// reportPullProgress sends a progress event if a callback is configured.
func reportPullProgress(fn arh.ProgressFunc, stage arh.ProgressStage, bytesDone, bytesTotal uint64) {
	if fn == nil {
		return
	}
	fn(arh.ProgressEvent{
		Stage:      stage,
		BytesDone:  bytesDone,
		BytesTotal: bytesTotal,
	})
}
