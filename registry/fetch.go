package registry

import (
	"context"
	"fmt"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Fetch retrieves and validates the manifest of the archive at ref without
// downloading either blob.
func (c *Client) Fetch(ctx context.Context, ref string, opts ...FetchOption) (*ArchiveManifest, error) {
	cfg := fetchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	parsed, err := parseArchiveRef(ref)
	if err != nil {
		return nil, err
	}
	if parsed.reference == "" {
		return nil, fmt.Errorf("%w: reference must include a tag or digest", ErrInvalidReference)
	}

	dgst, err := c.resolveDigest(ctx, ref, parsed.reference, cfg.skipCache)
	if err != nil {
		return nil, err
	}

	manifest, err := c.fetchManifestByDigest(ctx, ref, dgst)
	if err != nil {
		if c.refCache != nil && !isDigest(parsed.reference) {
			_ = c.refCache.Delete(ref) //nolint:errcheck // stale mapping, best-effort cleanup
		}
		return nil, err
	}
	return manifest, nil
}

// resolveDigest resolves a tag to a manifest digest, consulting the ref cache.
func (c *Client) resolveDigest(ctx context.Context, ref, reference string, skipCache bool) (string, error) {
	if isDigest(reference) {
		c.log().Debug("resolving reference", "ref", ref, "type", "digest")
		return reference, nil
	}

	c.log().Debug("resolving reference", "ref", ref, "type", "tag")

	if !skipCache && c.refCache != nil {
		if dgst, ok := c.refCache.GetDigest(ref); ok {
			c.log().Debug("ref cache hit", "ref", ref, "digest", shortDigest(dgst))
			return dgst, nil
		}
		c.log().Debug("ref cache miss", "ref", ref)
	}

	desc, err := c.oci.Resolve(ctx, ref, reference)
	if err != nil {
		return "", mapOCIError(err)
	}
	dgst := desc.Digest.String()

	if c.refCache != nil {
		if err := c.refCache.PutDigest(ref, dgst); err != nil {
			return "", fmt.Errorf("cache ref digest: %w", err)
		}
	}
	return dgst, nil
}

// fetchManifestByDigest fetches a manifest and checks its bytes against dgst.
func (c *Client) fetchManifestByDigest(ctx context.Context, ref, dgst string) (*ArchiveManifest, error) {
	desc, err := descriptorFromDigest(dgst)
	if err != nil {
		return nil, err
	}
	desc.MediaType = ocispec.MediaTypeImageManifest

	raw, rawBytes, err := c.oci.FetchManifest(ctx, ref, &desc)
	if err != nil {
		return nil, mapOCIError(err)
	}
	if err := verifyDigest(rawBytes, desc.Digest); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return parseArchiveManifest(&raw, dgst)
}

func verifyDigest(data []byte, want digest.Digest) error {
	if err := want.Validate(); err != nil {
		return fmt.Errorf("%w: invalid digest %q: %v", ErrInvalidManifest, want, err)
	}
	if got := want.Algorithm().FromBytes(data); got != want {
		return fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, want, got)
	}
	return nil
}

func shortDigest(dgst string) string {
	return dgst[:min(19, len(dgst))]
}
