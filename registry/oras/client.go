package oras

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/errcode"
	"oras.land/oras-go/v2/registry/remote/retry"
)

const defaultMaxManifestSize = 4 << 20

// Client provides pull-side OCI registry operations.
type Client struct {
	plainHTTP       bool
	userAgent       string
	anonymous       bool // skip credential lookup entirely
	maxManifestSize int64
	credStore       credentials.Store
	authClient      *auth.Client // shared auth client with token cache
	authHeaderCache *authHeaderCache
}

// New creates a new registry client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		userAgent:       "arh/1.0",
		maxManifestSize: defaultMaxManifestSize,
		authHeaderCache: newAuthHeaderCache(defaultAuthHeaderCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.authClient = &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if c.anonymous || c.credStore == nil {
				return auth.EmptyCredential, nil
			}
			return c.credStore.Get(ctx, hostport)
		},
		Header: http.Header{
			"User-Agent": []string{c.userAgent},
		},
	}

	return c
}

// repository creates a Repository for the given reference using the shared
// auth client so tokens are reused across requests.
func (c *Client) repository(ref string) (*remote.Repository, error) {
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}

	repo.PlainHTTP = c.plainHTTP
	repo.Client = c.authClient

	return repo, nil
}

// parseRef parses a full reference into registry, repository, and tag/digest.
func parseRef(ref string) (registry.Reference, error) {
	r, err := registry.ParseReference(ref)
	if err != nil {
		return registry.Reference{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return r, nil
}

// FetchBlob fetches a blob from the repository using the provided descriptor.
//
// The descriptor must contain the digest and size (typically from a manifest).
// The caller is responsible for closing the returned reader.
func (c *Client) FetchBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor) (io.ReadCloser, error) {
	if err := validateDescriptor(desc); err != nil {
		return nil, err
	}

	repo, err := c.repository(repoRef)
	if err != nil {
		return nil, err
	}

	rc, err := repo.Fetch(ctx, *desc)
	if err != nil {
		return nil, mapError(err)
	}

	return rc, nil
}

// FetchManifest fetches an image manifest by descriptor and returns both the
// decoded manifest and its raw bytes so callers can verify the digest.
func (c *Client) FetchManifest(ctx context.Context, repoRef string, expected *ocispec.Descriptor) (ocispec.Manifest, []byte, error) {
	if err := validateDescriptor(expected); err != nil {
		return ocispec.Manifest{}, nil, err
	}
	if expected.MediaType != "" && expected.MediaType != ocispec.MediaTypeImageManifest {
		return ocispec.Manifest{}, nil, fmt.Errorf("%w: unsupported media type %s", ErrManifestInvalid, expected.MediaType)
	}
	if expected.Size > c.maxManifestSize {
		return ocispec.Manifest{}, nil, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrManifestTooLarge, expected.Size, c.maxManifestSize)
	}

	repo, err := c.repository(repoRef)
	if err != nil {
		return ocispec.Manifest{}, nil, err
	}

	desc, rc, err := repo.FetchReference(ctx, expected.Digest.String())
	if err != nil {
		return ocispec.Manifest{}, nil, mapError(err)
	}
	defer rc.Close()

	if expected.MediaType == "" && desc.MediaType != "" && desc.MediaType != ocispec.MediaTypeImageManifest {
		return ocispec.Manifest{}, nil, fmt.Errorf("%w: unsupported media type %s", ErrManifestInvalid, desc.MediaType)
	}

	limit := c.maxManifestSize
	if expected.Size > 0 {
		limit = expected.Size
	}
	raw, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return ocispec.Manifest{}, nil, fmt.Errorf("read manifest: %w", err)
	}
	if int64(len(raw)) > limit {
		return ocispec.Manifest{}, nil, fmt.Errorf("%w: more than %d bytes", ErrManifestTooLarge, limit)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return ocispec.Manifest{}, nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}

	return manifest, raw, nil
}

// Resolve resolves a tag or digest to a descriptor.
func (c *Client) Resolve(ctx context.Context, repoRef, ref string) (ocispec.Descriptor, error) {
	repo, err := c.repository(repoRef)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	desc, err := repo.Resolve(ctx, ref)
	if err != nil {
		return ocispec.Descriptor{}, mapError(err)
	}

	return desc, nil
}

// BlobURL returns the URL for direct blob access via HTTP range requests.
func (c *Client) BlobURL(repoRef, dgst string) (string, error) {
	ref, err := parseRef(repoRef)
	if err != nil {
		return "", err
	}

	scheme := "https"
	if c.plainHTTP {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s/v2/%s/blobs/%s", scheme, ref.Host(), ref.Repository, dgst), nil
}

// AuthHeaders returns HTTP headers with authentication for direct blob access.
//
// It returns raw credentials (basic auth or static bearer token) from the
// credential store and does not perform token exchange. Registries that
// require token exchange should be read through AuthClient instead.
// After a 401, call InvalidateAuthHeaders and retry.
func (c *Client) AuthHeaders(ctx context.Context, repoRef string) (http.Header, error) {
	ref, err := parseRef(repoRef)
	if err != nil {
		return nil, err
	}
	host := ref.Host()

	headers := make(http.Header)
	headers.Set("User-Agent", c.userAgent)

	if c.anonymous || c.credStore == nil {
		return headers, nil
	}

	if c.authHeaderCache != nil {
		if authValue, ok := c.authHeaderCache.get(host); ok {
			if authValue != "" {
				headers.Set("Authorization", authValue)
			}
			return headers, nil
		}
	}

	cred, err := c.credStore.Get(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("get credentials for %s: %w", host, err)
	}

	if isEmptyCredential(cred) {
		return headers, nil
	}

	var authValue string
	if cred.AccessToken != "" {
		authValue = "Bearer " + cred.AccessToken
	}
	if authValue == "" && cred.Username != "" {
		authValue = basicAuth(cred.Username, cred.Password)
	}

	if authValue != "" {
		headers.Set("Authorization", authValue)
		if c.authHeaderCache != nil {
			c.authHeaderCache.set(host, authValue)
		}
	}

	return headers, nil
}

// InvalidateAuthHeaders clears cached auth headers for the repository host.
func (c *Client) InvalidateAuthHeaders(repoRef string) error {
	if c.authHeaderCache == nil {
		return nil
	}
	ref, err := parseRef(repoRef)
	if err != nil {
		return err
	}
	c.authHeaderCache.invalidate(ref.Host())
	return nil
}

func basicAuth(username, password string) string {
	creds := username + ":" + password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

// validateDescriptor checks that a descriptor is valid for use.
func validateDescriptor(desc *ocispec.Descriptor) error {
	if desc == nil {
		return fmt.Errorf("%w: descriptor is nil", ErrInvalidDescriptor)
	}
	if desc.Size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidDescriptor, desc.Size)
	}
	if desc.Digest == "" {
		return fmt.Errorf("%w: empty digest", ErrInvalidDescriptor)
	}
	if err := desc.Digest.Validate(); err != nil {
		return fmt.Errorf("%w: invalid digest %q: %v", ErrInvalidDescriptor, desc.Digest, err)
	}
	return nil
}

// mapError maps ORAS errors to package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errdef.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var errResp *errcode.ErrorResponse
	if errors.As(err, &errResp) {
		switch errResp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		}
	}
	return err
}
