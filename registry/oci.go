package registry

import (
	"context"
	"io"
	"net/http"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// OCIClient is the subset of registry operations needed to pull an archive.
//
// The default implementation is *oras.Client; tests substitute fakes.
type OCIClient interface {
	// FetchBlob fetches a blob from the repository.
	// The caller is responsible for closing the returned reader.
	FetchBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor) (io.ReadCloser, error)

	// FetchManifest fetches a manifest by descriptor, returning the decoded
	// manifest and its raw bytes.
	FetchManifest(ctx context.Context, repoRef string, expected *ocispec.Descriptor) (ocispec.Manifest, []byte, error)

	// Resolve resolves a reference (tag or digest) to a descriptor.
	Resolve(ctx context.Context, repoRef, ref string) (ocispec.Descriptor, error)

	// BlobURL returns the URL for direct blob access via HTTP range requests.
	BlobURL(repoRef, digest string) (string, error)

	// AuthHeaders returns HTTP headers with authentication for direct blob access.
	AuthHeaders(ctx context.Context, repoRef string) (http.Header, error)
}

// authClientProvider is implemented by clients that can hand out an HTTP
// client performing registry token exchange.
type authClientProvider interface {
	AuthClient(repoRef string) (*http.Client, error)
}
