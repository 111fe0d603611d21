package registry

import (
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	orasregistry "oras.land/oras-go/v2/registry"
)

type archiveRef struct {
	registry   string
	repository string
	reference  string
}

func parseArchiveRef(ref string) (archiveRef, error) {
	r, err := orasregistry.ParseReference(ref)
	if err != nil {
		return archiveRef{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return archiveRef{
		registry:   r.Registry,
		repository: r.Repository,
		reference:  r.Reference,
	}, nil
}

// isDigest reports whether a tag-or-digest reference is a digest.
func isDigest(ref string) bool {
	return strings.Contains(ref, ":")
}

func descriptorFromDigest(dgst string) (ocispec.Descriptor, error) {
	d, err := digest.Parse(dgst)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: invalid digest %q: %v", ErrInvalidReference, dgst, err)
	}
	return ocispec.Descriptor{Digest: d}, nil
}
