package registry

import (
	"fmt"
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// ArchiveManifest wraps the OCI manifest of a stored archive.
type ArchiveManifest struct {
	raw        ocispec.Manifest
	digest     string
	headerDesc ocispec.Descriptor
	dataDesc   ocispec.Descriptor
	created    time.Time
}

// HeaderDescriptor returns the descriptor for the header blob.
func (m *ArchiveManifest) HeaderDescriptor() ocispec.Descriptor {
	return m.headerDesc
}

// DataDescriptor returns the descriptor for the data blob.
func (m *ArchiveManifest) DataDescriptor() ocispec.Descriptor {
	return m.dataDesc
}

// Digest returns the manifest digest.
func (m *ArchiveManifest) Digest() string {
	return m.digest
}

// Annotations returns the manifest annotations.
func (m *ArchiveManifest) Annotations() map[string]string {
	return m.raw.Annotations
}

// Created returns the creation timestamp from annotations, or the zero time.
func (m *ArchiveManifest) Created() time.Time {
	return m.created
}

// Raw returns the underlying OCI manifest.
func (m *ArchiveManifest) Raw() ocispec.Manifest {
	return m.raw
}

// parseArchiveManifest checks that manifest describes an archive: the
// artifact type matches and there is exactly one header and one data layer.
func parseArchiveManifest(manifest *ocispec.Manifest, digest string) (*ArchiveManifest, error) {
	if manifest.MediaType != "" && manifest.MediaType != ocispec.MediaTypeImageManifest {
		return nil, fmt.Errorf("%w: unexpected manifest media type %q", ErrInvalidManifest, manifest.MediaType)
	}
	if manifest.ArtifactType != ArtifactType && manifest.Config.MediaType != ArtifactType {
		return nil, fmt.Errorf("%w: unexpected artifact type %q", ErrInvalidManifest, manifest.ArtifactType)
	}

	var headerDesc, dataDesc ocispec.Descriptor
	var foundHeader, foundData bool

	for _, layer := range manifest.Layers {
		switch layer.MediaType {
		case MediaTypeHeader:
			if foundHeader {
				return nil, fmt.Errorf("%w: multiple header layers", ErrInvalidManifest)
			}
			headerDesc = layer
			foundHeader = true
		case MediaTypeData:
			if foundData {
				return nil, fmt.Errorf("%w: multiple data layers", ErrInvalidManifest)
			}
			dataDesc = layer
			foundData = true
		}
	}

	if !foundHeader {
		return nil, ErrMissingHeader
	}
	if !foundData {
		return nil, ErrMissingData
	}
	if len(manifest.Layers) != 2 {
		return nil, fmt.Errorf("%w: expected 2 layers, got %d", ErrInvalidManifest, len(manifest.Layers))
	}

	var created time.Time
	if ts, ok := manifest.Annotations[ocispec.AnnotationCreated]; ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			created = t
		}
	}

	return &ArchiveManifest{
		raw:        *manifest,
		digest:     digest,
		headerDesc: headerDesc,
		dataDesc:   dataDesc,
		created:    created,
	}, nil
}
