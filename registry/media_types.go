package registry

// Media types for archives stored in OCI registries.
const (
	// ArtifactType identifies an ARH/ARD archive as an OCI 1.1 artifact type.
	ArtifactType = "application/vnd.meigma.arh.v1"

	// MediaTypeHeader is the media type of the header (.arh) blob.
	MediaTypeHeader = "application/vnd.meigma.arh.header.v1"

	// MediaTypeData is the media type of the data (.ard) blob.
	MediaTypeData = "application/vnd.meigma.arh.data.v1"
)
