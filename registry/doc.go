// Package registry pulls ARH/ARD archives stored as OCI artifacts.
//
// An archive is published as an image manifest with artifact type
// ArtifactType and exactly two layers: the header (MediaTypeHeader) and the
// data file (MediaTypeData). Pull downloads the header, verifies its digest,
// and returns an archive whose data is read lazily with HTTP range requests
// against the registry blob endpoint.
//
//	c := registry.New(registry.WithDockerConfig())
//	a, err := c.Pull(ctx, "ghcr.io/org/assets:v1")
//	if err != nil {
//		return err
//	}
//	a.SupplyFilenames(names)
//	report, err := a.ExtractAll(ctx, "out")
package registry
