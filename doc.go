// Package arh extracts files from ARH/ARD archives.
//
// An archive is a pair of files: a header (.arh) listing every member by the
// xxHash64 of its name, size, and optional uncompressed size, and a data file
// (.ard) holding the member bytes back to back, each padded to the header's
// alignment. Names are not stored; callers supply candidate filenames and
// members whose hash matches are written under that name. Everything else is
// written as its hash in 16 upper-case hex digits.
//
// # Local archives
//
//	a, err := arh.Open("data.arh", "data.ard")
//	if err != nil {
//	    return err
//	}
//	a.SupplyFilenames(names)
//	report, err := a.ExtractAll(ctx, "out")
//
// # Registry archives
//
// Archives published as OCI artifacts are pulled with a Client. The header
// is downloaded up front and member data is read lazily with HTTP range
// requests:
//
//	c, err := arh.NewClient(arh.WithDockerConfig(), arh.WithCacheDir(cacheDir))
//	if err != nil {
//	    return err
//	}
//	a, err := c.Pull(ctx, "ghcr.io/org/assets:v1")
//
// The lower-level packages are [github.com/meigma/arh/core] for the archive
// itself and [github.com/meigma/arh/registry] for OCI access.
package arh
