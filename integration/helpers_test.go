//go:build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	orasgo "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry/remote"

	"github.com/meigma/arh"
	"github.com/meigma/arh/core/testutil"
	"github.com/meigma/arh/registry"
)

// --- Registry Container Setup ---

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error
)

// getRegistry returns the shared registry address, starting the container if needed.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		registryAddr, registryErr = startRegistryContainer(context.Background())
	})
	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}
	return registryAddr
}

// startRegistryContainer starts a registry:2 container and returns the host:port address.
func startRegistryContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isOKStatus),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start registry container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve registry host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve registry port: %w", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// newTestClient creates a client configured for the local test registry.
func newTestClient(tb testing.TB, opts ...arh.Option) *arh.Client {
	tb.Helper()
	allOpts := append([]arh.Option{arh.WithPlainHTTP(true), arh.WithAnonymous()}, opts...)
	client, err := arh.NewClient(allOpts...)
	require.NoError(tb, err, "create test client")
	return client
}

// testRef generates a unique reference for a test to avoid collisions.
func testRef(addr, testName, tag string) string {
	return fmt.Sprintf("%s/test/%s:%s", addr, testName, tag)
}

// pushArtifact uploads layers as an artifact of artifactType and tags it.
func pushArtifact(tb testing.TB, ref, artifactType string, layers map[string][]byte) ocispec.Descriptor {
	tb.Helper()
	ctx := context.Background()

	repo, err := remote.NewRepository(ref)
	require.NoError(tb, err)
	repo.PlainHTTP = true

	descs := make([]ocispec.Descriptor, 0, len(layers))
	for _, mediaType := range []string{registry.MediaTypeHeader, registry.MediaTypeData} {
		data, ok := layers[mediaType]
		if !ok {
			continue
		}
		desc := content.NewDescriptorFromBytes(mediaType, data)
		require.NoError(tb, repo.Push(ctx, desc, bytes.NewReader(data)), "push %s", mediaType)
		descs = append(descs, desc)
	}

	manifest, err := orasgo.PackManifest(ctx, repo, orasgo.PackManifestVersion1_1, artifactType,
		orasgo.PackManifestOptions{Layers: descs})
	require.NoError(tb, err, "pack manifest")
	require.NoError(tb, repo.Tag(ctx, manifest, repo.Reference.Reference), "tag manifest")
	return manifest
}

// pushArchive uploads the header and data of members as an archive artifact.
func pushArchive(tb testing.TB, ref string, alignment uint32, members []testutil.Member) ocispec.Descriptor {
	tb.Helper()
	return pushArtifact(tb, ref, registry.ArtifactType, map[string][]byte{
		registry.MediaTypeHeader: testutil.BuildHeader(alignment, members),
		registry.MediaTypeData:   testutil.BuildData(alignment, members),
	})
}
