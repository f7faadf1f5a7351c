//go:build integration

package integration

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/payload"
	"github.com/meigma/unpack/source/oci"
)

// --- Registry Container Setup ---

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error
)

// getRegistry returns the shared registry address, starting the container if needed.
// The container is shared across all tests for performance.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		ctx := context.Background()
		registryAddr, registryErr = startRegistryContainer(ctx)
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

// --- Payload Helpers ---

// testRef generates a unique reference for a test to avoid collisions.
func testRef(registryAddr, testName string) string {
	return fmt.Sprintf("%s/test/%s:latest", registryAddr, testName)
}

// createTestFiles writes test files to a directory.
func createTestFiles(tb testing.TB, dir string, files map[string][]byte) {
	tb.Helper()
	for path, content := range files {
		fullPath := filepath.Join(dir, path)
		require.NoError(tb, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(tb, os.WriteFile(fullPath, content, 0o644))
	}
}

// makeCompressibleContent creates content that benefits from compression.
func makeCompressibleContent(size int) []byte {
	pattern := []byte("This is a repeating pattern for compression testing. ")
	result := make([]byte, 0, size)
	for len(result) < size {
		result = append(result, pattern...)
	}
	return result[:size]
}

// makeRandomContent creates random binary content.
func makeRandomContent(size int) []byte {
	data := make([]byte, size)
	_, _ = rand.Read(data)
	return data
}

// buildPayload builds a payload with a core pack holding files and an
// optional extras pack that duplicates one of them.
func buildPayload(tb testing.TB, files map[string][]byte, compression string) string {
	tb.Helper()

	src := tb.TempDir()
	createTestFiles(tb, src, files)

	core := pack.NewPackInfo(pack.NewPack("core", pack.WithRequired(true)))
	extras := pack.NewPackInfo(pack.NewPack("extras"))
	for name := range files {
		f, err := pack.NewFile(src, name, name)
		require.NoError(tb, err)
		core.AddFile(f)
		dup, err := pack.NewFile(src, name, "extras/"+name)
		require.NoError(tb, err)
		extras.AddFile(dup)
	}

	b := payload.New(payload.WithCompression(compression))
	b.AddPack(core, src)
	b.AddPack(extras, src)

	out := tb.TempDir()
	_, err := b.Build(context.Background(), payload.NewDirSink(out))
	require.NoError(tb, err, "build payload")
	return out
}

// publish pushes a payload directory to ref on the test registry.
func publish(tb testing.TB, dir, ref string) {
	tb.Helper()

	repo, err := oci.Repository(ref, oci.WithPlainHTTP(true), oci.WithAnonymous())
	require.NoError(tb, err)
	_, err = oci.Publish(context.Background(), repo, dir, repo.Reference.Reference)
	require.NoError(tb, err, "publish %s", ref)
}

// --- Assertion Helpers ---

// assertDirContents verifies that a directory contains the expected files with correct content.
func assertDirContents(tb testing.TB, dir string, expected map[string][]byte) {
	tb.Helper()

	for path, expectedContent := range expected {
		fullPath := filepath.Join(dir, path)
		gotContent, err := os.ReadFile(fullPath)
		require.NoError(tb, err, "ReadFile(%q)", fullPath)
		require.Equal(tb, expectedContent, gotContent, "content mismatch for %q", path)
	}
}
