package oci

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"

	"github.com/meigma/unpack/source"
)

func writePayload(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "packs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, source.CatalogResource), []byte("catalog"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "packs", "pack-core"), []byte("core-bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "packs", "pack-docs"), []byte("core-bytes"), 0o644))
	return dir
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestPublishAndRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	_, err := Publish(ctx, store, writePayload(t), "v1")
	require.NoError(t, err)

	p, err := New(ctx, store, "v1")
	require.NoError(t, err)
	assert.Contains(t, p.SourceID(), "oci:sha256:")

	rc, err := p.InputStream(ctx, source.CatalogResource)
	require.NoError(t, err)
	assert.Equal(t, "catalog", readAll(t, rc))

	rc, err = p.PackStream(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "core-bytes", readAll(t, rc))

	_, err = p.InputStream(ctx, "packs/pack-missing")
	require.ErrorIs(t, err, source.ErrNotFound)
}

func TestNewUnknownTag(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), memory.New(), "nope")
	require.ErrorIs(t, err, source.ErrNotFound)
}

func TestNewRejectsForeignArtifact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	desc, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, "application/vnd.example.other", oras.PackManifestOptions{})
	require.NoError(t, err)
	require.NoError(t, store.Tag(ctx, desc, "other"))

	_, err = New(ctx, store, "other")
	require.ErrorIs(t, err, ErrNotPayload)
}

func TestInputStreamMissingBlob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()

	good := []byte("expected content")
	layer := content.NewDescriptorFromBytes(ResourceMediaType, good)
	layer.Annotations = map[string]string{ocispec.AnnotationTitle: "packs/pack-core"}
	require.NoError(t, store.Push(ctx, layer, bytes.NewReader(good)))

	manifest, err := oras.PackManifest(ctx, store, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers: []ocispec.Descriptor{layer},
	})
	require.NoError(t, err)
	require.NoError(t, store.Tag(ctx, manifest, "v1"))

	p, err := New(ctx, store, "v1")
	require.NoError(t, err)

	// The manifest names a blob the store does not hold.
	bad := layer
	bad.Digest = content.NewDescriptorFromBytes(ResourceMediaType, []byte("other")).Digest
	p.resources["packs/pack-core"] = bad
	_, err = p.InputStream(ctx, "packs/pack-core")
	require.ErrorIs(t, err, source.ErrNotFound)
}
