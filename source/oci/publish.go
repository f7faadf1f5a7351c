package oci

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
)

// Publish pushes every regular file below dir as a payload resource and tags
// the resulting manifest. Resource names are slash-separated paths relative
// to dir.
func Publish(ctx context.Context, target oras.Target, dir, tag string) (ocispec.Descriptor, error) {
	var layers []ocispec.Descriptor
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		desc, err := pushFile(ctx, target, path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		layers = append(layers, desc)
		return nil
	})
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("publish %s: %w", dir, err)
	}

	manifest, err := oras.PackManifest(ctx, target, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers: layers,
	})
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("pack manifest: %w", err)
	}
	if err := target.Tag(ctx, manifest, tag); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("tag %s: %w", tag, err)
	}
	return manifest, nil
}

func pushFile(ctx context.Context, target oras.Target, path, name string) (ocispec.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	defer f.Close()

	dgst, err := digest.Canonical.FromReader(f)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("digest %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return ocispec.Descriptor{}, err
	}

	desc := ocispec.Descriptor{
		MediaType:   ResourceMediaType,
		Digest:      dgst,
		Size:        info.Size(),
		Annotations: map[string]string{ocispec.AnnotationTitle: name},
	}
	exists, err := target.Exists(ctx, desc)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if !exists {
		if err := target.Push(ctx, desc, f); err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("push %s: %w", name, err)
		}
	}
	return desc, nil
}
