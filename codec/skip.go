package codec

import (
	"path/filepath"
	"strings"
)

// SkipFunc reports whether a file should be stored verbatim even when the
// catalog names a codec. It is called once per file.
type SkipFunc func(path string, size int64) bool

// DefaultSkip skips files smaller than minSize and files whose extension
// marks them as already compressed.
func DefaultSkip(minSize int64) SkipFunc {
	return func(path string, size int64) bool {
		if minSize > 0 && size < minSize {
			return true
		}
		_, ok := precompressedExts[strings.ToLower(filepath.Ext(path))]
		return ok
	}
}

var precompressedExts = map[string]struct{}{
	".7z":    {},
	".br":    {},
	".bz2":   {},
	".gif":   {},
	".gz":    {},
	".jar":   {},
	".jpeg":  {},
	".jpg":   {},
	".lz4":   {},
	".mp3":   {},
	".mp4":   {},
	".png":   {},
	".rar":   {},
	".tgz":   {},
	".webp":  {},
	".woff2": {},
	".xz":    {},
	".zip":   {},
	".zst":   {},
}
