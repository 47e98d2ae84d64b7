// Package pngcrush exposes the two entry points a host embeds — compressing
// a raw bitmap from scratch and recompressing an existing PNG file — wired
// to the internal search and recompress pipelines.
package pngcrush

import (
	"github.com/hawkynt/pngcrush/internal/raster"
	"github.com/hawkynt/pngcrush/internal/recompress"
	"github.com/hawkynt/pngcrush/internal/search"
)

// CompressOptions is search.Options re-exported at the package boundary so
// callers never need to import internal/search directly.
type CompressOptions = search.Options

// DefaultCompressOptions returns the documented default search configuration.
func DefaultCompressOptions() CompressOptions { return search.DefaultOptions() }

// CompressResult is search.Outcome re-exported at the package boundary.
type CompressResult = search.Outcome

// CompressBitmap builds a pixel buffer from row-major BGRA pixels and runs
// the combination search over it, returning the smallest PNG the configured
// combination set can produce.
func CompressBitmap(width, height, stride int, bgra []byte, opts CompressOptions) (*CompressResult, error) {
	buf := raster.New(width, height, stride, bgra)
	return search.Run(buf, opts)
}

// RecompressOptions is recompress.Options re-exported at the package
// boundary.
type RecompressOptions = recompress.Options

// DefaultRecompressOptions returns RecompressPipeline's documented defaults.
func DefaultRecompressOptions() RecompressOptions { return recompress.DefaultOptions() }

// RecompressResult is recompress.Outcome re-exported at the package
// boundary.
type RecompressResult = recompress.Outcome

// Recompress decodes an existing PNG file's bytes, re-runs the filter/
// deflate search over its unfiltered samples, and returns the smallest
// re-framed file with every ancillary chunk preserved.
func Recompress(input []byte, opts RecompressOptions) (*RecompressResult, error) {
	return recompress.Recompress(input, opts)
}
