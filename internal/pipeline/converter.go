// Package pipeline converts one stored PDF into per-page WebP objects and a
// manifest under an output prefix.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/local/pdf2webp/internal/apperr"
	"github.com/local/pdf2webp/internal/config"
	"github.com/local/pdf2webp/internal/event"
	"github.com/local/pdf2webp/internal/imagerender"
	"github.com/local/pdf2webp/internal/metrics"
	"github.com/local/pdf2webp/internal/scratch"
)

const (
	pageContentType     = "image/webp"
	manifestContentType = "application/json"
)

// ObjectStore is the subset of object storage the converter needs.
// *storage.S3Client satisfies it.
type ObjectStore interface {
	Bucket() string
	DownloadToFile(ctx context.Context, key, path string) error
	Put(ctx context.Context, key string, data []byte, contentType string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// Manifest is written last, after every page object.
type Manifest struct {
	PageCount int    `json:"page_count"`
	Format    string `json:"format"`
}

// Converter runs conversions against one store. It holds no per-request
// state and is safe for sequential reuse across warm invocations.
type Converter struct {
	store  ObjectStore
	conf   config.ConversionConfig
	opener imagerender.Opener
	render imagerender.Options
}

// Option customizes a Converter.
type Option func(*Converter)

// WithOpener replaces the MuPDF document opener.
func WithOpener(o imagerender.Opener) Option {
	return func(c *Converter) { c.opener = o }
}

func New(store ObjectStore, conf config.ConversionConfig, opts ...Option) *Converter {
	c := &Converter{
		store:  store,
		conf:   conf,
		opener: imagerender.DefaultOpener,
		render: imagerender.DefaultOptions(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Convert downloads req.PDFKey to a scratch file, uploads every page as
// {prefix}page-{i}.webp in order and finally {prefix}manifest.json.
// The first failure aborts the run; objects already written stay in place.
// The scratch file is removed on every path.
func (c *Converter) Convert(ctx context.Context, req event.Request) (Manifest, error) {
	lg := log.With().
		Str("bucket", c.store.Bucket()).
		Str("pdf_key", req.PDFKey).
		Str("output_prefix", req.OutputPrefix).
		Logger()

	tmp, err := scratch.New(c.conf.ScratchDir)
	if err != nil {
		return Manifest{}, &apperr.ProcessingError{Message: "failed to prepare scratch file", Err: err}
	}
	defer tmp.Remove()

	start := time.Now()
	if err := c.store.DownloadToFile(ctx, req.PDFKey, tmp.Path); err != nil {
		return Manifest{}, err
	}
	lg.Info().Dur("took", time.Since(start)).Msg("downloaded source PDF")

	existing := c.existingPages(ctx, req, lg)

	pages, err := imagerender.OpenWith(c.opener, tmp.Path, c.render)
	if err != nil {
		return Manifest{}, err
	}
	defer pages.Close()

	lg.Info().Int("pages", pages.Count()).Msg("converting pages")

	uploaded, skipped := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return Manifest{}, &apperr.ProcessingError{Message: "conversion interrupted", Err: err}
		}

		renderStart := time.Now()
		if !pages.Next() {
			break
		}
		metrics.ObservePageRender(time.Since(renderStart))

		pg := pages.Page()
		key := req.PageKey(pg.Index)
		if _, ok := existing[key]; ok {
			skipped++
			metrics.IncPage("skipped")
			lg.Debug().Str("key", key).Msg("page already present, skipping upload")
			continue
		}

		if err := c.store.Put(ctx, key, pg.Bytes, pageContentType); err != nil {
			metrics.IncPage("failed")
			lg.Error().Err(err).Int("page", pg.Index).Int("uploaded", uploaded).Msg("page upload failed; earlier pages left in place")
			return Manifest{}, err
		}
		uploaded++
		metrics.IncPage("uploaded")
		metrics.AddUploaded("page", len(pg.Bytes))
	}
	if err := pages.Err(); err != nil {
		return Manifest{}, err
	}

	manifest := Manifest{PageCount: pages.Count(), Format: imagerender.Format}
	body, err := json.Marshal(manifest)
	if err != nil {
		return Manifest{}, &apperr.ProcessingError{Message: "failed to encode manifest", Err: err}
	}
	if err := c.store.Put(ctx, req.ManifestKey(), body, manifestContentType); err != nil {
		return Manifest{}, err
	}
	metrics.AddUploaded("manifest", len(body))

	lg.Info().
		Int("page_count", manifest.PageCount).
		Int("uploaded", uploaded).
		Int("skipped", skipped).
		Dur("took", time.Since(start)).
		Msg("conversion complete")

	return manifest, nil
}

// existingPages lists page objects already under the prefix when skipping is
// enabled. A listing failure only disables skipping for this run.
func (c *Converter) existingPages(ctx context.Context, req event.Request, lg zerolog.Logger) map[string]struct{} {
	if !c.conf.SkipExistingPages {
		return nil
	}
	pagePrefix := req.OutputPrefix + "page-"
	keys, err := c.store.ListKeys(ctx, pagePrefix)
	if err != nil {
		lg.Warn().Err(err).Msg("listing existing pages failed; uploading all pages")
		return nil
	}
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if strings.HasSuffix(k, "."+imagerender.Format) {
			out[k] = struct{}{}
		}
	}
	if len(out) > 0 {
		lg.Info().Int("existing", len(out)).Msg("found existing page objects")
	}
	return out
}
