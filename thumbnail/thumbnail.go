package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/marcus-crane/mediamon/models"
)

// Spotify pads its artwork with a watermark strip, so only this region is kept.
const (
	cropX      = 34
	cropY      = 1
	cropWidth  = 233
	cropHeight = 233
)

const DefaultCacheSize = 32

var ErrDecode = errors.New("thumbnail: unable to decode image")

// Source is anything that can hand over the raw bytes of a piece of artwork.
type Source interface {
	OpenRead(ctx context.Context) (io.ReadCloser, error)
}

// Default is what gets sent when there is no artwork or it could not be processed.
func Default() models.ThumbnailData {
	return models.ThumbnailData{
		Base64:         "",
		Palette:        NewPalette(models.DefaultColor),
		ProminentColor: models.DefaultColor,
		AverageColor:   models.DefaultColor,
	}
}

func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

// Crop cuts the watermark-free region out of img. Images smaller than the region are
// clamped to whatever overlaps it. The result always has its origin at (0, 0).
func Crop(img image.Image) (*image.RGBA, error) {
	b := img.Bounds()
	rect := image.Rect(cropX, cropY, cropX+cropWidth, cropY+cropHeight).Add(b.Min).Intersect(b)
	if rect.Empty() {
		return nil, fmt.Errorf("crop region is outside a %dx%d image", b.Dx(), b.Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst, nil
}

func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// FromBytes runs the whole pipeline over raw artwork. On error the returned data is
// Default() so callers can always publish something.
func FromBytes(data []byte) (models.ThumbnailData, error) {
	img, err := Decode(data)
	if err != nil {
		return Default(), err
	}
	cropped, err := Crop(img)
	if err != nil {
		return Default(), err
	}
	encoded, err := EncodePNG(cropped)
	if err != nil {
		return Default(), err
	}
	colors := ExtractColors(cropped)
	return models.ThumbnailData{
		Base64:         encoded,
		Palette:        NewPalette(colors.Prominent),
		ProminentColor: colors.Prominent,
		AverageColor:   colors.Average,
	}, nil
}

// Pipeline turns artwork streams into ThumbnailData, remembering recent results so the
// same cover is not decoded again every time the OS re-announces media properties.
type Pipeline struct {
	cache *lru.Cache[uint64, models.ThumbnailData]
}

func NewPipeline(cacheSize int) (*Pipeline, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[uint64, models.ThumbnailData](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail cache: %w", err)
	}
	return &Pipeline{cache: cache}, nil
}

// Process never fails. Anything that goes wrong is logged and yields Default().
func (p *Pipeline) Process(ctx context.Context, src Source) models.ThumbnailData {
	if src == nil {
		metricThumbnails.WithLabelValues("empty").Inc()
		return Default()
	}

	rc, err := src.OpenRead(ctx)
	if err != nil {
		metricThumbnails.WithLabelValues("fetch_error").Inc()
		slog.Warn("Failed to open thumbnail stream", slog.String("error", err.Error()))
		return Default()
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		metricThumbnails.WithLabelValues("fetch_error").Inc()
		slog.Warn("Failed to read thumbnail stream", slog.String("error", err.Error()))
		return Default()
	}
	if len(data) == 0 {
		metricThumbnails.WithLabelValues("empty").Inc()
		return Default()
	}

	key := xxhash.Sum64(data)
	if cached, ok := p.cache.Get(key); ok {
		metricThumbnails.WithLabelValues("cached").Inc()
		return cached
	}

	thumb, err := FromBytes(data)
	if err != nil {
		metricThumbnails.WithLabelValues("decode_error").Inc()
		slog.Warn("Failed to process thumbnail",
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()))
		return thumb
	}
	p.cache.Add(key, thumb)
	metricThumbnails.WithLabelValues("ok").Inc()
	return thumb
}

// Len reports how many thumbnails are cached.
func (p *Pipeline) Len() int {
	return p.cache.Len()
}
