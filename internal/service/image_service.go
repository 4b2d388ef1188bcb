package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io/fs"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/models"
	"marketplace/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	ImageURLPrefix = "/upload/images/"
	JPEGQuality    = 85
	WebPQuality    = 80

	processingUnavailableNote = "image processing unavailable; only the original was stored"
)

// ImageVariant is a named bounding box. Images are scaled down to fit it and
// never scaled up.
type ImageVariant struct {
	Name   string
	Width  int
	Height int
}

var imageVariants = []ImageVariant{
	{Name: "thumbnail", Width: 150, Height: 150},
	{Name: "medium", Width: 400, Height: 400},
	{Name: "large", Width: 800, Height: 600},
}

type UploadImageInput struct {
	Filename string
	Content  []byte
}

// UploadResult is the body returned by POST /upload/image.
type UploadResult struct {
	Message      string            `json:"message"`
	Filename     string            `json:"filename"`
	OriginalName string            `json:"original_name"`
	Size         int64             `json:"size"`
	URLs         map[string]string `json:"urls"`
	Processed    bool              `json:"processed"`
	Note         string            `json:"note,omitempty"`
}

// StoredImage describes one original on disk.
type StoredImage struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type ImageService struct {
	dir        string
	maxBytes   int64
	extensions []string
	processing bool
	webp       bool
	maxPixels  int64
	newName    func() string
}

func NewImageService(cfg *config.Config) *ImageService {
	return &ImageService{
		dir:        filepath.Join(cfg.UploadDir, "images"),
		maxBytes:   cfg.MaxUploadSize,
		extensions: cfg.ImageExtensions(),
		processing: cfg.ImageProcessingEnabled,
		webp:       cfg.ImageWebPVariants,
		maxPixels:  cfg.ImageMaxPixels,
		newName:    uuid.NewString,
	}
}

// Dir is the directory holding originals and variants.
func (s *ImageService) Dir() string {
	return s.dir
}

// MaxBytes is the upload size limit.
func (s *ImageService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates an image, stores it as <uuid><ext> and writes the resized
// variants. On a processing failure every file written is removed.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !slices.Contains(s.extensions, ext) {
		observability.ImageUploads.WithLabelValues("rejected").Inc()
		return nil, models.NewBadRequestError("File type not allowed. Supported types: " + strings.Join(s.extensions, ", "))
	}
	if int64(len(in.Content)) > s.maxBytes {
		observability.ImageUploads.WithLabelValues("rejected").Inc()
		return nil, models.NewBadRequestError(fmt.Sprintf("File size too large. Maximum size: %dMB", s.maxBytes/(1024*1024)))
	}
	if len(in.Content) == 0 {
		observability.ImageUploads.WithLabelValues("rejected").Inc()
		return nil, models.NewBadRequestError("No file uploaded")
	}
	if !strings.HasPrefix(http.DetectContentType(in.Content), "image/") {
		observability.ImageUploads.WithLabelValues("rejected").Inc()
		return nil, models.NewBadRequestError("Uploaded file is not an image")
	}
	// Size the canvas from the header before anything decodes the pixels.
	if dims, _, err := image.DecodeConfig(bytes.NewReader(in.Content)); err == nil && s.maxPixels > 0 &&
		int64(dims.Width)*int64(dims.Height) > s.maxPixels {
		observability.ImageUploads.WithLabelValues("rejected").Inc()
		return nil, models.NewBadRequestError(fmt.Sprintf("Image dimensions too large. Maximum: %d pixels", s.maxPixels))
	}

	name := s.newName() + ext
	originalPath := filepath.Join(s.dir, name)
	if err := writeBytesToFile(originalPath, in.Content); err != nil {
		observability.ImageUploads.WithLabelValues("failed").Inc()
		return nil, models.NewInternalError(err)
	}

	result := &UploadResult{
		Message:      "Image uploaded successfully",
		Filename:     name,
		OriginalName: in.Filename,
		Size:         int64(len(in.Content)),
		URLs:         map[string]string{"original": ImageURLPrefix + name},
	}
	if !s.processing {
		result.Note = processingUnavailableNote
		observability.ImageUploads.WithLabelValues("stored").Inc()
		return result, nil
	}

	written, err := s.writeVariants(name, in.Content, result.URLs)
	if err != nil {
		cleanupImageFiles(append(written, originalPath))
		observability.ImageUploads.WithLabelValues("failed").Inc()
		observability.GlobalLogger.ErrorContext(ctx, "image processing failed",
			"filename", name,
			"error", err,
		)
		return nil, models.NewInternalError(fmt.Errorf("process image %s: %w", name, err))
	}

	result.Processed = true
	observability.ImageUploads.WithLabelValues("processed").Inc()
	return result, nil
}

func (s *ImageService) writeVariants(name string, content []byte, urls map[string]string) ([]string, error) {
	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	flat := flattenOnWhite(decoded)
	base := strings.TrimSuffix(name, filepath.Ext(name))

	var written []string
	for _, v := range imageVariants {
		resized := resizeToFit(flat, v.Width, v.Height)

		jpgBytes, err := encodeJPEG(resized, JPEGQuality)
		if err != nil {
			return written, err
		}
		jpgName := fmt.Sprintf("%s_%s.jpg", base, v.Name)
		jpgPath := filepath.Join(s.dir, jpgName)
		if err := writeBytesToFile(jpgPath, jpgBytes); err != nil {
			return written, err
		}
		written = append(written, jpgPath)
		urls[v.Name] = ImageURLPrefix + jpgName

		if !s.webp {
			continue
		}
		webpBytes, err := encodeWebP(resized, WebPQuality)
		if err != nil {
			return written, err
		}
		webpPath := filepath.Join(s.dir, fmt.Sprintf("%s_%s.webp", base, v.Name))
		if err := writeBytesToFile(webpPath, webpBytes); err != nil {
			return written, err
		}
		written = append(written, webpPath)
	}
	return written, nil
}

// Resolve returns the on-disk path of a stored file.
func (s *ImageService) Resolve(filename string) (string, error) {
	if !isSafeFilename(filename) {
		return "", models.NewBadRequestError("Invalid filename format")
	}
	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", models.NewNotFoundError("Image")
		}
		return "", models.NewInternalError(err)
	}
	if info.IsDir() {
		return "", models.NewNotFoundError("Image")
	}
	return path, nil
}

// Delete removes an original and every variant derived from it, returning
// how many files were removed.
func (s *ImageService) Delete(ctx context.Context, filename string) (int, error) {
	ext := filepath.Ext(filename)
	if !isSafeFilename(filename) || ext == "" || ext == filename {
		return 0, models.NewBadRequestError("Invalid filename format")
	}
	base := strings.TrimSuffix(filename, ext)

	candidates := []string{filepath.Join(s.dir, filename)}
	for _, v := range imageVariants {
		matches, err := filepath.Glob(filepath.Join(s.dir, escapeGlob(base)+"_"+v.Name+".*"))
		if err != nil {
			return 0, models.NewInternalError(err)
		}
		candidates = append(candidates, matches...)
	}

	deleted := 0
	for _, path := range candidates {
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				observability.GlobalLogger.WarnContext(ctx, "failed to delete image file",
					"path", path,
					"error", err,
				)
			}
			continue
		}
		deleted++
	}
	if deleted == 0 {
		return 0, models.NewNotFoundError("Image")
	}
	return deleted, nil
}

// List returns stored originals sorted by name. Variants are skipped.
func (s *ImageService) List() ([]StoredImage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []StoredImage{}, nil
		}
		return nil, models.NewInternalError(err)
	}

	images := []StoredImage{}
	for _, e := range entries {
		if e.IsDir() || isVariantName(e.Name()) {
			continue
		}
		if !slices.Contains(s.extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		images = append(images, StoredImage{
			Filename:   e.Name(),
			URL:        ImageURLPrefix + e.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Filename < images[j].Filename })
	return images, nil
}

func isVariantName(name string) bool {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, v := range imageVariants {
		if strings.HasSuffix(base, "_"+v.Name) {
			return true
		}
	}
	return false
}

// isSafeFilename rejects anything that could address a file outside the
// image directory.
func isSafeFilename(name string) bool {
	if name == "" || len(name) > 255 || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`+"\x00") {
		return false
	}
	return filepath.Base(name) == name
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}

// flattenOnWhite drops transparency so variants can be encoded as JPEG.
func flattenOnWhite(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(math.Round(float64(w)*scale)), 1)
	newH := max(int(math.Round(float64(h)*scale)), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
