// Package media stores images attached to posts.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	"image/png"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"yatube/internal/models"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMaxUploadSizeMB = 5
	MaxDimension           = 1280
	JPEGQuality            = 85

	// PostsDir is the sub-directory (and URL prefix) for post images.
	PostsDir = "posts"
	// URLPrefix is where the media root is served.
	URLPrefix = "/media/"
)

const invalidImageMessage = "Загрузите правильное изображение. Файл, который вы загрузили, поврежден или не является изображением."

// Upload is one submitted file.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Store writes normalized images under a root directory, named by content hash.
type Store struct {
	root               string
	maxUploadSizeBytes int64
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, maxUploadSizeMB int) *Store {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultMaxUploadSizeMB
	}
	return &Store{
		root:               dir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Root is the directory served under URLPrefix.
func (s *Store) Root() string {
	return s.root
}

// MaxUploadBytes is the accepted upload size.
func (s *Store) MaxUploadBytes() int64 {
	return s.maxUploadSizeBytes
}

// URL maps a stored relative name to its public path.
func URL(name string) string {
	if name == "" {
		return ""
	}
	return URLPrefix + strings.TrimPrefix(name, "/")
}

// Save validates, downsizes and writes the image, returning its name relative
// to the root (posts/<sha256>.<ext>). Identical results share one file.
func (s *Store) Save(ctx context.Context, in Upload) (string, error) {
	name, _, err := s.Put(ctx, in)
	return name, err
}

// Put is Save that also reports whether this call wrote a new file.
func (s *Store) Put(ctx context.Context, in Upload) (name string, created bool, err error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if len(in.Content) == 0 {
		return "", false, imageError("Отправленный файл пуст.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", false, imageError(fmt.Sprintf("Файл слишком большой (максимум %d МБ).", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return "", false, imageError(invalidImageMessage)
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", false, imageError(invalidImageMessage)
	}

	sourceMimeType := decodedFormatToMime(format)
	if sourceMimeType == "" {
		return "", false, imageError(invalidImageMessage)
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMimeType) {
		return "", false, imageError(invalidImageMessage)
	}

	resized := resizeToFit(decoded, MaxDimension, MaxDimension)

	var encoded []byte
	var ext string
	switch sourceMimeType {
	case "image/png", "image/gif":
		encoded, err = encodePNG(resized)
		ext = "png"
	default:
		encoded, err = encodeJPEG(resized, JPEGQuality)
		ext = "jpg"
	}
	if err != nil {
		return "", false, models.NewInternalError(err)
	}

	name = path.Join(PostsDir, contentHash(encoded)+"."+ext)
	abs := filepath.Join(s.root, filepath.FromSlash(name))
	if _, err := os.Stat(abs); err == nil {
		return name, false, nil
	}
	if err := writeFileAtomic(abs, encoded); err != nil {
		return "", false, models.NewInternalError(err)
	}
	return name, true, nil
}

// Remove deletes a stored file; a missing file is not an error.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}
	clean := path.Clean("/" + name)
	if !strings.HasPrefix(clean, "/"+PostsDir+"/") {
		return fmt.Errorf("refusing to remove %q outside %s", name, PostsDir)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func imageError(msg string) error {
	return models.NewFieldValidationError(map[string]string{"image": msg})
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

	scale := float64(maxWidth) / float64(w)
	if scaleH := float64(maxHeight) / float64(h); scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

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

func encodePNG(img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// writeFileAtomic writes to a temp file in the same directory and renames it.
func writeFileAtomic(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp := filepath.Join(dir, ".upload-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
