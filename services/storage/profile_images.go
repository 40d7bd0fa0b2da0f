package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/image/draw"
)

const (
	jpegQuality = 75
	// maxUploadPixels bounds the decoded size of an upload.
	maxUploadPixels = 4096 * 4096
)

var (
	ErrImageNotFound   = errors.New("profile image not found")
	ErrInvalidUID      = errors.New("invalid user id")
	ErrImageDimensions = errors.New("profile image dimensions are too large")

	uidPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

// ProfileImageCache keeps <uid>.jpg files in a local directory.
type ProfileImageCache struct {
	dir string
}

// NewProfileImageCache creates dir if needed.
func NewProfileImageCache(dir string) (*ProfileImageCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &ProfileImageCache{dir: dir}, nil
}

func (c *ProfileImageCache) path(uid string) (string, error) {
	if !uidPattern.MatchString(uid) {
		return "", ErrInvalidUID
	}
	return filepath.Join(c.dir, uid+".jpg"), nil
}

// Save encodes img as JPEG and replaces any earlier image of uid.
func (c *ProfileImageCache) Save(uid string, img image.Image) error {
	path, err := c.path(uid)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, uid+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeJPEG(tmp, img); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}
	return nil
}

// EncodeJPEG writes img with the quality used for stored profile images.
func EncodeJPEG(w io.Writer, img image.Image) error {
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// SaveEncoded checks the header of a JPEG or PNG upload against the pixel
// budget before decoding it, then stores it like Save.
func (c *ProfileImageCache) SaveEncoded(uid string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode upload: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxUploadPixels {
		return ErrImageDimensions
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode upload: %w", err)
	}
	return c.Save(uid, img)
}

// Load reads the stored image and scales it down to fit within
// maxWidth x maxHeight, keeping the aspect ratio. Non-positive bounds
// disable scaling on that axis. Images are never scaled up.
func (c *ProfileImageCache) Load(uid string, maxWidth, maxHeight int) (image.Image, error) {
	path, err := c.path(uid)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	width, height := FitWithin(cfg.Width, cfg.Height, maxWidth, maxHeight)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind image: %w", err)
	}
	src, err := jpeg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if width == cfg.Width && height == cfg.Height {
		return src, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst, nil
}

func (c *ProfileImageCache) Delete(uid string) error {
	path, err := c.path(uid)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// FitWithin returns the largest size with the aspect ratio of w x h that
// fits in maxW x maxH without exceeding the original size.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
	}
	if scale == 1.0 {
		return w, h
	}
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return nw, nh
}
