package docforge

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/zeebo/blake3"
	_ "golang.org/x/image/bmp"

	wml "github.com/benjaminschreck/docforge/pkg/docforge/xml"
)

// detectImageType sniffs the MIME type of an image payload.
func detectImageType(data []byte) string {
	return http.DetectContentType(data)
}

// imageExtension returns the media file extension for an embeddable MIME type.
func imageExtension(mimeType string) (string, bool) {
	switch mimeType {
	case "image/png":
		return "png", true
	case "image/jpeg":
		return "jpeg", true
	case "image/gif":
		return "gif", true
	case "image/bmp":
		return "bmp", true
	default:
		return "", false
	}
}

// imageExtent decodes the pixel size of an image and converts it to a displayed
// extent in EMU, scaled down proportionally to maxWidth.
func imageExtent(data []byte, maxWidth int64) (int64, int64, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("invalid image size %dx%d", cfg.Width, cfg.Height)
	}

	cx := int64(cfg.Width) * wml.EMUPerPixel
	cy := int64(cfg.Height) * wml.EMUPerPixel
	if maxWidth > 0 && cx > maxWidth {
		cy = cy * maxWidth / cx
		cx = maxWidth
	}
	if cy < 1 {
		cy = 1
	}
	return cx, cy, nil
}

// mediaFilename generates a stable file name for an image part.
func mediaFilename(img Image, ext string) string {
	sum := blake3.Sum256(img.Data)
	return fmt.Sprintf("image%d_%s.%s", img.ID, hex.EncodeToString(sum[:4]), ext)
}

// ContentHash returns the hex blake3 digest of data.
func ContentHash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
