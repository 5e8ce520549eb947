// Package charts is a minimal collaborator for worksheet drawings: full
// chart layout is out of scope, but the worksheet XML emitter still needs
// somewhere to route <drawing> relationship placeholders and
// embedded-media previews without pulling that logic into internal/xmlio.
// Picture previews decode through golang.org/x/image.
package charts

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// DrawingRef is a tree-builder-only placeholder: enough to emit a
// <drawing r:id="..."/> reference from a worksheet part, with no layout
// computation behind it.
type DrawingRef struct {
	RelationshipID string
}

// XML renders the placeholder element.
func (d DrawingRef) XML() string {
	return fmt.Sprintf(`<drawing r:id="%s"/>`, d.RelationshipID)
}

// DecodeMediaPreview decodes an embedded xl/media/imageN.* blob far enough
// to report its pixel dimensions, the only thing this package needs before
// handing off to actual chart/drawing layout. Supports the formats
// registered above plus the stdlib's png/jpeg/gif via image.Decode's
// format registry.
func DecodeMediaPreview(blob []byte) (width, height int, format string, err error) {
	cfg, fmtName, err := image.DecodeConfig(bytes.NewReader(blob))
	if err != nil {
		return 0, 0, "", fmt.Errorf("charts: decode media preview: %w", err)
	}
	return cfg.Width, cfg.Height, fmtName, nil
}
