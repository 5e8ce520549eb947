package charts

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMediaPreviewReadsDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	w, h, format, err := DecodeMediaPreview(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
	assert.Equal(t, "png", format)
}

func TestDecodeMediaPreviewRejectsGarbage(t *testing.T) {
	_, _, _, err := DecodeMediaPreview([]byte("not an image"))
	assert.Error(t, err)
}

func TestDrawingRefXML(t *testing.T) {
	d := DrawingRef{RelationshipID: "rId3"}
	assert.Equal(t, `<drawing r:id="rId3"/>`, d.XML())
}
