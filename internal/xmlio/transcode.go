package xmlio

import (
	"io"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// TranscodeWindows1252 wraps r so bytes declared (or sniffed) as
// Windows-1252 decode to UTF-8 before reaching the XML decoder. Legacy
// producers occasionally emit sharedStrings.xml in a non-UTF-8 code page
// despite OOXML requiring UTF-8. This is a standalone transcoder built on
// golang.org/x/text's decoder; newDecoder does not call it (its
// CharsetReader is charset.NewReaderLabel).
func TranscodeWindows1252(r io.Reader) io.Reader {
	return transform.NewReader(r, charmap.Windows1252.NewDecoder())
}
