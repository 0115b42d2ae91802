package processor

import (
	"fmt"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/exif"

	"filelens/pkg/format"
)

// Fields that must be gone from a stripped image.
var residualExifFields = []exif.FieldName{
	exif.Make,
	exif.Model,
	exif.Software,
	exif.Artist,
	exif.Copyright,
	exif.DateTime,
	exif.DateTimeOriginal,
	exif.ImageDescription,
	exif.ExifIFDPointer,
	exif.GPSInfoIFDPointer,
	exif.GPSLatitude,
	exif.GPSLongitude,
}

// verifyImage re-reads a stripped file with an independent EXIF decoder and
// re-runs the segment walk, which must find nothing left to drop.
func verifyImage(path string, kind format.Kind, preserveICC bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if kind != format.KindPNG {
		if x, err := exif.Decode(f); err == nil {
			for _, name := range residualExifFields {
				if _, err := x.Get(name); err == nil {
					return fmt.Errorf("EXIF field %s still present", name)
				}
			}
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	var leftover int
	switch kind {
	case format.KindJPEG:
		leftover, err = stripJPEG(f, io.Discard, preserveICC)
	case format.KindPNG:
		leftover, err = stripPNG(f, io.Discard, preserveICC)
	case format.KindTIFF:
		leftover, err = stripTIFF(f, io.Discard, preserveICC)
	}
	if err != nil {
		return fmt.Errorf("rewritten file does not parse: %w", err)
	}
	if leftover > 0 {
		return fmt.Errorf("%d metadata blocks still present", leftover)
	}
	return nil
}
