package naming

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

var register_parsers sync.Once

// ExifTime returns the time an image was captured, read from its EXIF data.
func ExifTime(r io.Reader) (time.Time, error) {

	register_parsers.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})

	x, err := exif.Decode(r)

	if err != nil {
		return time.Time{}, fmt.Errorf("Failed to decode EXIF data, %w", err)
	}

	t, err := x.DateTime()

	if err != nil {
		return time.Time{}, fmt.Errorf("Failed to derive capture time, %w", err)
	}

	return t, nil
}
