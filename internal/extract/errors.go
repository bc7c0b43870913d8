package extract

import "fmt"

// MediaNotFoundError reports a clip whose media file is missing or
// empty. Extraction checks this before any decoding starts.
type MediaNotFoundError struct {
	Path string
}

func (e *MediaNotFoundError) Error() string {
	return fmt.Sprintf("media file missing or empty: %s", e.Path)
}
