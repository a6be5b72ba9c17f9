package evidence

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxImageBytes bounds a single evidence upload.
const MaxImageBytes = 8 << 20

var ErrUnsupportedImage = errors.New("evidence: only jpeg, png, webp and gif images are accepted")

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// SniffImage peeks at the head of r and returns a reader that still yields
// the full content, along with the detected content type.
func SniffImage(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", fmt.Errorf("evidence: read image: %w", err)
	}
	contentType := http.DetectContentType(head)
	if !allowedTypes[contentType] {
		return nil, contentType, ErrUnsupportedImage
	}
	return br, contentType, nil
}
