package testsupport

import (
	"testing"
)

// jpegHeader is enough of a JPEG preamble for code that only sniffs the
// magic bytes.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

// FrameBytes returns a deterministic fake JPEG payload of at least size
// bytes. A size <= 0 yields just the header.
func FrameBytes(t testing.TB, size int) []byte {
	t.Helper()

	payload := make([]byte, 0, len(jpegHeader)+size)
	payload = append(payload, jpegHeader...)
	for len(payload) < len(jpegHeader)+size {
		payload = append(payload, 0x42)
	}
	return payload
}
