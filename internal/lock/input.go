// Package lock implements lock-mode passphrase capture: typed input is held
// in locked memory and checked against a bcrypt hash before the screensaver
// will exit.
package lock

import (
	"unicode/utf8"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/bcrypt"
)

// Arrow keys can be part of a passphrase. Each is stored as a two-byte marker
// starting with 0x00, which never occurs inside UTF-8 text.
const (
	ArrowUpMarker    = "\x00\x01"
	ArrowDownMarker  = "\x00\x02"
	ArrowLeftMarker  = "\x00\x03"
	ArrowRightMarker = "\x00\x04"
)

// IsArrowMarkerSuffix reports whether data ends with an arrow marker, and how
// many bytes a backspace should remove for it. Non-marker suffixes report a
// removal width of 1.
func IsArrowMarkerSuffix(data []byte) (bool, int) {
	if len(data) >= 2 && data[len(data)-2] == 0x00 {
		switch data[len(data)-1] {
		case 0x01, 0x02, 0x03, 0x04:
			return true, 2
		}
	}
	return false, 1
}

// SecureBuffer accumulates passphrase bytes in a memguard-locked allocation
// so the plaintext never sits in GC-managed memory or a swap page.
type SecureBuffer struct {
	buf *memguard.LockedBuffer
}

func NewSecureBuffer() *SecureBuffer {
	return &SecureBuffer{}
}

// AppendRune appends one typed character.
func (sb *SecureBuffer) AppendRune(r rune) {
	sb.append([]byte(string(r)))
}

// AppendString appends raw bytes, used for the arrow markers.
func (sb *SecureBuffer) AppendString(s string) {
	sb.append([]byte(s))
}

func (sb *SecureBuffer) append(p []byte) {
	if len(p) == 0 {
		return
	}
	joined := make([]byte, 0, sb.Len()+len(p))
	joined = append(joined, sb.Bytes()...)
	joined = append(joined, p...)
	old := sb.buf
	// NewBufferFromBytes wipes the source slice, so the only plaintext copy
	// outside locked memory dies here.
	sb.buf = memguard.NewBufferFromBytes(joined)
	if old != nil {
		old.Destroy()
	}
}

// Backspace removes the last typed symbol: a whole arrow marker, or the last
// rune however many bytes it spans. Reports false on an empty buffer.
func (sb *SecureBuffer) Backspace() bool {
	data := sb.Bytes()
	if len(data) == 0 {
		return false
	}
	remove := 1
	if ok, n := IsArrowMarkerSuffix(data); ok {
		remove = n
	} else if _, size := utf8.DecodeLastRune(data); size > 0 {
		remove = size
	}
	keep := len(data) - remove
	var next *memguard.LockedBuffer
	if keep > 0 {
		next = memguard.NewBufferFromBytes(append([]byte(nil), data[:keep]...))
	}
	sb.buf.Destroy()
	sb.buf = next
	return true
}

// Len is the buffered length in bytes.
func (sb *SecureBuffer) Len() int {
	if sb.buf == nil {
		return 0
	}
	return sb.buf.Size()
}

// Bytes exposes the locked bytes. The slice aliases locked memory; callers
// must not retain it past the next mutation.
func (sb *SecureBuffer) Bytes() []byte {
	if sb.buf == nil {
		return nil
	}
	return sb.buf.Bytes()
}

// VisualLen counts typed symbols: each rune and each arrow marker is one.
func (sb *SecureBuffer) VisualLen() int {
	data := sb.Bytes()
	n := 0
	for len(data) > 0 {
		if len(data) >= 2 && data[0] == 0x00 && data[1] >= 0x01 && data[1] <= 0x04 {
			data = data[2:]
		} else {
			_, size := utf8.DecodeRune(data)
			data = data[size:]
		}
		n++
	}
	return n
}

// Reset wipes the current attempt; the buffer is reusable afterwards.
func (sb *SecureBuffer) Reset() {
	if sb.buf != nil {
		sb.buf.Destroy()
		sb.buf = nil
	}
}

// Destroy wipes and releases the buffer.
func (sb *SecureBuffer) Destroy() {
	sb.Reset()
}

// Verify checks the buffered passphrase against a bcrypt hash.
func (sb *SecureBuffer) Verify(hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), sb.Bytes()) == nil
}

// HashPassphrase produces the bcrypt hash the lock mode verifies against.
func HashPassphrase(pass []byte) (string, error) {
	h, err := bcrypt.GenerateFromPassword(pass, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
