// Package hasher computes content digests of arbitrary byte sources.
//
// Every function is a pure function of its input bytes and may be called from
// any number of goroutines.
package hasher

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	sha256 "github.com/minio/sha256-simd"

	"provledger/internal/model"
)

// chunkSize bounds the memory used while streaming a source.
const chunkSize = 64 << 10

// ErrMismatch is returned by Verify when the content does not hash to the expected digest.
var ErrMismatch = errors.New("digest mismatch")

// ReadError reports a byte source that could not be fully consumed.
type ReadError struct {
	// Read is the number of bytes consumed before the failure.
	Read int64
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("hasher: read failed after %d bytes: %v", e.Read, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Sum streams r to EOF and returns its digest and the number of bytes hashed.
func Sum(r io.Reader) (model.Digest, int64, error) {
	if r == nil {
		return "", 0, &ReadError{Err: errors.New("nil reader")}
	}
	h := sha256.New()
	buf := make([]byte, chunkSize)
	n, err := io.CopyBuffer(h, r, buf)
	if err != nil {
		return "", n, &ReadError{Read: n, Err: err}
	}
	return model.Digest(hex.EncodeToString(h.Sum(nil))), n, nil
}

// Hash streams r to EOF and returns its digest.
func Hash(r io.Reader) (model.Digest, error) {
	d, _, err := Sum(r)
	return d, err
}

// HashBytes returns the digest of an in-memory buffer.
func HashBytes(b []byte) model.Digest {
	sum := sha256.Sum256(b)
	return model.Digest(hex.EncodeToString(sum[:]))
}

// HashFile returns the digest of the file at path.
func HashFile(path string) (model.Digest, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, &ReadError{Err: err}
	}
	defer f.Close()
	return Sum(f)
}

// Verify re-hashes r and compares it against want.
func Verify(r io.Reader, want model.Digest) error {
	got, err := Hash(r)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: got %s, expected %s", ErrMismatch, got, want)
	}
	return nil
}
