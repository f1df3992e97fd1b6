package model

import (
	"errors"
	"strings"
	"time"
)

// Digest is the lowercase hex SHA-256 of a blob's content.
type Digest string

// NoContent marks a provenance record that was tracked without a file.
const NoContent Digest = "No file uploaded"

// DigestLen is the length of a hex-encoded SHA-256 digest.
const DigestLen = 64

// ErrInvalidDigest is returned by ParseDigest for anything that is not 64 lowercase hex chars.
var ErrInvalidDigest = errors.New("invalid digest")

// ParseDigest validates s as a content digest. Uppercase hex is normalised.
func ParseDigest(s string) (Digest, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != DigestLen {
		return "", ErrInvalidDigest
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", ErrInvalidDigest
		}
	}
	return Digest(s), nil
}

func (d Digest) String() string { return string(d) }

// HasContent reports whether d refers to hashed content rather than the NoContent sentinel.
func (d Digest) HasContent() bool {
	return d != "" && d != NoContent
}

// ProvenanceRecord attests that content (or no content) was registered with
// descriptive metadata under an external transaction reference.
// Records are values and are never mutated once appended to a ledger.
type ProvenanceRecord struct {
	ID                string    `json:"id"`
	Source            string    `json:"source"`
	Description       string    `json:"description"`
	License           string    `json:"license"`
	ContentDigest     Digest    `json:"contentDigest"`
	CreatedAt         time.Time `json:"createdAt"`
	ExternalReference string    `json:"externalReference"`
	SubmittedBy       string    `json:"submittedBy,omitempty"`
}

// NewRecord carries the caller-supplied fields of a record about to be appended.
// An empty ContentDigest is stored as NoContent.
type NewRecord struct {
	Source            string
	Description       string
	License           string
	ContentDigest     Digest
	ExternalReference string
	SubmittedBy       string
}

// LedgerDocumentVersion is written into every persisted ledger document.
const LedgerDocumentVersion = 1

// LedgerDocument is the persisted form of a ledger: one JSON document whose
// records list is in insertion order.
type LedgerDocument struct {
	Version int                `json:"version"`
	Records []ProvenanceRecord `json:"records"`
}
