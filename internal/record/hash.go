package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for digests. The version suffix allows a later algorithm
// change without ambiguity.
const (
	DomainRecord = "oracle/record/v1"
	DomainState  = "oracle/state/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordDigest computes the content digest of a single entry.
func RecordDigest(e Entry) (string, error) {
	canonical, err := MarshalCanonical(e)
	if err != nil {
		return "", fmt.Errorf("RecordDigest: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// Digest computes the state digest of an ordered listing. Two stores with
// the same entries in a different order have different digests.
func Digest(entries []Entry) (string, error) {
	if entries == nil {
		entries = []Entry{}
	}
	canonical, err := MarshalCanonical(entries)
	if err != nil {
		return "", fmt.Errorf("Digest: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}
