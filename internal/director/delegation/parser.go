// Package delegation implements C1, the delegation-record parser: a
// pure, synchronous decoder for the delegation program's account data.
package delegation

import (
	"encoding/binary"
	"fmt"

	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
)

// recordBodyLen is the fixed-layout record size starting at byte 8:
// authority (32B) + owner (32B) + delegation_slot (8B LE) +
// commit_frequency_ms (8B LE).
const (
	discriminatorLen = 8
	recordBodyLen    = 32 + 32 + 8 + 8
	minRecordLen     = discriminatorLen + recordBodyLen
)

// ParseError carries the raw cause string for a malformed delegation
// record, matching spec.md §4.1's "ParseError carrying the raw cause
// string" contract.
type ParseError struct {
	Cause string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse delegation record: %s", e.Cause)
}

// ParseRecord decodes a delegation record account's opaque bytes.
//
// The wire layout is an 8-byte discriminator prefix followed by the
// fixed-layout record. Misaligned or too-short inputs become
// ParseError. The input is defensively copied into an owned buffer
// before field extraction, matching the source's approach to avoiding
// unaligned-read panics in other languages; in Go there is no
// alignment hazard, but the copy also protects the returned record
// from aliasing a caller-owned buffer.
func ParseRecord(data []byte) (coretypes.DelegationRecord, error) {
	var record coretypes.DelegationRecord
	if len(data) < minRecordLen {
		return record, &ParseError{Cause: fmt.Sprintf("expected at least %d bytes, got %d", minRecordLen, len(data))}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	body := buf[discriminatorLen:]

	copy(record.Authority[:], body[0:32])
	copy(record.Owner[:], body[32:64])
	record.DelegationSlot = binary.LittleEndian.Uint64(body[64:72])
	record.CommitFrequency = coretypes.CommitFrequency{Millis: binary.LittleEndian.Uint64(body[72:80])}
	return record, nil
}
