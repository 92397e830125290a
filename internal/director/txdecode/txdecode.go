// Package txdecode decodes the base58/base64 encoded transaction body
// of sendTransaction into a coretypes.TransactionAccountsHolder,
// mirroring the size ceilings and wire layout
// original_source/director-rpc/src/decoders.rs enforces before handing
// the bytes to bincode.
package txdecode

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
)

// Encoding selects the wire encoding of the transaction body, matching
// sendTransaction's config.encoding (spec.md §6).
type Encoding int

const (
	Base58 Encoding = iota
	Base64
)

// ParseEncoding maps the JSON-RPC config string onto an Encoding,
// defaulting to Base58 as Solana's sendTransaction does when the field
// is absent.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "base58":
		return Base58, nil
	case "base64":
		return Base64, nil
	default:
		return 0, fmt.Errorf("unsupported encoding: %s", s)
	}
}

const (
	maxBase58Size  = 1683
	maxBase64Size  = 1644
	packetDataSize = 1232 // Solana's PACKET_DATA_SIZE wire ceiling.
)

// ErrInvalidTransaction marks any failure in the decode/deserialize
// pipeline; callers map it onto JSON-RPC -32602 (spec.md §6).
var ErrInvalidTransaction = fmt.Errorf("invalid transaction")

// DecodeAccountsHolder decodes encoded per the given Encoding, enforces
// the encoded- and decoded-size ceilings, and extracts the writable/
// readonly/payer account lists from the (legacy or v0) message header.
// It does not resolve address-table lookups (spec.md §9 open question,
// inherited unresolved).
func DecodeAccountsHolder(encoded string, enc Encoding) (coretypes.TransactionAccountsHolder, error) {
	var holder coretypes.TransactionAccountsHolder

	var raw []byte
	switch enc {
	case Base58:
		if len(encoded) > maxBase58Size {
			return holder, fmt.Errorf("%w: base58 body too large: %d bytes (max %d)", ErrInvalidTransaction, len(encoded), maxBase58Size)
		}
		decoded, err := base58.Decode(encoded)
		if err != nil {
			return holder, fmt.Errorf("%w: invalid base58 encoding: %v", ErrInvalidTransaction, err)
		}
		raw = decoded
	case Base64:
		if len(encoded) > maxBase64Size {
			return holder, fmt.Errorf("%w: base64 body too large: %d bytes (max %d)", ErrInvalidTransaction, len(encoded), maxBase64Size)
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return holder, fmt.Errorf("%w: invalid base64 encoding: %v", ErrInvalidTransaction, err)
		}
		raw = decoded
	default:
		return holder, fmt.Errorf("%w: unknown encoding", ErrInvalidTransaction)
	}

	if len(raw) > packetDataSize {
		return holder, fmt.Errorf("%w: decoded transaction too large: %d bytes (max %d)", ErrInvalidTransaction, len(raw), packetDataSize)
	}

	return decodeMessage(raw)
}

// decodeMessage walks a serialized VersionedTransaction only as far as
// its account-keys table: signatures (short-vec of 64-byte blobs), an
// optional version prefix byte, the 3-byte MessageHeader, then the
// short-vec of 32-byte account keys. Instructions and address-table
// lookups are not parsed; they carry no information this holder needs.
func decodeMessage(raw []byte) (coretypes.TransactionAccountsHolder, error) {
	var holder coretypes.TransactionAccountsHolder
	r := bytes.NewReader(raw)

	numSignatures, err := readCompactU16(r)
	if err != nil {
		return holder, fmt.Errorf("%w: signatures length: %v", ErrInvalidTransaction, err)
	}
	if _, err := r.Seek(int64(numSignatures)*64, 1); err != nil {
		return holder, fmt.Errorf("%w: skip signatures: %v", ErrInvalidTransaction, err)
	}

	versionOrNumRequired, err := r.ReadByte()
	if err != nil {
		return holder, fmt.Errorf("%w: message prefix: %v", ErrInvalidTransaction, err)
	}

	var numRequiredSignatures byte
	if versionOrNumRequired&0x80 != 0 {
		// Versioned message: this byte is a version tag, the real
		// header.num_required_signatures follows.
		b, err := r.ReadByte()
		if err != nil {
			return holder, fmt.Errorf("%w: versioned header: %v", ErrInvalidTransaction, err)
		}
		numRequiredSignatures = b
	} else {
		numRequiredSignatures = versionOrNumRequired
	}

	numReadonlySigned, err := r.ReadByte()
	if err != nil {
		return holder, fmt.Errorf("%w: header: %v", ErrInvalidTransaction, err)
	}
	numReadonlyUnsigned, err := r.ReadByte()
	if err != nil {
		return holder, fmt.Errorf("%w: header: %v", ErrInvalidTransaction, err)
	}

	numAccounts, err := readCompactU16(r)
	if err != nil {
		return holder, fmt.Errorf("%w: account keys length: %v", ErrInvalidTransaction, err)
	}
	if int(numRequiredSignatures) > int(numAccounts) {
		return holder, fmt.Errorf("%w: num_required_signatures exceeds account count", ErrInvalidTransaction)
	}

	keys := make([]coretypes.Address, numAccounts)
	for i := range keys {
		var key coretypes.Address
		if _, err := readFull(r, key[:]); err != nil {
			return holder, fmt.Errorf("%w: account key %d: %v", ErrInvalidTransaction, i, err)
		}
		keys[i] = key
	}

	numSignedWritable := int(numRequiredSignatures) - int(numReadonlySigned)
	numUnsignedWritable := int(numAccounts) - int(numRequiredSignatures) - int(numReadonlyUnsigned)
	if numSignedWritable < 0 || numUnsignedWritable < 0 {
		return holder, fmt.Errorf("%w: inconsistent message header", ErrInvalidTransaction)
	}

	for i, key := range keys {
		signed := i < int(numRequiredSignatures)
		var readonly bool
		if signed {
			readonly = i >= numSignedWritable
		} else {
			unsignedIdx := i - int(numRequiredSignatures)
			readonly = unsignedIdx >= numUnsignedWritable
		}
		if readonly {
			holder.Readonly = append(holder.Readonly, key)
		} else {
			holder.Writable = append(holder.Writable, key)
		}
	}
	if len(keys) > 0 {
		holder.Payer = keys[0]
	}
	return holder, nil
}

func readCompactU16(r *bytes.Reader) (uint16, error) {
	var result uint16
	for i := 0; i < 3; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint16(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, fmt.Errorf("compact-u16 overflow")
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		b, err := r.ReadByte()
		if err != nil {
			return n, err
		}
		buf[n] = b
		n++
	}
	return n, nil
}
