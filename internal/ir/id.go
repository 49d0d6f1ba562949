package ir

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multihash"
	"github.com/tyler-smith/go-bip39"
	"lukechampine.com/blake3"
)

// IfaceID is the content-addressed identifier of an Interface.
type IfaceID [32]byte

// Text form constants. An id renders as
//
//	urn:lnp-bp:if:<base58 chunks>#<mnemonic>
//
// where the base58 payload is the digest followed by a 4-byte checksum.
const (
	IDURNPrefix = "urn:lnp-bp:"
	IDHRI       = "if"

	idChecksumLen  = 4
	idFirstChunk   = 6
	idChunk        = 8
	idMnemonicBits = 11
	idMnemonicLen  = 3
)

// Parse failures. IDParseError wraps exactly one of these.
var (
	ErrInvalidPrefix    = errors.New("invalid identifier prefix")
	ErrInvalidEncoding  = errors.New("invalid base58 encoding")
	ErrInvalidLength    = errors.New("invalid identifier length")
	ErrInvalidChecksum  = errors.New("invalid identifier checksum")
	ErrMnemonicMismatch = errors.New("mnemonic does not match identifier checksum")
)

// IDParseError reports a malformed textual identifier.
type IDParseError struct {
	Input string
	Err   error
}

func (e *IDParseError) Error() string {
	return fmt.Sprintf("parse interface id %q: %v", e.Input, e.Err)
}

func (e *IDParseError) Unwrap() error { return e.Err }

// Hex returns the lowercase hex form of the digest.
func (id IfaceID) Hex() string { return hex.EncodeToString(id[:]) }

func (id IfaceID) checksum() [idChecksumLen]byte {
	sum := blake3.Sum256(append([]byte(IDHRI), id[:]...))
	var out [idChecksumLen]byte
	copy(out[:], sum[:idChecksumLen])
	return out
}

// Base58 returns the unchunked base58 payload (digest and checksum).
func (id IfaceID) Base58() string {
	sum := id.checksum()
	payload := make([]byte, 0, len(id)+idChecksumLen)
	payload = append(payload, id[:]...)
	payload = append(payload, sum[:]...)
	return base58.Encode(payload)
}

// Mnemonic returns three BIP-39 words derived from the checksum. They are a
// visual aid only and carry no more entropy than the checksum.
func (id IfaceID) Mnemonic() string {
	sum := id.checksum()
	bits := binary.BigEndian.Uint32(sum[:])
	words := bip39.GetWordList()
	out := make([]string, idMnemonicLen)
	for i := range out {
		out[i] = words[(bits>>(idMnemonicBits*i))&0x7ff]
	}
	return strings.Join(out, "-")
}

// String renders the full URN form with chunking and mnemonic.
func (id IfaceID) String() string {
	return IDURNPrefix + IDHRI + ":" + chunk(id.Base58()) + "#" + id.Mnemonic()
}

func chunk(s string) string {
	var parts []string
	size := idFirstChunk
	for len(s) > size {
		parts = append(parts, s[:size])
		s = s[size:]
		size = idChunk
	}
	parts = append(parts, s)
	return strings.Join(parts, "-")
}

// ParseIfaceID parses the textual form. The "urn:lnp-bp:" prefix, the
// "if:" part, chunk separators and the mnemonic suffix are all optional.
func ParseIfaceID(s string) (IfaceID, error) {
	var id IfaceID
	fail := func(err error) (IfaceID, error) {
		return IfaceID{}, &IDParseError{Input: s, Err: err}
	}

	body := strings.TrimSpace(s)
	body = strings.TrimPrefix(body, IDURNPrefix)
	if hri, rest, ok := strings.Cut(body, ":"); ok {
		if hri != IDHRI {
			return fail(fmt.Errorf("%w: %q", ErrInvalidPrefix, hri))
		}
		body = rest
	}
	body, mnemonic, hasMnemonic := strings.Cut(body, "#")

	raw, err := base58.Decode(strings.ReplaceAll(body, "-", ""))
	if err != nil || len(raw) == 0 {
		return fail(ErrInvalidEncoding)
	}
	if len(raw) != len(id)+idChecksumLen {
		return fail(fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(raw)))
	}
	copy(id[:], raw[:len(id)])

	sum := id.checksum()
	if string(sum[:]) != string(raw[len(id):]) {
		return fail(ErrInvalidChecksum)
	}
	if hasMnemonic && mnemonic != id.Mnemonic() {
		return fail(ErrMnemonicMismatch)
	}
	return id, nil
}

// MustParseIfaceID is like ParseIfaceID but panics on error.
// Use only in tests or for compile-time constants.
func MustParseIfaceID(s string) IfaceID {
	id, err := ParseIfaceID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// MarshalText implements encoding.TextMarshaler.
func (id IfaceID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *IfaceID) UnmarshalText(text []byte) error {
	parsed, err := ParseIfaceID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// CID renders the id as a CIDv1 (raw codec, sha2-256 multihash). The digest
// is already a SHA-256 output, so it is wrapped rather than rehashed.
func (id IfaceID) CID() string {
	mh, err := multihash.Encode(id[:], multihash.SHA2_256)
	if err != nil {
		// Only fails for unknown codes or wrong lengths, neither possible here.
		panic(fmt.Sprintf("IfaceID.CID: %v", err))
	}
	return cid.NewCidV1(cid.Raw, mh).String()
}

// IfaceIDFromCID parses a CID produced by IfaceID.CID.
func IfaceIDFromCID(s string) (IfaceID, error) {
	var id IfaceID
	c, err := cid.Decode(s)
	if err != nil {
		return id, &IDParseError{Input: s, Err: fmt.Errorf("%w: %v", ErrInvalidEncoding, err)}
	}
	if c.Type() != cid.Raw {
		return id, &IDParseError{Input: s, Err: fmt.Errorf("%w: codec %#x", ErrInvalidPrefix, c.Type())}
	}
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		return id, &IDParseError{Input: s, Err: fmt.Errorf("%w: %v", ErrInvalidEncoding, err)}
	}
	if decoded.Code != multihash.SHA2_256 {
		return id, &IDParseError{Input: s, Err: fmt.Errorf("%w: multihash code %#x", ErrInvalidPrefix, decoded.Code)}
	}
	if len(decoded.Digest) != len(id) {
		return id, &IDParseError{Input: s, Err: fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(decoded.Digest))}
	}
	copy(id[:], decoded.Digest)
	return id, nil
}
