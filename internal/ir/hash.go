package ir

import (
	"crypto/sha256"
	"fmt"
)

// Domain tags for content-addressed identity. Each content type hashes under
// its own tag so equal bytes of different kinds never share an id.
const (
	DomainInterface = "urn:lnp-bp:rgb:interface#2024-02-04"
	DomainSemID     = "urn:ubideco:semid#contractum"
)

// digestWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func digestWithDomain(domain string, data []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// CanonicalBytes returns the canonical encoding of the interface: the exact
// preimage of its id.
func CanonicalBytes(i *Interface) ([]byte, error) {
	return MarshalCanonical(EncodeInterface(i))
}

// InterfaceID derives the content-addressed identifier of an interface.
//
// The canonical encoding is total over the data model: EncodeInterface only
// emits strings, integers, booleans, arrays and objects. A failure here is a
// programming error in the encoder, hence the panic.
func InterfaceID(i *Interface) IfaceID {
	canonical, err := CanonicalBytes(i)
	if err != nil {
		panic(fmt.Sprintf("InterfaceID: canonical encoding failed: %v", err))
	}
	return IfaceID(digestWithDomain(DomainInterface, canonical))
}
