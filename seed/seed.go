package seed

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Size is the number of bytes in a seed.
const Size = 32

// Seed fully determines a generated maze.
type Seed [Size]byte

// Seed-related errors.
var (
	ErrInvalidLength = errors.New("seed must be exactly 32 bytes")
	ErrEmptyRecord   = errors.New("empty seed record")
)

// Info describes how a maze is to be created. A nil Seed means "pick one at random".
type Info struct {
	Seed *Seed
}

// record is the wire form of Info.
type record struct {
	_    struct{} `cbor:",toarray"`
	Seed []byte
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("seed: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("seed: CBOR decoder initialization failed: " + err.Error())
	}
}

// New returns an Info carrying a copy of s.
func New(s Seed) Info {
	return Info{Seed: &s}
}

// FromBytes builds a Seed from a 32 byte slice.
func FromBytes(b []byte) (Seed, error) {
	var s Seed
	if len(b) != Size {
		return s, ErrInvalidLength
	}
	copy(s[:], b)
	return s, nil
}

// Parse decodes a hex encoded seed.
func Parse(text string) (Seed, error) {
	b, err := hex.DecodeString(text)
	if err != nil {
		return Seed{}, fmt.Errorf("parsing seed: %w", err)
	}
	return FromBytes(b)
}

// Random draws a seed from the system's secure random source.
func Random() Seed {
	var s Seed
	_, _ = rand.Read(s[:])
	return s
}

// String returns the hex form of the seed.
func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// Resolve returns an Info that always carries a seed, drawing a random one when absent.
// The second result reports whether a seed was drawn.
func (i Info) Resolve() (Info, bool) {
	if i.Seed != nil {
		return New(*i.Seed), false
	}
	return New(Random()), true
}

// Equal reports whether both records carry the same seed, or both carry none.
func (i Info) Equal(o Info) bool {
	if i.Seed == nil || o.Seed == nil {
		return i.Seed == nil && o.Seed == nil
	}
	return *i.Seed == *o.Seed
}

// Marshal serializes the record to its compact binary form.
func Marshal(i Info) ([]byte, error) {
	var r record
	if i.Seed != nil {
		r.Seed = i.Seed[:]
	}
	return encMode.Marshal(r)
}

// Unmarshal is the inverse of Marshal.
func Unmarshal(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmptyRecord
	}

	var r record
	if err := decMode.Unmarshal(data, &r); err != nil {
		return Info{}, fmt.Errorf("decoding seed record: %w", err)
	}

	if r.Seed == nil {
		return Info{}, nil
	}
	s, err := FromBytes(r.Seed)
	if err != nil {
		return Info{}, err
	}
	return New(s), nil
}
