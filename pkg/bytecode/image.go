package bytecode

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const (
	ImageMagic   = "NIXC"
	ImageVersion = 1
)

var ErrBadImage = errors.New("not a nix program image")

// image is the on-disk envelope of a Program.
type image struct {
	Magic   string  `cbor:"1,keyasint"`
	Version int     `cbor:"2,keyasint"`
	Tokens  []Token `cbor:"3,keyasint"`
}

// Canonical mode keeps images byte-identical for identical programs.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a Program to CBOR bytes.
func Marshal(p Program) ([]byte, error) {
	return cborEncMode.Marshal(image{
		Magic:   ImageMagic,
		Version: ImageVersion,
		Tokens:  p,
	})
}

// Unmarshal deserializes a Program from CBOR bytes.
func Unmarshal(data []byte) (Program, error) {
	var img image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadImage, err)
	}
	if img.Magic != ImageMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadImage, img.Magic)
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadImage, img.Version)
	}

	for i, tok := range img.Tokens {
		if !tok.Op.Valid() {
			return nil, fmt.Errorf("%w: token %d has opcode %d", ErrBadImage, i, int(tok.Op))
		}
	}

	return Program(img.Tokens), nil
}
