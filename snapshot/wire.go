package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Canonical encoding keeps images byte-identical for identical tables,
// so they can be content-compared across runs.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a TableImage to CBOR bytes.
func Marshal(img *TableImage) ([]byte, error) {
	return cborEncMode.Marshal(img)
}

// Unmarshal deserializes a TableImage from CBOR bytes.
func Unmarshal(data []byte) (*TableImage, error) {
	var img TableImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal image: %w", err)
	}
	if img.Version != FormatVersion {
		return nil, fmt.Errorf("snapshot: unsupported image version %d", img.Version)
	}
	return &img, nil
}
