package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"crossgen/internal/project"
)

// imageSchemaVersion is bumped whenever Image changes shape.
const imageSchemaVersion uint16 = 1

// ErrImageSchema is returned for images written by an incompatible version.
var ErrImageSchema = errors.New("fixup image schema mismatch")

// Image is the on-disk form of a fixup set.
type Image struct {
	Schema      uint16
	Compilation string
	Digest      project.Digest // manifest + compiled module set
	Modules     []string       // module table, index 0 is the home module
	Entries     []ImageEntry
}

// ImageEntry is one serialized signature.
type ImageEntry struct {
	Symbol string
	Kind   uint8
	Data   []byte
	Sites  []int
}

// Image converts the set for writing.
func (s *Session) Image(set *FixupSet) *Image {
	img := &Image{
		Schema:      imageSchemaVersion,
		Compilation: s.Universe.Name,
		Digest:      s.Universe.Digest,
		Modules:     set.Modules,
		Entries:     make([]ImageEntry, len(set.Entries)),
	}
	for i, e := range set.Entries {
		img.Entries[i] = ImageEntry{
			Symbol: e.Symbol,
			Kind:   uint8(e.Kind),
			Data:   e.Data,
			Sites:  e.Sites,
		}
	}
	return img
}

// WriteImage encodes img with msgpack into a temp file next to path and
// renames it into place.
func WriteImage(path string, img *Image) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".crossgen-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(img); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(tmp, path)
}

// ReadImage decodes an image written by WriteImage.
func ReadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	var img Image
	if err := msgpack.NewDecoder(f).Decode(&img); err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	if img.Schema != imageSchemaVersion {
		return nil, fmt.Errorf("%s: %w: got %d, want %d", path, ErrImageSchema, img.Schema, imageSchemaVersion)
	}
	return &img, nil
}
