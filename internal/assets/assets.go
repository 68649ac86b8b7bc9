// Package assets loads model and world files together with their sibling
// texture containers and reconstructs their scenes.
package assets

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/Faultbox/pmviewer/pkg/formats"
)

// FileAccessError reports a file that could not be read or parsed. It is
// fatal to the load that hit it.
type FileAccessError struct {
	Op   string // "open model file", "open texture file", ...
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("could not %s '%s': %v", e.Op, e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// Kind is the container type of a file.
type Kind int

const (
	KindUnknown Kind = iota
	KindModel
	KindWorld
	KindTextures
)

func (k Kind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindWorld:
		return "world"
	case KindTextures:
		return "textures"
	}
	return "unknown"
}

// Detect guesses the container type from file contents. Texture containers
// carry a magic number. A world starts with a 32-byte descriptor whose
// first word is zero and whose index and table counts are small, while a
// model has its name string at offset 4.
func Detect(data []byte) Kind {
	if len(data) < 16 {
		return KindUnknown
	}
	be := binary.BigEndian
	if be.Uint32(data) == formats.TPLMagic {
		return KindTextures
	}

	master := be.Uint32(data[4:])
	indexCount := be.Uint32(data[8:])
	tableCount := be.Uint32(data[12:])
	if be.Uint32(data) == 0 && indexCount > 0 && indexCount <= 64 && tableCount > 0 && tableCount <= 256 &&
		uint64(master)+32 < uint64(len(data)) {
		return KindWorld
	}

	if len(data) >= formats.PMMHeaderSize && printable(data[4]) {
		return KindModel
	}
	return KindUnknown
}

func printable(b byte) bool {
	return b >= 0x20 && b < 0x7F
}

// ModelTexturePath returns the texture container that belongs to a model:
// the header's texture name with a trailing dash, next to the model.
func ModelTexturePath(modelPath string, pmm *formats.PMM) string {
	return filepath.Join(filepath.Dir(modelPath), pmm.Header.TextureFile+"-")
}

// WorldTexturePath returns the texture container of a world, always named
// "t" in the world's directory.
func WorldTexturePath(worldPath string) string {
	return filepath.Join(filepath.Dir(worldPath), "t")
}

// InfoPath returns where the diagnostic report of path is written.
func InfoPath(path string) string {
	return path + ".info.txt"
}
