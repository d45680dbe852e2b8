package transcode

import (
	"bytes"
	"encoding/binary"
	"image/gif"
)

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	gifSignature = []byte("GIF8")
)

// isAnimated reports multi-frame GIF, APNG and animated WebP input.
func isAnimated(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, gifSignature):
		return gifFrames(data) > 1
	case bytes.HasPrefix(data, pngSignature):
		return hasPNGChunk(data, "acTL")
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return hasWebPChunk(data, "ANIM")
	}
	return false
}

func gifFrames(data []byte) int {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	return len(g.Image)
}

// hasPNGChunk walks the chunk list up to the first IDAT.
func hasPNGChunk(data []byte, want string) bool {
	off := len(pngSignature)
	for off+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[off : off+4]))
		kind := string(data[off+4 : off+8])
		if kind == want {
			return true
		}
		if kind == "IDAT" || kind == "IEND" || length < 0 {
			return false
		}
		off += 12 + length
	}
	return false
}

func hasWebPChunk(data []byte, want string) bool {
	off := 12
	for off+8 <= len(data) {
		kind := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		if kind == want {
			return true
		}
		if size < 0 {
			return false
		}
		off += 8 + size + size%2
	}
	return false
}
