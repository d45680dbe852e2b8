// Package sfo reads titles from console PARAM.SFO metadata files.
package sfo

import (
	"bytes"
	"encoding/binary"
	"os"
)

const (
	keyTableOffsetPos  = 0x08
	dataTableOffsetPos = 0x0C
	entryCountPos      = 0x10
	entriesStart       = 0x14
	entrySize          = 16

	titleKey = "TITLE"
)

// ReadTitle returns the TITLE value of the SFO file at path.
func ReadTitle(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return Title(data)
}

// Title extracts the TITLE value from raw SFO bytes. Truncated or otherwise
// malformed input reports false.
func Title(data []byte) (string, bool) {
	keyTable, ok := u32(data, keyTableOffsetPos)
	if !ok {
		return "", false
	}
	dataTable, ok := u32(data, dataTableOffsetPos)
	if !ok {
		return "", false
	}
	count, ok := u32(data, entryCountPos)
	if !ok {
		return "", false
	}

	size := uint64(len(data))
	if uint64(entriesStart)+uint64(count)*entrySize > size ||
		uint64(keyTable) >= size || uint64(dataTable) >= size {
		return "", false
	}

	for i := uint64(0); i < uint64(count); i++ {
		entry := uint64(entriesStart) + uint64(entrySize)*i
		keyOff := uint64(binary.LittleEndian.Uint16(data[entry:]))
		dataLen := uint64(binary.LittleEndian.Uint32(data[entry+4:]))
		dataOff := uint64(binary.LittleEndian.Uint32(data[entry+12:]))

		keyStart := uint64(keyTable) + keyOff
		if !hasKey(data, keyStart, titleKey) {
			continue
		}

		start := uint64(dataTable) + dataOff
		if start >= size {
			return "", false
		}
		end := min(start+dataLen, size)

		value := data[start:end]
		if nul := bytes.IndexByte(value, 0); nul >= 0 {
			value = value[:nul]
		}
		return string(value), true
	}

	return "", false
}

// hasKey reports whether a NUL-terminated key equal to key starts at off.
func hasKey(data []byte, off uint64, key string) bool {
	end := off + uint64(len(key))
	if end >= uint64(len(data)) {
		return false
	}
	return string(data[off:end]) == key && data[end] == 0
}

func u32(data []byte, off int) (uint32, bool) {
	if off+4 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[off:]), true
}
