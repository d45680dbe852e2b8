package sfo

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type param struct {
	key   string
	value string
	size  uint32
}

// build lays out a minimal SFO: header, entry table, key table, data table.
func build(params ...param) []byte {
	keyTable := []byte{}
	dataTable := []byte{}
	entries := make([]byte, entrySize*len(params))

	for i, p := range params {
		e := entries[i*entrySize:]
		binary.LittleEndian.PutUint16(e[0:], uint16(len(keyTable)))
		binary.LittleEndian.PutUint16(e[2:], 0x0204)

		value := append([]byte(p.value), 0)
		size := p.size
		if size == 0 {
			size = uint32(len(value))
		}
		binary.LittleEndian.PutUint32(e[4:], uint32(len(value)))
		binary.LittleEndian.PutUint32(e[8:], size)
		binary.LittleEndian.PutUint32(e[12:], uint32(len(dataTable)))

		keyTable = append(keyTable, append([]byte(p.key), 0)...)
		padded := make([]byte, size)
		copy(padded, value)
		dataTable = append(dataTable, padded...)
	}

	keyStart := entriesStart + len(entries)
	dataStart := keyStart + len(keyTable)

	header := make([]byte, entriesStart)
	copy(header, "\x00PSF")
	binary.LittleEndian.PutUint32(header[4:], 0x0101)
	binary.LittleEndian.PutUint32(header[keyTableOffsetPos:], uint32(keyStart))
	binary.LittleEndian.PutUint32(header[dataTableOffsetPos:], uint32(dataStart))
	binary.LittleEndian.PutUint32(header[entryCountPos:], uint32(len(params)))

	out := append(header, entries...)
	out = append(out, keyTable...)
	return append(out, dataTable...)
}

func TestTitle(t *testing.T) {
	data := build(
		param{key: "CATEGORY", value: "DG"},
		param{key: "TITLE_ID", value: "BLUS30443"},
		param{key: "TITLE", value: "Demon's Souls", size: 128},
	)

	title, ok := Title(data)
	require.True(t, ok)
	assert.Equal(t, "Demon's Souls", title)
}

func TestTitle_Missing(t *testing.T) {
	data := build(param{key: "TITLE_ID", value: "PCSE00001"})

	_, ok := Title(data)
	assert.False(t, ok)
}

func TestTitle_Malformed(t *testing.T) {
	valid := build(param{key: "TITLE", value: "Gravity Rush"})

	cases := map[string][]byte{
		"empty":            nil,
		"short header":     valid[:0x0A],
		"truncated entry":  valid[:entriesStart+8],
		"truncated tables": valid[:entriesStart+entrySize+3],
	}

	huge := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(huge[entryCountPos:], 0xFFFFFFFF)
	cases["huge count"] = huge

	overCount := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(overCount[entryCountPos:], 3)
	cases["count past end"] = overCount

	badData := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badData[dataTableOffsetPos:], 0xFFFFFFF0)
	cases["data offset past end"] = badData

	badKey := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badKey[keyTableOffsetPos:], 0xFFFFFFF0)
	cases["key offset past end"] = badKey

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, ok := Title(data)
				assert.False(t, ok)
			})
		})
	}
}

func TestReadTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PARAM.SFO")
	require.NoError(t, os.WriteFile(path, build(param{key: "TITLE", value: "Uncharted"}), 0644))

	title, ok := ReadTitle(path)
	require.True(t, ok)
	assert.Equal(t, "Uncharted", title)

	_, ok = ReadTitle(filepath.Join(t.TempDir(), "missing.sfo"))
	assert.False(t, ok)
}
