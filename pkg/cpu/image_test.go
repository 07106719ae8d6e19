package cpu

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golmc/pkg/asm"
)

func TestImageFile(t *testing.T) {
	img, _, err := asm.Assemble("        INP\n        OUT\n        HLT\nneg     DAT -1\n")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteImage(&buf, img))
	require.Equal(t, 200, buf.Len())
	assert.Equal(t, uint16(901), binary.LittleEndian.Uint16(buf.Bytes()[0:]))
	assert.Equal(t, uint16(999), binary.LittleEndian.Uint16(buf.Bytes()[6:]))

	got, err := ReadImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, img, got)

	path := filepath.Join(t.TempDir(), "prog.bin")
	require.NoError(t, WriteImageFile(path, img))
	fromFile, err := ReadImageFile(path)
	require.NoError(t, err)
	assert.Equal(t, img.Code, fromFile.Code)
}

func TestReadImageTrailingHalt(t *testing.T) {
	// A trailing HLT is indistinguishable from padding.
	img, _, err := asm.Assemble("OUT\nHLT")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteImage(&buf, img))
	got, err := ReadImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Length)
	assert.Equal(t, img.Code, got.Code)
}

func TestReadImageErrors(t *testing.T) {
	bad := make([]byte, 200)
	binary.LittleEndian.PutUint16(bad[10:], 1000)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", make([]byte, 199)},
		{"long", make([]byte, 201)},
		{"word too large", bad},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadImage(bytes.NewReader(tc.data))
			assert.ErrorIs(t, err, ErrBadImage)
		})
	}
}
