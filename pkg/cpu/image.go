package cpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"golmc/pkg/asm"
	"golmc/pkg/isa"
)

// ErrBadImage is returned for image files that are not exactly 100 words
// of valid machine code.
var ErrBadImage = errors.New("malformed image")

// imageSize is the size of an image file in bytes.
const imageSize = isa.MemorySize * 2

// WriteImage writes the 100 words of img as little-endian uint16 values.
func WriteImage(w io.Writer, img asm.Image) error {
	_, err := w.Write(wordsToLE(img.Code[:]))
	return err
}

// ReadImage reads an image written by WriteImage. The program length is
// taken to end at the last non-zero word.
func ReadImage(r io.Reader) (asm.Image, error) {
	var img asm.Image
	buf := make([]byte, imageSize+1)
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return img, fmt.Errorf("%w: longer than %d bytes", ErrBadImage, imageSize)
	case errors.Is(err, io.ErrUnexpectedEOF) && n == imageSize:
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return img, fmt.Errorf("%w: %d bytes, want %d", ErrBadImage, n, imageSize)
	default:
		return img, err
	}
	if err := leToWords(buf[:imageSize], img.Code[:]); err != nil {
		return asm.Image{}, err
	}
	for i, v := range img.Code {
		if v != 0 {
			img.Length = i + 1
		}
	}
	return img, nil
}

func WriteImageFile(path string, img asm.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteImage(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadImageFile(path string) (asm.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return asm.Image{}, err
	}
	defer f.Close()
	return ReadImage(f)
}

func wordsToLE(src []int) []byte {
	out := make([]byte, len(src)*2)
	for i, v := range src {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func leToWords(src []byte, dst []int) error {
	for i := range dst {
		if i*2+1 >= len(src) {
			break
		}
		v := int(binary.LittleEndian.Uint16(src[i*2:]))
		if v > 999 {
			return fmt.Errorf("%w: word %d is %d", ErrBadImage, i, v)
		}
		dst[i] = v
	}
	return nil
}
