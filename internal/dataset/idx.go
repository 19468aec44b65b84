package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// IDX magic numbers.
const (
	imagesMagic = 2051 // 0x00000803
	labelsMagic = 2049 // 0x00000801
)

// maxIDXBytes caps the payload a header may announce before it is allocated.
const maxIDXBytes = 1 << 30

// Images is the content of an IDX image file: Count images of Rows x Cols
// unsigned bytes, stored image after image, row-major.
type Images struct {
	Count  int
	Rows   int
	Cols   int
	Pixels []byte
}

// Image returns the pixels of image i.
func (im *Images) Image(i int) []byte {
	size := im.Rows * im.Cols
	return im.Pixels[i*size : (i+1)*size]
}

// ReadIDXImages reads an image file in IDX format.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
func ReadIDXImages(r io.Reader) (*Images, error) {
	var header struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if header.Magic != imagesMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header.Magic, imagesMagic)
	}
	if header.Rows == 0 || header.Cols == 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", header.Rows, header.Cols)
	}
	size := uint64(header.Rows) * uint64(header.Cols)
	if size > maxIDXBytes || uint64(header.Count) > maxIDXBytes/size {
		return nil, fmt.Errorf("image file announces %d images of %dx%d, more than %d bytes",
			header.Count, header.Rows, header.Cols, maxIDXBytes)
	}

	images := &Images{
		Count:  int(header.Count),
		Rows:   int(header.Rows),
		Cols:   int(header.Cols),
		Pixels: make([]byte, int(header.Count)*int(header.Rows)*int(header.Cols)),
	}
	if _, err := io.ReadFull(r, images.Pixels); err != nil {
		return nil, fmt.Errorf("failed to read %d images: %w", images.Count, err)
	}
	return images, nil
}

// ReadIDXLabels reads a label file in IDX format.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes
func ReadIDXLabels(r io.Reader) ([]byte, error) {
	var header struct {
		Magic, Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read label header: %w", err)
	}
	if header.Magic != labelsMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header.Magic, labelsMagic)
	}
	if header.Count > maxIDXBytes {
		return nil, fmt.Errorf("label file announces %d labels, more than %d bytes", header.Count, maxIDXBytes)
	}

	labels := make([]byte, header.Count)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return labels, nil
}

// LoadIDX reads an image file and its label file and builds a Set with
// classes one-hot rows. maxSamples > 0 keeps only the first maxSamples.
func LoadIDX(imagesPath, labelsPath string, classes, maxSamples int) (*Set, error) {
	images, err := readFile(imagesPath, ReadIDXImages)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	labels, err := readFile(labelsPath, ReadIDXLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	return FromIDX(images, labels, classes, maxSamples)
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer file.Close()
	return read(file)
}
