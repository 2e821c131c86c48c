package utils

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/go-enry/go-enry/v2"
)

// sniffLength defines the maximum number of bytes read when detecting binary content.
const sniffLength = 8000

var (
	utf8ByteOrderMark    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEByteOrderMark = []byte{0xFF, 0xFE}
	utf16BEByteOrderMark = []byte{0xFE, 0xFF}
	utf32BEByteOrderMark = []byte{0x00, 0x00, 0xFE, 0xFF}
	pdfSignature         = []byte("%PDF-")
)

// HasUnicodeByteOrderMark reports whether data starts with a UTF-8, UTF-16 or UTF-32 byte-order mark.
func HasUnicodeByteOrderMark(data []byte) bool {
	return bytes.HasPrefix(data, utf8ByteOrderMark) || HasWideByteOrderMark(data)
}

// HasWideByteOrderMark reports whether data starts with a UTF-16 or UTF-32 byte-order mark.
// The little-endian UTF-32 mark (FF FE 00 00) is covered by the UTF-16 little-endian prefix.
func HasWideByteOrderMark(data []byte) bool {
	return bytes.HasPrefix(data, utf16LEByteOrderMark) ||
		bytes.HasPrefix(data, utf16BEByteOrderMark) ||
		bytes.HasPrefix(data, utf32BEByteOrderMark)
}

// IsBinary reports whether the provided byte slice appears to contain binary data.
// Text carrying a Unicode byte-order mark is never classified as binary so that
// wide encodings can be reported as an encoding issue instead.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if HasUnicodeByteOrderMark(data) {
		return false
	}
	if bytes.HasPrefix(data, pdfSignature) {
		return true
	}
	return enry.IsBinary(data)
}

// IsFileBinary reads up to sniffLength bytes from the file at path and determines
// if the content appears to be binary.
func IsFileBinary(path string) (bool, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return false, openError
	}
	defer fileHandle.Close()

	buffer := make([]byte, sniffLength)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	if readError != nil && !errors.Is(readError, io.EOF) && !errors.Is(readError, io.ErrUnexpectedEOF) {
		return false, readError
	}
	return IsBinary(buffer[:bytesRead]), nil
}
