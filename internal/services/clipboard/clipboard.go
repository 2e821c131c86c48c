// Package clipboard delivers a finished snapshot to its destination.
package clipboard

import (
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
)

const (
	errorClipboardWriteFormat = "write clipboard: %w"
	errorStreamWriteFormat    = "write output stream: %w"
)

var errNilWriter = errors.New("nil output writer")

// Copier copies textual data to a destination.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	writeAll func(text string) error
}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{writeAll: clipboard.WriteAll}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf(errorClipboardWriteFormat, errors.New("no clipboard utility available"))
	}
	if writeError := service.writeAll(text); writeError != nil {
		return fmt.Errorf(errorClipboardWriteFormat, writeError)
	}
	return nil
}

// StreamService implements Copier by writing to an io.Writer such as standard output.
type StreamService struct {
	writer io.Writer
}

// NewStreamService constructs a Copier that writes to writer.
func NewStreamService(writer io.Writer) *StreamService {
	return &StreamService{writer: writer}
}

// Copy writes text to the underlying writer unchanged.
func (service *StreamService) Copy(text string) error {
	if service.writer == nil {
		return errNilWriter
	}
	if _, writeError := io.WriteString(service.writer, text); writeError != nil {
		return fmt.Errorf(errorStreamWriteFormat, writeError)
	}
	return nil
}

var (
	_ Copier = (*Service)(nil)
	_ Copier = (*StreamService)(nil)
)
