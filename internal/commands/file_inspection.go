package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/temirov/snapsource/internal/ignore"
	"github.com/temirov/snapsource/internal/types"
	"github.com/temirov/snapsource/internal/utils"
)

// Classification is the outcome of the per-file guards.
type Classification int

const (
	// ClassificationSkip means the file is not visible and produces no record.
	ClassificationSkip Classification = iota
	// ClassificationTooLarge means the file exceeds the configured size cap.
	ClassificationTooLarge
	// ClassificationBinary means the file looks like binary content.
	ClassificationBinary
	// ClassificationUnsupportedEncoding means the file looks like non UTF-8 text.
	ClassificationUnsupportedEncoding
	// ClassificationOk means the file can be read as text.
	ClassificationOk
)

const (
	// encodingSampleLength is the number of leading bytes inspected for encoding markers.
	encodingSampleLength = 1024
	// maximumNullByteRatio is the share of NUL bytes above which a sample is treated as a wide encoding.
	maximumNullByteRatio = 0.1

	tooLargePlaceholderFormat      = "[File too large: %s (%s) > %s (%s)]"
	binaryPlaceholder              = "[Binary file content not included]"
	wideEncodingPlaceholder        = "[File appears to be UTF-16 or UTF-32 encoded. Please convert to UTF-8 for inclusion.]"
	unsupportedEncodingPlaceholder = "[File appears to have unsupported encoding. Please convert to UTF-8 for inclusion.]"
	invalidEncodingPlaceholder     = "[File has encoding issues. Please convert to UTF-8 for inclusion.]"
	readErrorPlaceholderFormat     = "[Error reading file: %s]"
	unknownErrorMessage            = "unknown error"

	warningBinaryCheckMessage   = "binary detection failed; continuing with text checks"
	warningEncodingCheckMessage = "encoding detection failed; continuing with UTF-8 read"
	warningProcessFileMessage   = "failed to process file"
	debugSkipDirectoryLink      = "skipping link to directory"
)

// PipelineOptions configures a ContentPipeline.
type PipelineOptions struct {
	// Root is the traversal root that record paths are relative to.
	Root           string
	Policy         ignore.Policy
	MaxFileSize    int64
	RemoveComments bool
	CompressCode   bool
	Logger         *zap.Logger
}

// ContentPipeline turns one file into a FileRecord, applying the visibility, size, binary
// and encoding guards before reading and transforming the text.
type ContentPipeline struct {
	root           string
	policy         ignore.Policy
	maxFileSize    int64
	removeComments bool
	compressCode   bool
	logger         *zap.Logger
}

// NewContentPipeline constructs a ContentPipeline.
func NewContentPipeline(options PipelineOptions) *ContentPipeline {
	maxFileSize := options.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = types.DefaultMaxFileSize
	}
	return &ContentPipeline{
		root:           options.Root,
		policy:         options.Policy,
		maxFileSize:    maxFileSize,
		removeComments: options.RemoveComments,
		compressCode:   options.CompressCode,
		logger:         utils.LoggerOrNop(options.Logger),
	}
}

// Classify applies the guards in order: visibility, size cap, binary sniffing and the
// encoding sample check. For every classification other than Skip and Ok the returned
// string is the placeholder content for the record.
func (pipeline *ContentPipeline) Classify(absolutePath string, relativePath string, size int64) (Classification, string) {
	if !pipeline.isVisible(absolutePath, relativePath) {
		return ClassificationSkip, ""
	}
	if size > pipeline.maxFileSize {
		return ClassificationTooLarge, fmt.Sprintf(
			tooLargePlaceholderFormat,
			utils.FormatFileSize(size),
			utils.FormatByteCount(size),
			utils.FormatFileSize(pipeline.maxFileSize),
			utils.FormatByteCount(pipeline.maxFileSize),
		)
	}

	isBinary, binaryCheckError := utils.IsFileBinary(absolutePath)
	if binaryCheckError != nil {
		pipeline.logger.Warn(warningBinaryCheckMessage, zap.String("path", relativePath), zap.Error(binaryCheckError))
	} else if isBinary {
		return ClassificationBinary, binaryPlaceholder
	}

	sample, sampleError := readSample(absolutePath, encodingSampleLength)
	if sampleError != nil {
		pipeline.logger.Warn(warningEncodingCheckMessage, zap.String("path", relativePath), zap.Error(sampleError))
		return ClassificationOk, ""
	}
	if placeholder, unsupported := detectUnsupportedEncoding(sample); unsupported {
		return ClassificationUnsupportedEncoding, placeholder
	}
	return ClassificationOk, ""
}

// Process produces the record for one file. The boolean is false when the file is not
// visible. Any failure is converted into a placeholder record so that one file never
// aborts the remaining set.
func (pipeline *ContentPipeline) Process(absolutePath string) (record types.FileRecord, produced bool) {
	relativePath := utils.RelativeSlashPath(absolutePath, pipeline.root)
	defer func() {
		if recovered := recover(); recovered != nil {
			pipeline.logger.Warn(warningProcessFileMessage, zap.String("path", relativePath), zap.Any("panic", recovered))
			record = types.FileRecord{Path: relativePath, Content: fmt.Sprintf(readErrorPlaceholderFormat, fmt.Sprint(recovered))}
			produced = true
		}
	}()

	if !pipeline.isVisible(absolutePath, relativePath) {
		return types.FileRecord{}, false
	}

	fileInfo, statError := os.Stat(absolutePath)
	if statError != nil {
		return pipeline.errorRecord(relativePath, statError), true
	}
	if fileInfo.IsDir() {
		pipeline.logger.Debug(debugSkipDirectoryLink, zap.String("path", relativePath))
		return types.FileRecord{}, false
	}

	classification, placeholder := pipeline.Classify(absolutePath, relativePath, fileInfo.Size())
	switch classification {
	case ClassificationSkip:
		return types.FileRecord{}, false
	case ClassificationOk:
	default:
		return types.FileRecord{Path: relativePath, Content: placeholder}, true
	}

	content, readError := readUTF8File(absolutePath)
	if readError != nil {
		if errors.Is(readError, encoding.ErrInvalidUTF8) {
			return types.FileRecord{Path: relativePath, Content: invalidEncodingPlaceholder}, true
		}
		return pipeline.errorRecord(relativePath, readError), true
	}

	return types.FileRecord{
		Path:    relativePath,
		Content: ApplyTransforms(content, pipeline.removeComments, pipeline.compressCode),
	}, true
}

func (pipeline *ContentPipeline) isVisible(absolutePath string, relativePath string) bool {
	if pipeline.policy == nil {
		return true
	}
	return !pipeline.policy.Ignores(relativePath) && !pipeline.policy.IsExcludedByAbsolutePath(absolutePath)
}

func (pipeline *ContentPipeline) errorRecord(relativePath string, failure error) types.FileRecord {
	pipeline.logger.Warn(warningProcessFileMessage, zap.String("path", relativePath), zap.Error(failure))
	return types.FileRecord{Path: relativePath, Content: fmt.Sprintf(readErrorPlaceholderFormat, describeError(failure))}
}

// describeError drops the file path from filesystem errors so placeholders never leak host paths.
func describeError(failure error) string {
	if failure == nil {
		return unknownErrorMessage
	}
	var pathError *fs.PathError
	if errors.As(failure, &pathError) && pathError.Err != nil {
		return pathError.Err.Error()
	}
	return failure.Error()
}

// detectUnsupportedEncoding inspects the leading sample for UTF-16/UTF-32 byte-order marks
// and for a NUL byte ratio typical of wide encodings without a mark. The binary sniff claims
// NUL-bearing samples first, so the ratio check only decides when that sniff fails.
func detectUnsupportedEncoding(sample []byte) (string, bool) {
	if len(sample) < 2 {
		return "", false
	}
	if utils.HasWideByteOrderMark(sample) {
		return wideEncodingPlaceholder, true
	}
	nullByteCount := 0
	for _, sampleByte := range sample {
		if sampleByte == 0 {
			nullByteCount++
		}
	}
	if float64(nullByteCount)/float64(len(sample)) > maximumNullByteRatio {
		return unsupportedEncodingPlaceholder, true
	}
	return "", false
}

func readSample(path string, length int) ([]byte, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return nil, openError
	}
	defer fileHandle.Close()

	buffer := make([]byte, length)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	if readError != nil && !errors.Is(readError, io.EOF) && !errors.Is(readError, io.ErrUnexpectedEOF) {
		return nil, readError
	}
	return buffer[:bytesRead], nil
}

// readUTF8File reads the whole file, failing with encoding.ErrInvalidUTF8 on the first invalid sequence.
func readUTF8File(path string) (string, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return "", openError
	}
	defer fileHandle.Close()

	validatedReader := transform.NewReader(fileHandle, encoding.UTF8Validator)
	content, readError := io.ReadAll(validatedReader)
	if readError != nil {
		return "", readError
	}
	return string(content), nil
}
