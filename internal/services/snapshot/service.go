// Package snapshot assembles a textual snapshot of selected files and folders and hands it to a sink.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/snapsource/internal/commands"
	"github.com/temirov/snapsource/internal/ignore"
	"github.com/temirov/snapsource/internal/output"
	"github.com/temirov/snapsource/internal/services/clipboard"
	"github.com/temirov/snapsource/internal/tokenizer"
	"github.com/temirov/snapsource/internal/types"
	"github.com/temirov/snapsource/internal/utils"
)

var (
	// ErrCancelled is returned when the context is cancelled before the output is delivered.
	ErrCancelled = errors.New("snapshot cancelled")
	// ErrNoItemsSelected is returned when the request names no files or folders.
	ErrNoItemsSelected = errors.New("no files or folders selected")
	// ErrNoWorkspace is returned when the workspace root is missing or is not a directory.
	ErrNoWorkspace = errors.New("no workspace folder found")
	// ErrItemOutsideWorkspace is returned when a selected item does not lie under the workspace root.
	ErrItemOutsideWorkspace = errors.New("selected item is outside the workspace")
	// ErrSinkWrite is returned when the rendered snapshot could not be delivered.
	ErrSinkWrite = errors.New("failed to deliver snapshot")
)

const (
	stageInitializing = "Initializing..."
	stageFilters      = "Setting up filters..."
	stageTree         = "Generating project tree..."
	stageProcessing   = "Processing %s..."
	stageFormatting   = "Formatting output..."
	stageDelivering   = "Delivering output..."
	stageTokens       = "Counting tokens..."

	incrementInitializing = 0
	incrementFilters      = 10
	incrementTree         = 15
	incrementItems        = 40
	incrementFormatting   = 10
	incrementDelivering   = 5
	incrementTokens       = 5

	treeRootLabelSuffix = "/\n"

	errorResolveWorkspaceFormat = "%w: %s"
	errorResolveItemFormat      = "resolve selected item %s: %w"
	errorItemOutsideFormat      = "%w: %s"
	errorSinkFormat             = "%w: %v"
	errorRenderFormat           = "render snapshot: %w"

	warningTokenCountMessage  = "token estimation failed"
	warningTokenizerMessage   = "tokenizer unavailable"
	debugExtraStructureItems  = "structure mode uses the first selected item only"
	debugDuplicateRecordMsg   = "dropping duplicate record"
	debugCancellationObserved = "cancellation observed"
)

// Request describes one snapshot run.
type Request struct {
	// WorkspaceRoot anchors relative paths, exclude paths and the ignore file.
	WorkspaceRoot string
	// Items are absolute or workspace-relative files and folders.
	Items         []string
	Configuration types.RunConfiguration
	// StructureOnly renders the tree of the first item alone, using it as the traversal root.
	StructureOnly bool
}

// Result is the outcome of a run. Output is populated even when delivery fails.
type Result struct {
	Output       string
	RecordCount  int
	TokenInfo    *types.TokenInfo
	TokenWarning string
	Summary      string
}

// ProgressEvent is one progress notification. Increments are percentages of the whole run.
type ProgressEvent struct {
	Message   string
	Increment float64
}

// ProgressObserver receives progress notifications. Calls are serialized.
type ProgressObserver func(ProgressEvent)

// Options configures a Service.
type Options struct {
	Sink clipboard.Copier
	// Counter overrides the tokenizer selected from the configured model.
	Counter  tokenizer.Counter
	Progress ProgressObserver
	Logger   *zap.Logger
}

// Service runs snapshots.
type Service struct {
	sink     clipboard.Copier
	counter  tokenizer.Counter
	progress ProgressObserver
	logger   *zap.Logger

	progressMutex sync.Mutex
}

// NewService constructs a Service.
func NewService(options Options) *Service {
	return &Service{
		sink:     options.Sink,
		counter:  options.Counter,
		progress: options.Progress,
		logger:   utils.LoggerOrNop(options.Logger),
	}
}

// Run validates the request, renders the tree and the file records, formats them and delivers
// the result to the sink while estimating tokens concurrently.
func (service *Service) Run(ctx context.Context, request Request) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	service.report(stageInitializing, incrementInitializing)

	workspaceRoot, workspaceError := resolveWorkspaceRoot(request.WorkspaceRoot)
	if workspaceError != nil {
		return Result{}, workspaceError
	}
	items, itemsError := resolveItems(workspaceRoot, request.Items)
	if itemsError != nil {
		return Result{}, itemsError
	}
	configuration := request.Configuration

	service.report(stageFilters, incrementFilters)
	policy := ignore.NewMatcher(ignore.MatcherOptions{
		WorkspaceRoot: workspaceRoot,
		Patterns:      configuration.Exclude.Patterns,
		HideDotFiles:  configuration.HideDotFiles,
		UseGitignore:  configuration.UseGitignore,
		ExcludePaths:  configuration.Exclude.Paths,
		Logger:        service.logger,
	})

	traversalRoot := workspaceRoot
	rebased := false
	if request.StructureOnly {
		traversalRoot, rebased = structureRoot(workspaceRoot, items[0])
		if len(items) > 1 {
			service.logger.Debug(debugExtraStructureItems, zap.Int("items", len(items)))
		}
	}
	walker := commands.NewTreeWalker(commands.WalkerOptions{
		Root:     traversalRoot,
		MaxDepth: configuration.MaxDepth,
		Policy:   policy,
		Pipeline: commands.NewContentPipeline(commands.PipelineOptions{
			Root:           traversalRoot,
			Policy:         policy,
			MaxFileSize:    configuration.MaxFileSize,
			RemoveComments: configuration.RemoveComments,
			CompressCode:   configuration.CompressCode,
			Logger:         service.logger,
		}),
		Logger: service.logger,
	})

	if ctx.Err() != nil {
		service.logger.Debug(debugCancellationObserved, zap.Error(ctx.Err()))
		return Result{}, ErrCancelled
	}

	var tree string
	if configuration.IncludeTree || request.StructureOnly {
		service.report(stageTree, incrementTree)
		tree = walker.Render(traversalRoot)
		if rebased {
			tree = filepath.Base(traversalRoot) + treeRootLabelSuffix + tree
		}
	} else {
		service.report("", incrementTree)
	}

	var records []types.FileRecord
	if !request.StructureOnly {
		itemIncrement := float64(incrementItems) / float64(len(items))
		for _, itemPath := range items {
			if ctx.Err() != nil {
				service.logger.Debug(debugCancellationObserved, zap.Error(ctx.Err()))
				return Result{}, ErrCancelled
			}
			service.report(fmt.Sprintf(stageProcessing, filepath.Base(itemPath)), itemIncrement)
			records = append(records, walker.Collect(itemPath)...)
		}
		records = service.removeDuplicateRecords(records)
	}

	service.report(stageFormatting, incrementFormatting)
	var renderedOutput string
	var renderError error
	if request.StructureOnly {
		renderedOutput, renderError = output.RenderStructure(configuration.Format, tree)
	} else {
		renderedOutput, renderError = output.Render(configuration.Format, tree, records)
	}
	if renderError != nil {
		return Result{}, fmt.Errorf(errorRenderFormat, renderError)
	}
	if ctx.Err() != nil {
		return Result{}, ErrCancelled
	}

	result := Result{Output: renderedOutput, RecordCount: len(records)}
	countTokens := configuration.TokenCounting && !request.StructureOnly

	var deliveryGroup errgroup.Group
	deliveryGroup.Go(func() error {
		service.report(stageDelivering, incrementDelivering)
		if service.sink == nil {
			return nil
		}
		return service.sink.Copy(renderedOutput)
	})
	if countTokens {
		deliveryGroup.Go(func() error {
			service.report(stageTokens, incrementTokens)
			result.TokenInfo = service.estimateTokens(configuration.TokenModel, renderedOutput)
			return nil
		})
	}
	deliveryError := deliveryGroup.Wait()

	result.Summary = tokenizer.Summary(configuration.Format, result.TokenInfo)
	if result.TokenInfo != nil && configuration.TokenWarning {
		limit := tokenizer.TokenLimit(configuration.TokenModel, configuration.MaxTokens)
		result.TokenWarning = tokenizer.LimitWarning(result.TokenInfo.InputTokens, limit)
	}
	if deliveryError != nil {
		return result, fmt.Errorf(errorSinkFormat, ErrSinkWrite, deliveryError)
	}
	return result, nil
}

// estimateTokens never fails the run; a nil result means no estimate is available.
func (service *Service) estimateTokens(model string, text string) *types.TokenInfo {
	counter := service.counter
	if counter == nil {
		selectedCounter, _, counterError := tokenizer.NewCounter(tokenizer.Config{Model: model})
		if counterError != nil {
			service.logger.Warn(warningTokenizerMessage, zap.String("model", model), zap.Error(counterError))
			return nil
		}
		counter = selectedCounter
	}
	tokenInfo, estimateError := tokenizer.NewEstimator(counter, model).Estimate(text)
	if estimateError != nil {
		service.logger.Warn(warningTokenCountMessage, zap.String("model", model), zap.Error(estimateError))
		return nil
	}
	return &tokenInfo
}

func (service *Service) report(message string, increment float64) {
	if service.progress == nil {
		return
	}
	service.progressMutex.Lock()
	defer service.progressMutex.Unlock()
	service.progress(ProgressEvent{Message: message, Increment: increment})
}

// removeDuplicateRecords keeps the first record for every path, which matters when the
// selection contains both a folder and files inside it.
func (service *Service) removeDuplicateRecords(records []types.FileRecord) []types.FileRecord {
	seenPaths := make(map[string]struct{}, len(records))
	uniqueRecords := make([]types.FileRecord, 0, len(records))
	for _, record := range records {
		if _, seen := seenPaths[record.Path]; seen {
			service.logger.Debug(debugDuplicateRecordMsg, zap.String("path", record.Path))
			continue
		}
		seenPaths[record.Path] = struct{}{}
		uniqueRecords = append(uniqueRecords, record)
	}
	return uniqueRecords
}

func resolveWorkspaceRoot(workspaceRoot string) (string, error) {
	if workspaceRoot == "" {
		return "", ErrNoWorkspace
	}
	absoluteRoot, absoluteError := filepath.Abs(workspaceRoot)
	if absoluteError != nil {
		return "", fmt.Errorf(errorResolveWorkspaceFormat, ErrNoWorkspace, absoluteError)
	}
	rootInfo, statError := os.Stat(absoluteRoot)
	if statError != nil || !rootInfo.IsDir() {
		return "", fmt.Errorf(errorResolveWorkspaceFormat, ErrNoWorkspace, absoluteRoot)
	}
	return absoluteRoot, nil
}

func resolveItems(workspaceRoot string, items []string) ([]string, error) {
	if len(items) == 0 {
		return nil, ErrNoItemsSelected
	}
	resolvedItems := make([]string, 0, len(items))
	for _, item := range items {
		itemPath := filepath.Clean(item)
		if !filepath.IsAbs(itemPath) {
			itemPath = filepath.Join(workspaceRoot, itemPath)
		}
		if !utils.IsWithinDirectory(itemPath, workspaceRoot) {
			return nil, fmt.Errorf(errorItemOutsideFormat, ErrItemOutsideWorkspace, item)
		}
		if _, statError := os.Stat(itemPath); statError != nil {
			return nil, fmt.Errorf(errorResolveItemFormat, item, statError)
		}
		resolvedItems = append(resolvedItems, itemPath)
	}
	return resolvedItems, nil
}

// structureRoot returns the folder rendered in structure mode. Only a selected directory
// becomes the root; a selected file leaves the workspace root in place.
func structureRoot(workspaceRoot string, itemPath string) (string, bool) {
	itemInfo, statError := os.Stat(itemPath)
	if statError != nil || !itemInfo.IsDir() {
		return workspaceRoot, false
	}
	return itemPath, true
}
