// Package ignore decides which paths under a traversal root are visible.
package ignore

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
	"go.uber.org/zap"

	"github.com/temirov/snapsource/internal/utils"
)

const (
	// DotFilePattern hides every path component beginning with a dot.
	DotFilePattern = ".*"

	windowsOperatingSystem = "windows"
	negationPrefix         = "!"
	pathSeparator          = "/"
	parentDirectorySegment = ".."

	warningPatternEvaluationMessage  = "ignore pattern evaluation failed; treating path as visible"
	warningPathExclusionMessage      = "path exclusion check failed; treating path as visible"
	warningInvalidPatternMessage     = "skipping invalid ignore pattern"
	warningUnreadableIgnoreFileMsg   = "ignore file could not be read; no patterns added"
	errorPathOutsideRootFormat       = "path %q is outside the traversal root"
	errorRelativeExclusionPathFormat = "path %q is not absolute"
	errorEvaluationPanicFormat       = "evaluation panic: %v"
)

// Policy evaluates path-based visibility rules for one run.
type Policy interface {
	// Ignores reports whether a root-relative, forward-slash path is hidden by ignore patterns.
	// A trailing slash marks the path as a directory.
	Ignores(relativePath string) bool
	// IsExcludedByAbsolutePath reports whether an absolute path lies at or under an excluded path.
	IsExcludedByAbsolutePath(absolutePath string) bool
}

// MatcherOptions configures a Matcher.
type MatcherOptions struct {
	// WorkspaceRoot anchors relative exclude paths and hosts the ignore file.
	WorkspaceRoot string
	// Patterns are gitignore-style globs applied before the dot-file rule and the ignore file.
	Patterns []string
	// HideDotFiles adds DotFilePattern to the compiled rules.
	HideDotFiles bool
	// UseGitignore appends the root-level .gitignore contents to the compiled rules.
	UseGitignore bool
	// ExcludePaths are workspace-relative or absolute paths excluded with their whole subtree.
	ExcludePaths []string
	Logger       *zap.Logger
}

// Matcher is the Policy implementation backed by a compiled gitignore rule set and
// a normalized list of excluded absolute paths. It is immutable after construction.
type Matcher struct {
	rules           gitignore.GitIgnore
	patterns        []string
	excludedPaths   []string
	caseInsensitive bool
	logger          *zap.Logger
}

var _ Policy = (*Matcher)(nil)

var errEvaluationPanic = errors.New("ignore evaluation panic")

// NewMatcher compiles the configured patterns, the optional dot-file rule and the optional
// root-level ignore file into one rule set. Later rules can re-include paths with "!pattern".
func NewMatcher(options MatcherOptions) *Matcher {
	logger := utils.LoggerOrNop(options.Logger)

	var combinedPatterns []string
	combinedPatterns = append(combinedPatterns, options.Patterns...)
	if options.HideDotFiles {
		combinedPatterns = append(combinedPatterns, DotFilePattern)
	}
	if options.UseGitignore && options.WorkspaceRoot != "" {
		ignoreFilePath := filepath.Join(options.WorkspaceRoot, utils.GitIgnoreFileName)
		ignoreFilePatterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
		if loadError != nil {
			logger.Debug(warningUnreadableIgnoreFileMsg, zap.String("file", ignoreFilePath), zap.Error(loadError))
		}
		combinedPatterns = append(combinedPatterns, ignoreFilePatterns...)
	}

	validPatterns := validatePatterns(combinedPatterns, logger)
	matcher := &Matcher{
		patterns:        validPatterns,
		excludedPaths:   normalizeExcludePaths(options.WorkspaceRoot, options.ExcludePaths),
		caseInsensitive: runtime.GOOS == windowsOperatingSystem,
		logger:          logger,
	}
	if len(validPatterns) > 0 {
		matcher.rules = gitignore.New(strings.NewReader(strings.Join(validPatterns, "\n")), options.WorkspaceRoot, func(patternError gitignore.Error) bool {
			logger.Warn(warningInvalidPatternMessage, zap.Error(patternError))
			return true
		})
	}
	return matcher
}

// Patterns returns the compiled pattern list in evaluation order.
func (matcher *Matcher) Patterns() []string {
	return append([]string{}, matcher.patterns...)
}

// Ignores implements Policy. Evaluation failures are logged and reported as visible.
func (matcher *Matcher) Ignores(relativePath string) (ignored bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			matcher.logger.Warn(warningPatternEvaluationMessage, zap.String("path", relativePath), zap.Error(fmt.Errorf("%w: %v", errEvaluationPanic, recovered)))
			ignored = false
		}
	}()
	result, evaluationError := matcher.evaluatePatterns(relativePath)
	if evaluationError != nil {
		matcher.logger.Warn(warningPatternEvaluationMessage, zap.String("path", relativePath), zap.Error(evaluationError))
		return false
	}
	return result
}

// IsExcludedByAbsolutePath implements Policy. Evaluation failures are logged and reported as visible.
func (matcher *Matcher) IsExcludedByAbsolutePath(absolutePath string) (excluded bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			matcher.logger.Warn(warningPathExclusionMessage, zap.String("path", absolutePath), zap.Error(fmt.Errorf("%w: %v", errEvaluationPanic, recovered)))
			excluded = false
		}
	}()
	if len(matcher.excludedPaths) == 0 {
		return false
	}
	result, evaluationError := matcher.evaluateExcludedPath(absolutePath)
	if evaluationError != nil {
		matcher.logger.Warn(warningPathExclusionMessage, zap.String("path", absolutePath), zap.Error(evaluationError))
		return false
	}
	return result
}

// evaluatePatterns checks the path and each of its ancestor directories against the rule set.
// A path below an ignored directory is ignored as well.
func (matcher *Matcher) evaluatePatterns(relativePath string) (bool, error) {
	if matcher.rules == nil {
		return false, nil
	}
	normalizedPath := utils.NormalizeSlashes(relativePath)
	isDirectory := strings.HasSuffix(normalizedPath, pathSeparator)
	normalizedPath = strings.TrimPrefix(normalizedPath, "./")
	normalizedPath = strings.Trim(normalizedPath, pathSeparator)
	if normalizedPath == "" || normalizedPath == "." {
		return false, nil
	}

	segments := strings.Split(normalizedPath, pathSeparator)
	for segmentIndex, segment := range segments {
		if segment == parentDirectorySegment {
			return false, fmt.Errorf(errorPathOutsideRootFormat, relativePath)
		}
		candidatePath := strings.Join(segments[:segmentIndex+1], pathSeparator)
		candidateIsDirectory := segmentIndex < len(segments)-1 || isDirectory
		match := matcher.rules.Relative(filepath.FromSlash(candidatePath), candidateIsDirectory)
		if match != nil && match.Ignore() {
			return true, nil
		}
	}
	return false, nil
}

func (matcher *Matcher) evaluateExcludedPath(absolutePath string) (bool, error) {
	if !filepath.IsAbs(absolutePath) {
		return false, fmt.Errorf(errorRelativeExclusionPathFormat, absolutePath)
	}
	candidatePath := filepath.Clean(absolutePath)
	for _, excludedPath := range matcher.excludedPaths {
		if utils.IsWithinDirectory(candidatePath, excludedPath) {
			return true, nil
		}
		if matcher.caseInsensitive && utils.IsWithinDirectory(strings.ToLower(candidatePath), strings.ToLower(excludedPath)) {
			return true, nil
		}
	}
	return false, nil
}

// normalizeExcludePaths resolves relative exclude paths against the workspace root.
func normalizeExcludePaths(workspaceRoot string, excludePaths []string) []string {
	var normalizedPaths []string
	for _, excludePath := range utils.DeduplicatePatterns(excludePaths) {
		normalizedPath := filepath.Clean(filepath.FromSlash(excludePath))
		if !filepath.IsAbs(normalizedPath) {
			normalizedPath = filepath.Join(workspaceRoot, normalizedPath)
		}
		normalizedPaths = append(normalizedPaths, filepath.Clean(normalizedPath))
	}
	return normalizedPaths
}

// validatePatterns drops patterns whose glob syntax is malformed so that a single bad entry
// narrows exclusion instead of breaking the whole rule set.
func validatePatterns(patterns []string, logger *zap.Logger) []string {
	validPatterns := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		globBody := strings.TrimPrefix(pattern, negationPrefix)
		globBody = strings.Trim(globBody, pathSeparator)
		if globBody != "" && !doublestar.ValidatePattern(globBody) {
			logger.Warn(warningInvalidPatternMessage, zap.String("pattern", pattern))
			continue
		}
		validPatterns = append(validPatterns, pattern)
	}
	return validPatterns
}
