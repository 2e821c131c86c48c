// Package commands contains the traversal and per-file processing behind a snapshot.
package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/temirov/snapsource/internal/ignore"
	"github.com/temirov/snapsource/internal/types"
	"github.com/temirov/snapsource/internal/utils"
)

const (
	treeBranchConnector    = "├── "
	treeLastConnector      = "└── "
	treeBranchContinuation = "│   "
	treeLastContinuation   = "    "

	warningSkipSubdirMessage = "skipping directory that could not be listed"
)

// WalkerOptions configures a TreeWalker.
type WalkerOptions struct {
	// Root is the traversal root; ignore patterns are evaluated relative to it.
	Root string
	// MaxDepth limits tree rendering. Depth 0 lists the root's direct children.
	MaxDepth int
	Policy   ignore.Policy
	// Pipeline turns files into records during Collect.
	Pipeline *ContentPipeline
	Logger   *zap.Logger
}

// TreeWalker renders the indented tree and collects file records. Both passes share one
// filter and one sibling order so that every record path is also a tree line.
type TreeWalker struct {
	root     string
	maxDepth int
	policy   ignore.Policy
	pipeline *ContentPipeline
	collator *collate.Collator
	logger   *zap.Logger
}

// NewTreeWalker constructs a TreeWalker. The collator is owned by the walker and is not shared.
func NewTreeWalker(options WalkerOptions) *TreeWalker {
	return &TreeWalker{
		root:     options.Root,
		maxDepth: options.MaxDepth,
		policy:   options.Policy,
		pipeline: options.Pipeline,
		collator: collate.New(language.Und),
		logger:   utils.LoggerOrNop(options.Logger),
	}
}

// Render returns the tree text for the given directory, one line per visible entry, each
// terminated by a line break. The directory itself is not printed.
func (walker *TreeWalker) Render(directoryPath string) string {
	var builder strings.Builder
	walker.renderDirectory(&builder, directoryPath, 0, "")
	return builder.String()
}

func (walker *TreeWalker) renderDirectory(builder *strings.Builder, directoryPath string, depth int, prefix string) {
	if depth > walker.maxDepth {
		return
	}
	entries, listError := walker.listVisibleEntries(directoryPath)
	if listError != nil {
		walker.logger.Warn(warningSkipSubdirMessage, zap.String("directory", directoryPath), zap.Error(listError))
		return
	}

	for entryIndex, entry := range entries {
		connector, continuation := treeBranchConnector, treeBranchContinuation
		if entryIndex == len(entries)-1 {
			connector, continuation = treeLastConnector, treeLastContinuation
		}
		builder.WriteString(prefix)
		builder.WriteString(connector)
		builder.WriteString(entry.Name)
		builder.WriteString(lineBreak)
		if entry.IsDirectory {
			walker.renderDirectory(builder, filepath.Join(directoryPath, entry.Name), depth+1, prefix+continuation)
		}
	}
}

// listVisibleEntries reads one directory, drops entries hidden by the policy and returns the
// rest with directories first, then by locale-aware name order.
func (walker *TreeWalker) listVisibleEntries(directoryPath string) ([]types.TreeEntry, error) {
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return nil, readDirectoryError
	}

	visibleEntries := make([]types.TreeEntry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		if !walker.isVisible(childPath, directoryEntry.IsDir()) {
			continue
		}
		visibleEntries = append(visibleEntries, types.TreeEntry{Name: directoryEntry.Name(), IsDirectory: directoryEntry.IsDir()})
	}
	walker.sortEntries(visibleEntries)
	return visibleEntries, nil
}

// isVisible evaluates the policy for a path below the root. Directories carry a trailing
// slash so that directory-only patterns apply.
func (walker *TreeWalker) isVisible(absolutePath string, isDirectory bool) bool {
	if walker.policy == nil {
		return true
	}
	relativePath := utils.RelativeSlashPath(absolutePath, walker.root)
	if relativePath == "" {
		return true
	}
	if isDirectory {
		relativePath += "/"
	}
	return !walker.policy.Ignores(relativePath) && !walker.policy.IsExcludedByAbsolutePath(absolutePath)
}

func (walker *TreeWalker) sortEntries(entries []types.TreeEntry) {
	sort.SliceStable(entries, func(leftIndex, rightIndex int) bool {
		left, right := entries[leftIndex], entries[rightIndex]
		if left.IsDirectory != right.IsDirectory {
			return left.IsDirectory
		}
		if comparison := walker.collator.CompareString(left.Name, right.Name); comparison != 0 {
			return comparison < 0
		}
		return left.Name < right.Name
	})
}
