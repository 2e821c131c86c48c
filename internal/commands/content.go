package commands

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/snapsource/internal/types"
)

const warningStatItemMessage = "unable to stat selected item"

// Collect returns the records for one selected item. A file yields at most one record; a
// directory is walked depth-first with the same filtering and sibling order as Render. The
// content pass has no depth limit.
func (walker *TreeWalker) Collect(itemPath string) []types.FileRecord {
	if walker.pipeline == nil {
		return nil
	}
	itemInfo, statError := os.Stat(itemPath)
	if statError != nil {
		walker.logger.Warn(warningStatItemMessage, zap.String("path", itemPath), zap.Error(statError))
		return nil
	}
	if !itemInfo.IsDir() {
		record, produced := walker.pipeline.Process(itemPath)
		if !produced {
			return nil
		}
		return []types.FileRecord{record}
	}
	if !walker.isVisible(itemPath, true) {
		return nil
	}
	return walker.collectDirectory(itemPath)
}

func (walker *TreeWalker) collectDirectory(directoryPath string) []types.FileRecord {
	entries, listError := walker.listVisibleEntries(directoryPath)
	if listError != nil {
		walker.logger.Warn(warningSkipSubdirMessage, zap.String("directory", directoryPath), zap.Error(listError))
		return nil
	}

	var records []types.FileRecord
	for _, entry := range entries {
		childPath := filepath.Join(directoryPath, entry.Name)
		if entry.IsDirectory {
			records = append(records, walker.collectDirectory(childPath)...)
			continue
		}
		record, produced := walker.pipeline.Process(childPath)
		if produced {
			records = append(records, record)
		}
	}
	return records
}
