package cli

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/temirov/snapsource/internal/services/snapshot"
)

const progressScale = 100

// progressBar is the subset of *progressbar.ProgressBar used by the reporter.
type progressBar interface {
	Set(num int) error
	Describe(description string)
	Close() error
}

// progressReporter turns snapshot progress events into a terminal progress bar.
type progressReporter struct {
	bar       progressBar
	mutex     sync.Mutex
	completed float64
}

func newProgressReporter(writer io.Writer) *progressReporter {
	bar := progressbar.NewOptions(
		progressScale,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
	return &progressReporter{bar: bar}
}

// Observe implements snapshot.ProgressObserver.
func (reporter *progressReporter) Observe(event snapshot.ProgressEvent) {
	reporter.mutex.Lock()
	defer reporter.mutex.Unlock()
	if event.Message != "" {
		reporter.bar.Describe(event.Message)
	}
	reporter.completed += event.Increment
	if reporter.completed > progressScale {
		reporter.completed = progressScale
	}
	_ = reporter.bar.Set(int(reporter.completed))
}

// Close clears the bar from the terminal.
func (reporter *progressReporter) Close() error {
	reporter.mutex.Lock()
	defer reporter.mutex.Unlock()
	return reporter.bar.Close()
}
