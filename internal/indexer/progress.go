package indexer

import "time"

// ProgressReporter provides callbacks for reporting build progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files, oversized int)

	// OnFileProcessed is called after each file is extracted, from any
	// worker goroutine.
	OnFileProcessed(processed, total int, fileName string)

	// OnBuildComplete is called when the graph has been assembled.
	OnBuildComplete(nodeCount, edgeCount int, duration time.Duration)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                                 {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files, oversized int)          {}
func (n *NoOpProgressReporter) OnFileProcessed(processed, total int, name string) {}
func (n *NoOpProgressReporter) OnBuildComplete(nodeCount, edgeCount int, duration time.Duration) {
}
