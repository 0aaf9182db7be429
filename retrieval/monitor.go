package retrieval

import "github.com/poiesic/anirag/core"

// Monitor provides hooks to observe the fallback decision process.
// Implement this interface to track which path a query took and why.
// Every completed run terminates with Satisfied carrying the final
// result set, then Finish — whether the local results passed, the
// fallback contributed a record, or the fallback degraded.
type Monitor interface {
	Start(question string)
	AfterLocalSearch(results []core.RetrievalResult)
	Satisfied(results []core.RetrievalResult)
	FallbackStarted(question string)
	TitleExtracted(title string)
	CacheHit(record *core.ShowRecord)
	Fetched(record *core.ShowRecord)
	FetchFailed(err error)
	Finish(results []core.RetrievalResult)
}

// noopMonitor is a no-op implementation of Monitor.
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (noopMonitor) Start(_ string)                            {}
func (noopMonitor) AfterLocalSearch(_ []core.RetrievalResult) {}
func (noopMonitor) Satisfied(_ []core.RetrievalResult)        {}
func (noopMonitor) FallbackStarted(_ string)                  {}
func (noopMonitor) TitleExtracted(_ string)                   {}
func (noopMonitor) CacheHit(_ *core.ShowRecord)               {}
func (noopMonitor) Fetched(_ *core.ShowRecord)                {}
func (noopMonitor) FetchFailed(_ error)                       {}
func (noopMonitor) Finish(_ []core.RetrievalResult)           {}
