package geminstall

import "github.com/matzehuels/cookgems/pkg/cookbook"

// EventSink receives lifecycle notifications for an install run.
//
// Methods are called synchronously from the goroutine running
// [Installer.Install] and their results are ignored. Implementations must
// not block for long; the install subsystem waits on them.
type EventSink interface {
	// Start is called once per run with the aggregated gem list, which may
	// be empty.
	Start(gems []cookbook.GemRequirement)
	// Installing is called when the subsystem starts installing a gem.
	Installing(name, version string)
	// Using is called when the subsystem reuses an already installed gem.
	Using(name, version string)
	// Finished is called once when the run succeeds.
	Finished()
	// Failed is called once when the run fails, with the subsystem's error.
	Failed(err error)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Start([]cookbook.GemRequirement) {}
func (NopSink) Installing(string, string)       {}
func (NopSink) Using(string, string)            {}
func (NopSink) Finished()                       {}
func (NopSink) Failed(error)                    {}

var _ EventSink = NopSink{}
