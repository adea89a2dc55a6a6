package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/geminstall"
)

// consoleSink prints install progress as plain styled lines.
type consoleSink struct {
	w      io.Writer
	source string
	start  time.Time

	installed, used int
}

func newConsoleSink(source string) *consoleSink {
	return &consoleSink{w: stdout, source: source}
}

func (s *consoleSink) Start(gems []cookbook.GemRequirement) {
	s.start = time.Now()
	s.installed, s.used = 0, 0
	if len(gems) == 0 {
		printInfo("No cookbook declares a gem")
		return
	}
	printInfo("Installing %s from %s", StyleNumber.Render(plural(len(gems), "gem")), StyleLink.Render(s.source))
}

func (s *consoleSink) Installing(name, version string) {
	s.installed++
	fmt.Fprintln(s.w, "  "+StyleSuccess.Render(iconInstall)+" "+StyleValue.Render(name)+" "+StyleDim.Render(version))
}

func (s *consoleSink) Using(name, version string) {
	s.used++
	fmt.Fprintln(s.w, "  "+StyleDim.Render(iconUsing+" "+name+" "+version))
}

func (s *consoleSink) Finished() {
	elapsed := time.Since(s.start).Round(time.Millisecond)
	if s.installed+s.used == 0 {
		printSuccess("Done (%s)", elapsed)
		return
	}
	printSuccess("%d installed, %d already present (%s)", s.installed, s.used, elapsed)
}

func (s *consoleSink) Failed(err error) {
	printError("Install failed: %s", errors.UserMessage(err))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

var _ geminstall.EventSink = (*consoleSink)(nil)
