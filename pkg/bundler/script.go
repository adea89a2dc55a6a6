package bundler

import (
	"strings"

	"github.com/matzehuels/cookgems/pkg/geminstall"
)

const scriptHeader = `require "bundler"
require "bundler/inline"

$stdout.sync = true
$stderr.sync = true
`

const uiClass = `
class CookgemsUI < Bundler::UI::Silent
  def confirm(msg = nil, *) emit("confirm", msg) end
  def error(msg = nil, *) emit("error", msg) end
  def debug(msg = nil, *) emit("debug", msg) end
  def info(msg = nil, *) emit("info", msg) end
  def warn(msg = nil, *) emit("warn", msg) end
  def debug?; true; end

  private

  def emit(level, msg)
    msg.to_s.each_line { |line| $stdout.puts("#{level}\t#{line.chomp}") }
  end
end
`

// Script renders the Ruby program that installs m. With ui set, Bundler
// output is routed through the tagged line protocol described in the
// package documentation.
func Script(m *geminstall.Manifest, ui bool) string {
	var b strings.Builder
	b.WriteString(scriptHeader)
	if ui {
		b.WriteString(uiClass)
		b.WriteString("\ngemfile(true, ui: CookgemsUI.new) do\n")
	} else {
		b.WriteString("\ngemfile(true) do\n")
	}
	b.WriteString("  source ")
	b.WriteString(geminstall.RubyString(m.Source))
	b.WriteString("\n")
	for _, g := range m.Gems {
		b.WriteString("  ")
		b.WriteString(geminstall.GemLine(g))
		b.WriteString("\n")
	}
	b.WriteString("end\n")
	return b.String()
}

// probeScript prints RUBY_VERSION and Bundler::VERSION on separate lines.
const probeScript = `require "bundler"; print RUBY_VERSION, "\n", Bundler::VERSION, "\n"`
