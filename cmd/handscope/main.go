package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/handscope/cmd/handscope/shared"
	"github.com/lox/handscope/internal/display"
)

// version is set by ldflags during build
var version = "dev"

// Globals are the flags shared by every command plus the process streams.
type Globals struct {
	LogLevel string `default:"warn" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	NoColor  bool   `help:"Disable colored output"`

	stdin  io.Reader `kong:"-"`
	stdout io.Writer `kong:"-"`
	stderr io.Writer `kong:"-"`
}

// Logger builds the process logger on stderr.
func (g *Globals) Logger() (*log.Logger, error) {
	return shared.SetupLogger(g.stderr, g.LogLevel)
}

// Renderer styles output for stdout.
func (g *Globals) Renderer() *display.Renderer {
	return display.NewRenderer(g.stdout, g.NoColor)
}

type CLI struct {
	Globals `embed:""`

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Analyze AnalyzeCmd       `cmd:"" help:"Analyze a pair of hole cards"`
	Table   TableCmd         `cmd:"" help:"Show the 169-hand strength grid"`
	Deal    DealCmd          `cmd:"" help:"Deal and analyze random hole cards"`
	Batch   BatchCmd         `cmd:"" help:"Analyze hole cards read one pair per line"`
	Serve   ServeCmd         `cmd:"" help:"Run the HTTP and WebSocket analysis service"`
	TUI     TUICmd           `cmd:"tui" help:"Interactive analyzer"`
	History HistoryCmd       `cmd:"" help:"Show recorded analyses"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("handscope"),
		kong.Description("Starting-hand strength table and hand-archetype analyzer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	cli.stdin = os.Stdin
	cli.stdout = os.Stdout
	cli.stderr = os.Stderr

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
