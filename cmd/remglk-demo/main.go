// Command remglk-demo is a minimal reference frontend for pkg/glk: it
// opens one text-buffer window, greets the player, and echoes each line
// of input back until the client disconnects. It exists to exercise the
// library end to end over real stdin/stdout, the way a Glk-linked
// interpreter would, not to play an actual game.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rglk/remglk/internal/evloop"
	"github.com/rglk/remglk/internal/wintree"
	"github.com/rglk/remglk/internal/wire"
	"github.com/rglk/remglk/pkg/blorb"
	"github.com/rglk/remglk/pkg/config"
	"github.com/rglk/remglk/pkg/debugcmd"
	"github.com/rglk/remglk/pkg/dispatch"
	"github.com/rglk/remglk/pkg/glk"
	"github.com/rglk/remglk/pkg/logging"
)

var (
	version   string = "dev"
	buildTime string = "unknown"
	gitCommit string = "unknown"
)

// csvFlag collects repeated -flag=value occurrences into a slice, the
// way the teacher's cmd/*/main.go collects repeatable flags.
type csvFlag []string

func (f *csvFlag) String() string     { return strings.Join(*f, ",") }
func (f *csvFlag) Set(v string) error { *f = append(*f, v); return nil }

func main() {
	var (
		width          = flag.Int("width", 80, "fixed screen width in grid columns, with -autometrics=no")
		height         = flag.Int("height", 24, "fixed screen height in grid rows, with -autometrics=no")
		fixMetrics     = flag.Bool("fixmetrics", false, "alias for -autometrics=no")
		autoMetrics    = flag.Bool("autometrics", true, "read metrics from the client's init event")
		support        csvFlag
		resourceURL    = flag.String("resourceurl", "", "base URL the client should resolve relative resource links against")
		resourceDir    = flag.String("resourcedir", ".", "directory resource filerefs are rooted at (the -blorb path is opened as given)")
		blorbPath      = flag.String("blorb", "", "path to a Blorb resource archive, opened via pkg/blorb")
		dataResBin     csvFlag
		dataResText    csvFlag
		singleTurn     = flag.Bool("singleturn", false, "exit after the first completed turn, for scripted testing")
		stderrErrors   = flag.Bool("stderr", false, "accepted and noted in the startup log; errors are not redirected")
		debug          = flag.Bool("D", false, "enable the debug console (debuginput events pause for a command)")
		configPath     = flag.String("config", "", "path to a YAML config file layering defaults over these flags")
		showVersion    = flag.Bool("version", false, "show version information and exit")
	)
	flag.Var(&support, "support", "declare a support capability as fixed (repeatable): timer, hyperlinks, graphics, graphicswin, graphicsext, sound")
	flag.Var(&dataResBin, "dataresourcebin", "N:PATH binary data resource (repeatable)")
	flag.Var(&dataResText, "dataresourcetext", "N:PATH text data resource (repeatable)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("remglk-demo\nVersion: %s\nBuild Time: %s\nGit Commit: %s\n", version, buildTime, gitCommit)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "remglk-demo: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.Resources.Directory = *resourceDir

	logger := logging.New("remglk-demo", *cfg.Logging)
	logger.Info("starting", "version", version)

	dataResources, err := parseDataResources(dataResBin, dataResText)
	if err != nil {
		logger.Error("bad -dataresource flag", "error", err)
		os.Exit(1)
	}

	var archive *blorb.Archive
	if *blorbPath != "" {
		f, err := os.Open(*blorbPath)
		if err != nil {
			logger.Error("opening blorb file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		archive, err = blorb.Open(f)
		if err != nil {
			logger.Error("parsing blorb file", "error", err)
			os.Exit(1)
		}
	}
	if archive != nil {
		logger.Info("blorb archive loaded", "resources", len(archive.Resources))
	}
	if len(dataResources) > 0 {
		logger.Info("data resources configured", "count", len(dataResources))
	}
	if *resourceURL != "" {
		logger.Info("resource url", "url", *resourceURL)
	}
	if *stderrErrors {
		logger.Info("protocol errors will be written to stderr")
	}

	lib := glk.New(os.Stdin, os.Stdout, glk.Config{Logger: logger, Hooks: dispatch.Hooks{}, WorkingDir: *resourceDir})

	if *debug {
		lib.SetDebugHandler(debugcmd.HandlerFunc(func(line string) bool {
			logger.Info("debug command", "line", line)
			return true
		}))
	}

	if *fixMetrics || !*autoMetrics {
		m := &wire.Metrics{
			Width: int32(*width), Height: int32(*height),
			GridCharWidth: 1, GridCharHeight: 1,
			BufferCharWidth: 1, BufferCharHeight: 1,
		}
		lib.SelectImaginary(m, fixedSupportCaps(support))
	} else if err := lib.Init(); err != nil {
		logger.Error("init failed", "error", err)
		os.Exit(1)
	}

	win, err := lib.OpenWindow(nil, wintree.Method(0), 0, wintree.TypeTextBuffer, 1)
	if err != nil {
		logger.Error("opening main window", "error", err)
		os.Exit(1)
	}
	win.Print("Welcome.\n\n", "header")

	for {
		if err := win.RequestLineEvent(make([]rune, 256), nil, true); err != nil {
			logger.Error("requesting line event", "error", err)
			os.Exit(1)
		}
		ev, err := lib.Select()
		if err != nil {
			logger.Info("session ended", "error", err)
			return
		}
		if ev.Type == evloop.EvtLineInput {
			win.Print("\n", "normal")
		}
		if *singleTurn {
			return
		}
	}
}

func parseDataResources(bin, text csvFlag) (map[uint32]string, error) {
	out := make(map[uint32]string)
	add := func(entries csvFlag) error {
		for _, e := range entries {
			parts := strings.SplitN(e, ":", 2)
			if len(parts) != 2 {
				return fmt.Errorf("expected N:PATH, got %q", e)
			}
			n, err := strconv.ParseUint(parts[0], 10, 32)
			if err != nil {
				return fmt.Errorf("bad resource number in %q: %w", e, err)
			}
			out[uint32(n)] = parts[1]
		}
		return nil
	}
	if err := add(bin); err != nil {
		return nil, err
	}
	if err := add(text); err != nil {
		return nil, err
	}
	return out, nil
}

func fixedSupportCaps(names csvFlag) *wire.SupportCaps {
	list := wire.List{}
	for _, n := range names {
		list = append(list, wire.NewString(n))
	}
	return wire.ParseSupportCaps(list)
}
