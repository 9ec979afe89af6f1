// Command binastc encodes a JSON-described AST into a context-0.1
// container, or decodes one back to JSON, following the flag layout and
// quit-on-error style of Consensys-compress's own linzip CLI.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/binast/context01/astio"
	"github.com/binast/context01/container"
	"github.com/binast/context01/dictionary"
	"github.com/binast/context01/idl"
	"github.com/binast/context01/strtab"
)

var (
	flagDecode  = flag.Bool("d", false, "decode a container back to JSON instead of encoding")
	flagIn      = flag.String("i", "", "input file (required)")
	flagOut     = flag.String("o", "", "output file")
	flagDict    = flag.String("dict", "", "shared string dictionary (JSON or CBOR)")
	flagReport  = flag.Bool("r", false, "report input/output byte sizes")
	flagVersion = flag.Bool("version", false, "report executable version")
)

const (
	extension = ".binast"
	version   = "0.1.0"
)

func quitF(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		panic(err)
	}
	os.Exit(1)
}

func assertNoError(err error) {
	if err != nil {
		quitF("%v\n", err)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("BINASTC_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func main() {
	flag.Parse()
	logger := newLogger()

	if *flagVersion {
		fmt.Println("binastc v" + version)
		os.Exit(0)
	}

	if *flagIn == "" {
		quitF("no input file specified\n")
	}

	in, err := os.ReadFile(*flagIn)
	assertNoError(err)

	var shared *strtab.Table
	if *flagDict != "" {
		f, err := os.Open(*flagDict)
		assertNoError(err)
		shared, err = dictionary.Load(f)
		assertNoError(err)
		f.Close()
		logger.Debug("loaded shared dictionary", "path", *flagDict, "entries", shared.Len())
	}

	if *flagOut == "" {
		if *flagDecode {
			if strings.HasSuffix(*flagIn, extension) {
				*flagOut = (*flagIn)[:len(*flagIn)-len(extension)] + ".json"
			} else {
				*flagOut = *flagIn + ".json"
			}
		} else {
			*flagOut = *flagIn + extension
		}
	}

	resolver := idl.Default()

	var out []byte
	if *flagDecode {
		out = decode(logger, resolver, in, shared)
	} else {
		out = encode(logger, resolver, in, shared)
	}

	assertNoError(os.WriteFile(*flagOut, out, 0600))

	if *flagReport {
		fmt.Printf("%dB -> %dB\n", len(in), len(out))
	}
}
