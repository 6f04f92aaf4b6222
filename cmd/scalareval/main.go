// Command scalareval generates set corpora, evaluates probes against them
// and runs the benchmark sweep.
//
//	scalareval new [--floats] <file> <minvalue> <maxvalue> <values> <sets>
//	scalareval eval [--floats] [--gpu] <file> <minvalue> <maxvalue> <values>
//	scalareval test [--floats] [--gpu] <report> <minvalue> <maxvalue> [<values>] [<sets>]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{ctx: ctx, stdout: stdout}
	parser := newParser(a)

	start := time.Now()
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, flagsErr.Message)
			return 0
		}
		if a.logger != nil {
			a.logger.ErrorContext(ctx, "command failed", "error", err)
		} else {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}

	fmt.Fprintf(stdout, "Operation took %s s.\n", seconds(time.Since(start)))
	return 0
}

func newParser(a *app) *flags.Parser {
	parser := flags.NewNamedParser("scalareval", flags.HelpFlag|flags.PassDoubleDash)
	parser.ShortDescription = "Scalar set evaluator"

	if _, err := parser.AddGroup("Global Options", "", &a.opts); err != nil {
		panic(err)
	}

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"new", "Generate a corpus", "Generates <sets> sets of <values> distinct values from [<minvalue>, <maxvalue>) into <file>.", &newCommand{app: a}},
		{"eval", "Evaluate a random probe", "Counts the sets in <file> sharing a value with a random probe of <values> values.", &evalCommand{app: a}},
		{"test", "Run the benchmark sweep", "Runs the benchmark grid and writes one report per preload mode and thread count.", &testCommand{app: a}},
		{"devices", "List accelerator devices", "Lists the registered accelerator devices.", &devicesCommand{app: a}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			panic(err)
		}
	}
	return parser
}

// seconds renders d as seconds with microsecond precision.
func seconds(d time.Duration) string {
	return fmt.Sprintf("%d.%06d", int64(d/time.Second), int64((d%time.Second)/time.Microsecond))
}
