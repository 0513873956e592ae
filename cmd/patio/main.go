// Program patio packs and unpacks binary records described by format strings.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/creachadair/mds/value"
	"github.com/oy3o/patio"
	"github.com/oy3o/patio/format"
)

var flags struct {
	Verbose bool `flag:"v,Enable verbose logging"`
}

var packFlags struct {
	Hex bool `flag:"hex,Write the packed record as hex"`
}

var unpackFlags struct {
	Repeat bool `flag:"repeat,Decode records until the input ends"`
	Hex    bool `flag:"hex,Read the input as hex"`
}

const formatHelp = `
Whitespace in the format is ignored; otherwise each word describes one field:

  1..8   : an unsigned integer of that many bytes
  -1..-8 : a signed integer of that many bytes
  f      : a float32
  d      : a float64
  %      : a Boolean constant (true or false) in one byte
  p      : a Pascal style string with a 1-byte length prefix
  s      : a string with a 4-byte length prefix
  l      : a line terminated by a newline
  r      : a raw string running to the end of the input
  z<n>   : a string stored in exactly n bytes, padded with NUL
  x<n>   : n bytes of padding
  e      : the end of the input

By default, fixed-width values use big-endian order, but the following symbols
modify the byte order for future values:

  <  : little-endian
  >  : big-endian (this is the default)
`

func main() {
	root := &command.C{
		Name:     filepath.Base(os.Args[0]),
		Help:     "Pack and unpack binary records described by format strings.",
		SetFlags: command.Flags(flax.MustBind, &flags),
		Init: func(env *command.Env) error {
			level := value.Cond(flags.Verbose, slog.LevelDebug, slog.LevelWarn)
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
		Commands: []*command.C{
			{
				Name:     "pack",
				Usage:    "<format> <argument>...",
				Help:     "Pack arguments into a binary record and write it to stdout.\n" + formatHelp,
				SetFlags: command.Flags(flax.MustBind, &packFlags),
				Run:      runPack,
			},
			{
				Name:     "unpack",
				Usage:    "<format>",
				Help:     "Unpack binary records from stdin and print one value per line.\n" + formatHelp,
				SetFlags: command.Flags(flax.MustBind, &unpackFlags),
				Run:      runUnpack,
			},
			{
				Name:  "size",
				Usage: "<format>",
				Help:  "Print the size in bytes of a record, if it does not depend on the data.",
				Run:   runSize,
			},
			command.VersionCommand(),
			command.HelpCommand(nil),
		},
	}
	command.RunOrFail(root.NewEnv(nil).MergeFlags(true), os.Args[1:])
}

func compile(env *command.Env) (*format.Format, error) {
	if len(env.Args) == 0 {
		return nil, env.Usagef("Missing format argument")
	}
	f, err := format.Compile(env.Args[0])
	if err != nil {
		return nil, err
	}
	slog.Debug("compiled format", "format", f.String(), "values", f.NumValues())
	return f, nil
}

func runPack(env *command.Env) error {
	f, err := compile(env)
	if err != nil {
		return err
	}
	enc, err := f.Encoder(env.Args[1:]...)
	if err != nil {
		return err
	}
	data, err := patio.Marshal(enc)
	if err != nil {
		return err
	}
	slog.Debug("packed record", "bytes", len(data))
	if packFlags.Hex {
		_, err = fmt.Println(hex.EncodeToString(data))
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runUnpack(env *command.Env) error {
	f, err := compile(env)
	if err != nil {
		return err
	} else if len(env.Args) > 1 {
		return env.Usagef("extra arguments: %q", env.Args[1:])
	}
	var in io.Reader = bufio.NewReader(os.Stdin)
	if unpackFlags.Hex {
		in = hex.NewDecoder(newSpaceFilter(in))
	}
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if !unpackFlags.Repeat {
		vs, err := patio.Decode(f.Decoder(), in)
		if err != nil {
			return err
		}
		printValues(out, vs)
		return nil
	}
	n := 0
	for vs, err := range patio.Stream(context.Background(), f.Decoder(), in) {
		if err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
		if n > 0 {
			fmt.Fprintln(out)
		}
		printValues(out, vs)
		n++
	}
	slog.Debug("unpacked records", "count", n)
	return nil
}

func printValues(w io.Writer, vs []any) {
	for _, v := range vs {
		switch t := v.(type) {
		case string:
			fmt.Fprintf(w, "%q\n", t)
		default:
			fmt.Fprintln(w, t)
		}
	}
}

func runSize(env *command.Env) error {
	f, err := compile(env)
	if err != nil {
		return err
	}
	n, ok := f.Size()
	if !ok {
		fmt.Println("variable")
		return nil
	}
	fmt.Println(n)
	return nil
}

// spaceFilter drops whitespace so hex input may be wrapped or grouped.
type spaceFilter struct{ r *bufio.Reader }

func newSpaceFilter(r io.Reader) io.Reader { return spaceFilter{r: bufio.NewReader(r)} }

func (s spaceFilter) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		c, err := s.r.ReadByte()
		if err != nil {
			return n, err
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			if n > 0 {
				return n, nil
			}
			continue
		}
		p[n] = c
		n++
	}
	return n, nil
}
