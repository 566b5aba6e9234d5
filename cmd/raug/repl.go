package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pipelined/raug"
)

const replHelp = `commands:
  q             quit
  l             list parameters
  NAME VALUE    set a parameter
  NAME b        bang a parameter`

// repl reads parameter commands line by line until q or the end of in.
func repl(in io.Reader, out io.Writer, r *raug.Runtime, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		switch {
		case len(fields) == 0:
			continue
		case len(fields) == 1 && fields[0] == "q":
			return nil
		case len(fields) == 1 && fields[0] == "l":
			for _, name := range r.ParamNames() {
				v, _ := r.Params().GetNamed(name)
				fmt.Fprintf(out, "%s = %g\n", name, v)
			}
		case len(fields) == 2:
			if err := command(r, fields[0], fields[1]); err != nil {
				fmt.Fprintln(out, err)
			}
		default:
			fmt.Fprintln(out, replHelp)
		}
	}
}

func command(r *raug.Runtime, name, arg string) error {
	p, err := r.ParamNamed(name)
	if err != nil {
		return err
	}
	if strings.HasPrefix(arg, "b") {
		p.Bang()
		return nil
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", arg)
	}
	return p.Set(v)
}
