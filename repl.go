package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// command is one parsed repl line.
type command struct {
	op   string
	args []string
	vals []float64
}

// parseCommand splits a line into an op, its name arguments and trailing
// numeric arguments. Numbers must come after names.
func parseCommand(line string) (*command, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, nil
	}

	cmd := &command{op: tokens[0]}
	for _, tok := range tokens[1:] {
		v, err := strconv.ParseFloat(tok, 64)
		if err == nil {
			cmd.vals = append(cmd.vals, v)
			continue
		}
		if len(cmd.vals) > 0 {
			return nil, fmt.Errorf("name %q after numeric argument", tok)
		}
		cmd.args = append(cmd.args, tok)
	}
	return cmd, nil
}

func (c *command) shape(names, nums int) error {
	if len(c.args) != names || len(c.vals) != nums {
		return fmt.Errorf("%s wants %d names and %d numbers", c.op, names, nums)
	}
	return nil
}

const replHelp = `commands:
  set <param> <value>            set a param directly (unclamped)
  adj <param> <delta>            adjust a param, clamped to its range
  mod <source> <param> <amount>  set a modulation amount
  note <key> [vel]               play a note for 300ms
  stats                          engine counters
  quit`

// runREPL reads commands until EOF or quit. Every mutation goes through
// the event queue like any other control source.
func runREPL(h *Host, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, replHelp)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}

		cmd, err := parseCommand(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}
		if cmd == nil {
			continue
		}

		if err := runCommand(h, cmd, out); err != nil {
			if err == errQuit {
				return
			}
			fmt.Fprintln(out, "error:", err)
		}
	}
}

var errQuit = fmt.Errorf("quit")

func runCommand(h *Host, cmd *command, out io.Writer) error {
	switch cmd.op {
	case "set":
		if err := cmd.shape(1, 1); err != nil {
			return err
		}
		if !h.SetParam(cmd.args[0], cmd.vals[0]) {
			return fmt.Errorf("unknown param %q", cmd.args[0])
		}
	case "adj":
		if err := cmd.shape(1, 1); err != nil {
			return err
		}
		if !h.AdjustParam(cmd.args[0], cmd.vals[0]) {
			return fmt.Errorf("unknown param %q", cmd.args[0])
		}
	case "mod":
		if err := cmd.shape(2, 1); err != nil {
			return err
		}
		if !h.SetModAmount(cmd.args[0], cmd.args[1], cmd.vals[0]) {
			return fmt.Errorf("unknown route %s -> %s", cmd.args[0], cmd.args[1])
		}
	case "note":
		vel := 0.8
		switch len(cmd.vals) {
		case 2:
			vel = cmd.vals[1]
		case 1:
		default:
			return fmt.Errorf("note wants a key and an optional velocity")
		}
		if len(cmd.args) != 0 {
			return fmt.Errorf("note wants a numeric key")
		}
		key := cmd.vals[0]
		if key < 0 || key > 127 {
			return fmt.Errorf("key %v out of range 0-127", key)
		}
		stop := h.PlayNote(uint8(key), vel)
		go func() {
			time.Sleep(time.Millisecond * 300)
			stop()
		}()
	case "stats":
		c := h.Stats()
		fmt.Fprintf(out, "events=%d started=%d dropped=%d recycled=%d\n",
			c.Events, c.NotesStarted, c.NotesDropped, c.VoicesRecycled)
	case "help":
		fmt.Fprintln(out, replHelp)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd.op)
	}
	return nil
}
