package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"trade-dashboard-go/internal/dashboard"
)

const helpText = `Commands:
  show                 render the current page
  codes                list trade codes
  filter [CODE]        filter by trade code, no argument shows all
  next | prev          move one page
  page N               jump to page N (one-based)
  reload               fetch the current page again
  edit ID              edit close and volume of a trade on the page
  close VALUE          set the edited close
  volume VALUE         set the edited volume
  save | cancel        finish the edit
  set FIELD VALUE      set a new-trade field (date, trade_code, open, high, low, close, volume)
  submit               create the drafted trade
  delete ID            delete a trade
  help                 show this text
  quit                 exit`

var errQuit = errors.New("quit")

type repl struct {
	d   *dashboard.Dashboard
	out io.Writer
}

// run reads commands from in until EOF, quit, or ctx is done.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	r.render()
	fmt.Fprint(r.out, "> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		err := r.exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
		fmt.Fprint(r.out, "> ")
	}
	return scanner.Err()
}

// exec runs a single command line.
func (r *repl) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintln(r.out, helpText)
	case "show":
		r.render()
	case "codes":
		r.d.LoadCodes(ctx)
		snap := r.d.Snapshot()
		if len(snap.Codes) == 0 {
			fmt.Fprintln(r.out, "(no trade codes)")
		} else {
			fmt.Fprintln(r.out, strings.Join(snap.Codes, " "))
		}
	case "filter":
		code := ""
		if len(args) > 0 {
			code = args[0]
		}
		return r.navigate(r.d.SetFilter(ctx, code))
	case "next":
		return r.navigate(r.d.NextPage(ctx))
	case "prev":
		return r.navigate(r.d.PrevPage(ctx))
	case "page":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return r.navigate(r.d.SetPage(ctx, n-1))
	case "reload":
		return r.navigate(r.d.Reload(ctx))
	case "edit":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		if err := r.d.StartEdit(id); err != nil {
			return err
		}
		r.renderEdit()
	case "close":
		r.d.Edit().SetClose(strings.Join(args, " "))
		r.renderEdit()
	case "volume":
		r.d.Edit().SetVolume(strings.Join(args, " "))
		r.renderEdit()
	case "save":
		if err := r.d.SaveEdit(ctx); err != nil {
			return err
		}
		r.render()
	case "cancel":
		r.d.CancelEdit()
	case "set":
		if len(args) < 1 {
			return errors.New("usage: set FIELD VALUE")
		}
		return r.d.SetDraftField(dashboard.Field(strings.ToLower(args[0])), strings.Join(args[1:], " "))
	case "submit":
		t, err := r.d.Submit(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "created trade %d\n", t.ID)
	case "delete":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		if err := r.d.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "deleted trade %d\n", id)
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	return nil
}

// navigate renders after a fetch. A superseded fetch is not an error here.
func (r *repl) navigate(err error) error {
	if err != nil && !errors.Is(err, dashboard.ErrSuperseded) {
		return err
	}
	r.render()
	return nil
}

func (r *repl) render() {
	snap := r.d.Snapshot()

	filter := snap.TradeCode
	if filter == "" {
		filter = "all"
	}
	fmt.Fprintf(r.out, "%s | trade code: %s | total: %d\n", snap.PageLabel(), filter, snap.Total)
	if snap.Loading {
		fmt.Fprintln(r.out, "loading...")
	}
	if snap.Err != nil {
		fmt.Fprintf(r.out, "last fetch failed: %v\n", snap.Err)
	}

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCODE\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME")
	for _, t := range snap.Items {
		marker := ""
		if snap.Editing && snap.EditingID == t.ID {
			marker = " *"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s\t%g\t%g\t%g\t%g\t%d\n",
			t.ID, marker, t.Date, t.TradeCode, t.Open, t.High, t.Low, t.Close, t.Volume)
	}
	tw.Flush()

	if n := len(snap.Charts.Price); n > 0 {
		lo, hi := snap.Charts.Price[0].Close, snap.Charts.Price[0].Close
		var volume int64
		for i, p := range snap.Charts.Price {
			lo, hi = min(lo, p.Close), max(hi, p.Close)
			volume += snap.Charts.Volume[i].Volume
		}
		fmt.Fprintf(r.out, "close %g..%g over %d points, volume %d\n", lo, hi, n, volume)
	}
}

func (r *repl) renderEdit() {
	id, draft, ok := r.d.Edit().Current()
	if !ok {
		return
	}
	fmt.Fprintf(r.out, "editing %d: close=%q volume=%q\n", id, draft.Close, draft.Volume)
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one number")
	}
	return strconv.Atoi(args[0])
}

func idArg(args []string) (uint, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one trade id")
	}
	id, err := strconv.ParseUint(args[0], 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid trade id %q", args[0])
	}
	return uint(id), nil
}
