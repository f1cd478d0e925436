package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/januspriv/janus/internal/guard"
	"github.com/januspriv/janus/internal/model"
)

// lineReader serializes reads of the interactive input stream. The message
// loop and the audit prompts share one stdin; the lock delivers each line to
// exactly one consumer.
type lineReader struct {
	mu sync.Mutex
	r  *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// ReadLine blocks until a full line is available and returns it trimmed.
func (l *lineReader) ReadLine() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line, err := l.r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// termSurface renders the blocking decision surfaces on the terminal. The
// browser extension backs these with modals; attach mode backs them with
// prompts on stdin.
type termSurface struct {
	in  *lineReader
	out io.Writer
}

func newTermSurface(in *lineReader, out io.Writer) *termSurface {
	return &termSurface{in: in, out: out}
}

func (t *termSurface) readLine() (string, error) {
	return t.in.ReadLine()
}

func (t *termSurface) Loading(text string) {
	fmt.Fprintln(t.out, "screening...")
}

func (t *termSurface) Resolve(ctx context.Context, original string, items []model.DetectedItem) (guard.Decision, error) {
	fmt.Fprintf(t.out, "\nflagged %d item(s):\n", len(items))
	for i, item := range items {
		fmt.Fprintf(t.out, "  %d. [%s] %q: %s\n", i+1, item.Severity, item.Text, item.Reason)
	}
	fmt.Fprint(t.out, "(r)ewrite and send, (s)end original, (c)ancel? ")

	line, err := t.readLine()
	if err != nil {
		return guard.Decision{}, err
	}
	switch strings.ToLower(line) {
	case "s":
		return guard.Decision{Action: guard.ActionSendOriginal}, nil
	case "r":
		fmt.Fprint(t.out, "item numbers to fix (empty for all): ")
		nums, err := t.readLine()
		if err != nil {
			return guard.Decision{}, err
		}
		checked := items
		if nums != "" {
			checked = nil
			for _, field := range strings.Fields(strings.ReplaceAll(nums, ",", " ")) {
				n, err := strconv.Atoi(field)
				if err != nil || n < 1 || n > len(items) {
					continue
				}
				checked = append(checked, items[n-1])
			}
		}
		return guard.Decision{Action: guard.ActionRewriteSend, Checked: checked}, nil
	default:
		return guard.Decision{Action: guard.ActionCancel}, nil
	}
}

func (t *termSurface) Acknowledge(outcome model.ScreenOutcome) {
	fmt.Fprintf(t.out, "screen: %s\n", outcome.Kind)
}

func (t *termSurface) Decide(ctx context.Context, items []model.ViolationItem) ([]model.ViolationItem, bool, error) {
	fmt.Fprintf(t.out, "\nthe assistant appears to know %d thing(s) beyond the identity:\n", len(items))
	decided := make([]model.ViolationItem, len(items))
	copy(decided, items)
	for i := range decided {
		fmt.Fprintf(t.out, "  %q (%s): (i)gnore, (d)eny, (p)ollute? ", decided[i].KnownInfo, decided[i].Category)
		line, err := t.readLine()
		if err != nil {
			return nil, false, err
		}
		switch strings.ToLower(line) {
		case "d":
			decided[i].Disposition = model.DispositionDeny
		case "p":
			decided[i].Disposition = model.DispositionPollute
		case "q":
			return nil, false, nil
		default:
			decided[i].Disposition = model.DispositionIgnore
		}
	}
	return decided, true, nil
}

func (t *termSurface) Confirm(ctx context.Context, message string) (string, bool, error) {
	fmt.Fprintf(t.out, "\ncorrection to send:\n  %s\n", message)
	fmt.Fprint(t.out, "(y)es, (e)dit, (n)o? ")
	line, err := t.readLine()
	if err != nil {
		return "", false, err
	}
	switch strings.ToLower(line) {
	case "y":
		return message, true, nil
	case "e":
		fmt.Fprint(t.out, "edited message: ")
		edited, err := t.readLine()
		if err != nil {
			return "", false, err
		}
		if edited == "" {
			return message, true, nil
		}
		return edited, true, nil
	default:
		return "", false, nil
	}
}
