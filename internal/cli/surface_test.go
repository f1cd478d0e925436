package cli

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/januspriv/janus/internal/guard"
	"github.com/januspriv/janus/internal/model"
)

func surfaceWithInput(input string) (*termSurface, *bytes.Buffer) {
	var out bytes.Buffer
	return newTermSurface(newLineReader(strings.NewReader(input)), &out), &out
}

func TestResolveSendOriginal(t *testing.T) {
	s, _ := surfaceWithInput("s\n")
	d, err := s.Resolve(context.Background(), "hi", []model.DetectedItem{{Text: "Toronto"}})
	if err != nil {
		t.Fatal(err)
	}
	if d.Action != guard.ActionSendOriginal {
		t.Errorf("action = %q", d.Action)
	}
}

func TestResolveRewriteSubset(t *testing.T) {
	items := []model.DetectedItem{{Text: "Toronto"}, {Text: "nurse"}, {Text: "34"}}
	s, _ := surfaceWithInput("r\n1 3\n")
	d, err := s.Resolve(context.Background(), "hi", items)
	if err != nil {
		t.Fatal(err)
	}
	if d.Action != guard.ActionRewriteSend {
		t.Fatalf("action = %q", d.Action)
	}
	if len(d.Checked) != 2 || d.Checked[0].Text != "Toronto" || d.Checked[1].Text != "34" {
		t.Errorf("checked = %+v", d.Checked)
	}
}

func TestResolveRewriteEmptyMeansAll(t *testing.T) {
	items := []model.DetectedItem{{Text: "a"}, {Text: "b"}}
	s, _ := surfaceWithInput("r\n\n")
	d, err := s.Resolve(context.Background(), "hi", items)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Checked) != 2 {
		t.Errorf("checked = %+v", d.Checked)
	}
}

func TestResolveDefaultCancels(t *testing.T) {
	s, _ := surfaceWithInput("\n")
	d, err := s.Resolve(context.Background(), "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Action != guard.ActionCancel {
		t.Errorf("action = %q", d.Action)
	}
}

func TestDecideAssignsDispositions(t *testing.T) {
	items := []model.ViolationItem{{KnownInfo: "Toronto"}, {KnownInfo: "nurse"}, {KnownInfo: "34"}}
	s, _ := surfaceWithInput("d\np\n\n")
	decided, submitted, err := s.Decide(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	if !submitted {
		t.Fatal("expected submit")
	}
	want := []model.Disposition{model.DispositionDeny, model.DispositionPollute, model.DispositionIgnore}
	for i, w := range want {
		if decided[i].Disposition != w {
			t.Errorf("item %d disposition = %q, want %q", i, decided[i].Disposition, w)
		}
	}
	if items[0].Disposition != "" {
		t.Error("input slice must not be mutated")
	}
}

func TestDecideQuitDiscards(t *testing.T) {
	s, _ := surfaceWithInput("q\n")
	_, submitted, err := s.Decide(context.Background(), []model.ViolationItem{{KnownInfo: "x"}})
	if err != nil {
		t.Fatal(err)
	}
	if submitted {
		t.Error("quit must discard")
	}
}

func TestConfirmEdit(t *testing.T) {
	s, _ := surfaceWithInput("e\nActually, never mind that.\n")
	final, ok, err := s.Confirm(context.Background(), "original message")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || final != "Actually, never mind that." {
		t.Errorf("final = %q, ok = %v", final, ok)
	}
}

func TestLineReaderSerializesConsumers(t *testing.T) {
	// The attach message loop and an audit prompt may read concurrently;
	// each line must reach exactly one of them.
	r := newLineReader(strings.NewReader("alpha\nbeta\n"))

	var (
		mu  sync.Mutex
		got []string
		wg  sync.WaitGroup
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			line, err := r.ReadLine()
			if err != nil {
				t.Errorf("ReadLine: %v", err)
				return
			}
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Strings(got)
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("lines = %v, want [alpha beta]", got)
	}
}

func TestConfirmBackOut(t *testing.T) {
	s, _ := surfaceWithInput("n\n")
	_, ok, err := s.Confirm(context.Background(), "msg")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected back out")
	}
}
