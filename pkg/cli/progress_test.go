package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLineProgress(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressReporter(&buf, "Exporting")

	progress.Start(4)
	progress.Update(2)
	progress.Finish()

	out := buf.String()
	for _, want := range []string{"Exporting:", "(2/4)", "100.0%", "(4/4)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestLineProgressClampsOvershoot(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressReporter(&buf, "")

	progress.Start(2)
	progress.Update(5)

	if !strings.Contains(buf.String(), "Progress:") || !strings.Contains(buf.String(), "(2/2)") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLineProgressZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressReporter(&buf, "Exporting")

	progress.Start(0)
	progress.Update(0)
	progress.Finish()

	if strings.Contains(buf.String(), "Exporting:") {
		t.Errorf("zero total should not render a bar: %q", buf.String())
	}
}

func TestLineProgressError(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressReporter(&buf, "Exporting")

	progress.Start(10)
	progress.Error(errors.New("storage closed"))

	if !strings.Contains(buf.String(), "Error: storage closed") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestLineProgressConcurrent(t *testing.T) {
	var buf syncBuffer
	progress := NewProgressReporter(&buf, "Exporting")
	progress.Start(1000)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				progress.Update(int64(i*100 + j))
			}
		}()
	}
	wg.Wait()
	progress.Finish()

	if !strings.Contains(buf.String(), "(1000/1000)") {
		t.Error("expected final progress line")
	}
}
