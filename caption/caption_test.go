package caption

import (
	"sync"
	"testing"
	"time"
)

func lineTexts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func equalTexts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRenderer_FIFOEviction(t *testing.T) {
	r := NewRenderer(Config{MaxLines: 3, FadeTimeout: time.Hour})

	for _, text := range []string{"one", "two", "three", "four"} {
		r.Show(text, "")
	}

	got := lineTexts(r.Lines())
	want := []string{"two", "three", "four"}
	if !equalTexts(got, want) {
		t.Errorf("Lines = %v, want %v", got, want)
	}
	if r.Visible() != 3 {
		t.Errorf("Visible = %d, want 3", r.Visible())
	}
}

func TestRenderer_FadeRemovesOldestFirst(t *testing.T) {
	r := NewRenderer(Config{MaxLines: 5, FadeTimeout: 60 * time.Millisecond})

	r.Show("first", "")
	time.Sleep(30 * time.Millisecond)
	r.Show("second", "")

	// After the first deadline only "first" has expired.
	time.Sleep(50 * time.Millisecond)
	got := lineTexts(r.Lines())
	if !equalTexts(got, []string{"second"}) {
		t.Errorf("after first fade Lines = %v, want [second]", got)
	}

	// After the second deadline the display is empty.
	time.Sleep(50 * time.Millisecond)
	if n := r.Visible(); n != 0 {
		t.Errorf("after second fade Visible = %d, want 0", n)
	}
}

func TestRenderer_NewLineReschedulesNothingExtra(t *testing.T) {
	// Three lines shown in quick succession fade one at a time in order,
	// driven by a single rearming timer.
	r := NewRenderer(Config{MaxLines: 5, FadeTimeout: 50 * time.Millisecond})

	r.Show("a", "")
	time.Sleep(15 * time.Millisecond)
	r.Show("b", "")
	time.Sleep(15 * time.Millisecond)
	r.Show("c", "")

	time.Sleep(30 * time.Millisecond) // a expired at 50ms
	if got := lineTexts(r.Lines()); !equalTexts(got, []string{"b", "c"}) {
		t.Errorf("Lines = %v, want [b c]", got)
	}

	time.Sleep(60 * time.Millisecond)
	if n := r.Visible(); n != 0 {
		t.Errorf("Visible = %d, want 0", n)
	}
}

func TestRenderer_FadeRemovesOneLinePerFiring(t *testing.T) {
	// Two lines shown back to back expire at effectively the same instant.
	// They must still leave one at a time: observers see an intermediate
	// update with only the newer line before the display empties.
	r := NewRenderer(Config{MaxLines: 5, FadeTimeout: 40 * time.Millisecond})

	var mu sync.Mutex
	var updates [][]string
	r.OnUpdate(func(lines []Line) {
		mu.Lock()
		updates = append(updates, lineTexts(lines))
		mu.Unlock()
	})

	r.Show("first", "")
	r.Show("second", "")
	time.Sleep(120 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(updates) != 4 {
		t.Fatalf("updates = %v, want 4 of them", updates)
	}
	if !equalTexts(updates[2], []string{"second"}) {
		t.Errorf("intermediate update = %v, want [second]", updates[2])
	}
	if len(updates[3]) != 0 {
		t.Errorf("final update = %v, want empty", updates[3])
	}
}

func TestRenderer_ClearIsIdempotent(t *testing.T) {
	r := NewRenderer(Config{MaxLines: 3, FadeTimeout: time.Hour})

	r.Show("one", "")
	r.Show("two", "")
	r.Clear()
	if n := r.Visible(); n != 0 {
		t.Fatalf("Visible after Clear = %d, want 0", n)
	}
	r.Clear() // no-op

	// The display still works after clearing.
	r.Show("three", "")
	if got := lineTexts(r.Lines()); !equalTexts(got, []string{"three"}) {
		t.Errorf("Lines = %v, want [three]", got)
	}
}

func TestRenderer_OnUpdate(t *testing.T) {
	r := NewRenderer(Config{MaxLines: 3, FadeTimeout: time.Hour})

	var mu sync.Mutex
	var updates [][]string
	r.OnUpdate(func(lines []Line) {
		mu.Lock()
		updates = append(updates, lineTexts(lines))
		mu.Unlock()
	})

	r.Show("one", "")
	r.Show("two", "")
	r.Clear()

	mu.Lock()
	defer mu.Unlock()
	if len(updates) != 3 {
		t.Fatalf("updates = %d, want 3", len(updates))
	}
	if !equalTexts(updates[1], []string{"one", "two"}) {
		t.Errorf("second update = %v, want [one two]", updates[1])
	}
	if len(updates[2]) != 0 {
		t.Errorf("clear update = %v, want empty", updates[2])
	}
}

func TestLine_String(t *testing.T) {
	l := Line{Text: "hola", Speaker: "Ana"}
	if got := l.String(); got != "Ana: hola" {
		t.Errorf("String = %q, want %q", got, "Ana: hola")
	}
	l.Speaker = ""
	if got := l.String(); got != "hola" {
		t.Errorf("String = %q, want %q", got, "hola")
	}
}
