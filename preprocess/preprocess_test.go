package preprocess

import (
	"testing"

	"github.com/sublive/sublive/audiosource"
)

func TestPassthrough(t *testing.T) {
	f := audiosource.Frame{Samples: []int16{1, -20000, 300}, Seq: 7}

	got := Passthrough{}.Apply(f)

	if got.Seq != 7 {
		t.Errorf("Seq = %d, want 7", got.Seq)
	}
	for i, s := range got.Samples {
		if s != f.Samples[i] {
			t.Fatalf("sample %d changed: %d != %d", i, s, f.Samples[i])
		}
	}
}

func TestNoiseGate(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		in        []int16
		want      []int16
	}{
		{
			name:      "quiet samples zeroed",
			threshold: 0.01, // gate at ~327
			in:        []int16{100, -200, 5000, -5000},
			want:      []int16{0, 0, 5000, -5000},
		},
		{
			name:      "zero threshold uses default",
			threshold: 0,
			in:        []int16{50, 10000},
			want:      []int16{0, 10000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]int16, len(tt.in))
			copy(in, tt.in)

			got := NoiseGate{Threshold: tt.threshold}.Apply(audiosource.Frame{Samples: in})

			for i, s := range got.Samples {
				if s != tt.want[i] {
					t.Errorf("sample %d = %d, want %d", i, s, tt.want[i])
				}
			}
			// Input buffer untouched.
			for i, s := range in {
				if s != tt.in[i] {
					t.Errorf("input sample %d mutated", i)
				}
			}
		})
	}
}

func TestNew(t *testing.T) {
	if _, ok := New("gate").(NoiseGate); !ok {
		t.Error(`New("gate") is not a NoiseGate`)
	}
	if _, ok := New("").(Passthrough); !ok {
		t.Error(`New("") is not a Passthrough`)
	}
	if _, ok := New("bogus").(Passthrough); !ok {
		t.Error(`New("bogus") is not a Passthrough`)
	}
}
