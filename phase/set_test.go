package phase

import (
	"slices"
	"testing"
)

func TestForModifier(t *testing.T) {
	tests := []struct {
		modifier rune
		want     []Phase
	}{
		{'=', []Phase{Master}},
		{'*', []Phase{Staging, Locked, Master}},
		{'~', []Phase{Pending, Staging, Locked, Master, Retired, Withdrawn, Unknown}},
		{'!', []Phase{Pending, Retired, Withdrawn, Unknown}},
	}
	for _, tt := range tests {
		t.Run(string(tt.modifier), func(t *testing.T) {
			set, ok := ForModifier(tt.modifier)
			if !ok {
				t.Fatalf("ForModifier(%q) not ok", tt.modifier)
			}
			if got := set.Phases(); !slices.Equal(got, tt.want) {
				t.Errorf("ForModifier(%q) = %v, want %v", tt.modifier, got, tt.want)
			}
		})
	}

	if _, ok := ForModifier('<'); ok {
		t.Error("ForModifier('<') should not be ok")
	}
}

func TestSet(t *testing.T) {
	s := Of(Master, Staging)
	if !s.Contains(Master) || !s.Contains(Staging) {
		t.Errorf("%v should contain MASTER and STAGING", s)
	}
	if s.Contains(Withdrawn) {
		t.Errorf("%v should not contain WITHDRAWN", s)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if s.String() != "SM" {
		t.Errorf("String() = %q, want SM", s.String())
	}
	if All().Len() != 7 {
		t.Errorf("All().Len() = %d, want 7", All().Len())
	}
	if got := s.Add(Phase(200)); got != s {
		t.Error("adding an invalid phase should leave the set unchanged")
	}
	var empty Set
	if empty.Len() != 0 || empty.Phases() != nil {
		t.Error("zero Set should be empty")
	}
}
