package music

import (
	"testing"
	"time"
)

func TestMapper_Map(t *testing.T) {
	m := NewMapper(DefaultMapperConfig())

	tests := []struct {
		name                           string
		str, position, fingers, offset int
		want                           int
	}{
		{"open E first position", 1, 1, 0, 0, 76},
		{"G third position four fingers sharp", 4, 3, 4, 1, 68}, // 55+4+8+1
		{"open A", 2, 1, 0, 0, 69},
		{"D second position two fingers", 3, 2, 2, 0, 68}, // 62+2+4
		{"flat offset", 2, 1, 1, -1, 70},                  // 69+2-1
		{"string clamped high", 9, 1, 0, 0, 55},           // clamps to G
		{"string clamped low", 0, 1, 0, 0, 76},            // clamps to E
		{"fingers clamped", 1, 1, 9, 0, 84},               // fingers -> 4
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Map(tt.str, tt.position, tt.fingers, tt.offset)
			if got != tt.want {
				t.Errorf("Map(%d,%d,%d,%d) = %d, want %d",
					tt.str, tt.position, tt.fingers, tt.offset, got, tt.want)
			}
		})
	}
}

func TestMapper_Map_ClampsToMIDIRange(t *testing.T) {
	cfg := DefaultMapperConfig()
	cfg.Strings = map[int]int{1: 126, 2: 69, 3: 62, 4: 0}
	m := NewMapper(cfg)

	if got := m.Map(1, 3, 4, 1); got != 127 {
		t.Errorf("high result = %d, want clamped 127", got)
	}
	if got := m.Map(4, 1, 0, -1); got != 0 {
		t.Errorf("low result = %d, want clamped 0", got)
	}
}

func TestMapper_Update_OnOffEdges(t *testing.T) {
	m := NewMapper(DefaultMapperConfig())
	now := time.Now()

	// Bow closes: exactly one on.
	evs := m.Update(true, 1, 1, 0, 0, now)
	if len(evs) != 1 || evs[0].Edge != EdgeOn || evs[0].Note != 76 {
		t.Fatalf("bow start events = %+v, want single on(76)", evs)
	}

	// Holding the same state produces nothing.
	if evs := m.Update(true, 1, 1, 0, 0, now); len(evs) != 0 {
		t.Fatalf("steady state events = %+v, want none", evs)
	}

	// Bow opens: exactly one off for the sounding note.
	evs = m.Update(false, 1, 1, 0, 0, now)
	if len(evs) != 1 || evs[0].Edge != EdgeOff || evs[0].Note != 76 {
		t.Fatalf("bow stop events = %+v, want single off(76)", evs)
	}

	// Further silence produces nothing.
	if evs := m.Update(false, 1, 1, 0, 0, now); len(evs) != 0 {
		t.Fatalf("silent events = %+v, want none", evs)
	}
}

func TestMapper_Update_Retrigger(t *testing.T) {
	m := NewMapper(DefaultMapperConfig())
	now := time.Now()

	m.Update(true, 1, 1, 0, 0, now)

	evs := m.Update(true, 2, 1, 0, 0, now)
	if len(evs) != 2 {
		t.Fatalf("retrigger events = %+v, want off+on", evs)
	}
	if evs[0].Edge != EdgeOff || evs[0].Note != 76 {
		t.Errorf("first event = %+v, want off(76)", evs[0])
	}
	if evs[1].Edge != EdgeOn || evs[1].Note != 69 {
		t.Errorf("second event = %+v, want on(69)", evs[1])
	}
}

func TestMapper_Update_Glide(t *testing.T) {
	cfg := DefaultMapperConfig()
	cfg.Policy = PolicyGlide
	m := NewMapper(cfg)
	now := time.Now()

	m.Update(true, 1, 1, 0, 0, now)

	evs := m.Update(true, 1, 1, 1, 0, now)
	if len(evs) != 1 || evs[0].Edge != EdgeChange || evs[0].Note != 78 {
		t.Fatalf("glide events = %+v, want single change(78)", evs)
	}
	if m.Sounding() != 78 {
		t.Errorf("Sounding() = %d, want 78", m.Sounding())
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("retrigger"); err != nil || p != PolicyRetrigger {
		t.Errorf("ParsePolicy(retrigger) = %v, %v", p, err)
	}
	if p, err := ParsePolicy("glide"); err != nil || p != PolicyGlide {
		t.Errorf("ParsePolicy(glide) = %v, %v", p, err)
	}
	if _, err := ParsePolicy("bounce"); err == nil {
		t.Error("ParsePolicy(bounce) should fail")
	}
}

func TestNoteName(t *testing.T) {
	tests := []struct {
		note int
		want string
	}{
		{69, "A4"},
		{76, "E5"},
		{55, "G3"},
		{60, "C4"},
		{61, "C#4"},
		{-1, "?-1"},
	}

	for _, tt := range tests {
		if got := NoteName(tt.note); got != tt.want {
			t.Errorf("NoteName(%d) = %q, want %q", tt.note, got, tt.want)
		}
	}
}

func TestFrequency(t *testing.T) {
	if f := Frequency(69); f < 439.99 || f > 440.01 {
		t.Errorf("Frequency(69) = %v, want 440", f)
	}
	if f := Frequency(81); f < 879.9 || f > 880.1 {
		t.Errorf("Frequency(81) = %v, want 880", f)
	}
}
