package main

import (
	"errors"
	mathrand "math/rand"
	"testing"
)

func TestParseManualDice(t *testing.T) {
	got, err := parseManualDice("4, 6", 2, 6)
	if err != nil {
		t.Fatalf("parseManualDice: %v", err)
	}
	if len(got) != 2 || got[0] != 4 || got[1] != 6 {
		t.Fatalf("parseManualDice = %v", got)
	}

	bad := []string{"", "4", "4,6,1", "0,6", "7,6", "a,b"}
	for _, raw := range bad {
		if _, err := parseManualDice(raw, 2, 6); !errors.Is(err, ErrInvalidManualDice) {
			t.Fatalf("parseManualDice(%q) err = %v, want ErrInvalidManualDice", raw, err)
		}
	}
}

func TestParseDiceFormula(t *testing.T) {
	f, err := parseDiceFormula("2D6")
	if err != nil || f.Count != 2 || f.Sides != 6 || f.isFixed() {
		t.Fatalf("2D6 = %+v err %v", f, err)
	}
	f, err = parseDiceFormula("1d6")
	if err != nil || f.Count != 1 || f.Sides != 6 {
		t.Fatalf("1d6 = %+v err %v", f, err)
	}
	f, err = parseDiceFormula("3")
	if err != nil || !f.isFixed() || f.Fixed != 3 {
		t.Fatalf("fixed 3 = %+v err %v", f, err)
	}

	for _, raw := range []string{"", "d", "0d6", "2d1", "-1", "xdy"} {
		if _, err := parseDiceFormula(raw); err == nil {
			t.Fatalf("parseDiceFormula(%q) accepted malformed formula", raw)
		}
	}
}

func TestRollBase(t *testing.T) {
	fixed := DiceFormula{Fixed: 3}
	total, values, err := fixed.rollBase(nil, "")
	if err != nil || total != 3 || values != nil {
		t.Fatalf("fixed rollBase = %d %v %v", total, values, err)
	}

	dice := DiceFormula{Count: 2, Sides: 6}
	total, values, err = dice.rollBase(&scriptedDice{}, "5,2")
	if err != nil || total != 7 {
		t.Fatalf("manual rollBase = %d %v %v", total, values, err)
	}

	if _, _, err := dice.rollBase(&scriptedDice{}, "9,9"); !errors.Is(err, ErrInvalidManualDice) {
		t.Fatalf("out-of-range manual dice err = %v", err)
	}

	total, values, err = dice.rollBase(&scriptedDice{rolls: [][]int{{4, 3}}}, "")
	if err != nil || total != 7 || len(values) != 2 {
		t.Fatalf("scripted rollBase = %d %v %v", total, values, err)
	}
}

func TestRandomDiceRange(t *testing.T) {
	d := newRandomDice(mathrand.New(mathrand.NewSource(1)))
	for i := 0; i < 200; i++ {
		for _, v := range d.Roll(2, 6) {
			if v < 1 || v > 6 {
				t.Fatalf("die out of range: %d", v)
			}
		}
	}
}
