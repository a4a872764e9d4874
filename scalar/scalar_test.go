package scalar

import "testing"

func TestRoundBankHalfEven(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.125", "0.12"},
		{"0.135", "0.14"},
		{"2.5", "2"},
		{"3.5", "4"},
	}
	for _, c := range cases {
		d := MustParse(c.in)
		var got D
		if c.in == "2.5" || c.in == "3.5" {
			got = d.Round(0)
		} else {
			got = d.Round(2)
		}
		if got.String() != c.want {
			t.Fatalf("Round(%s) = %s, want %s", c.in, got.String(), c.want)
		}
	}
}

func TestDivByZero(t *testing.T) {
	_, ok := NewFromInt(1).Div(Zero)
	if ok {
		t.Fatal("expected division by zero to report failure")
	}
}

func TestMeanEmpty(t *testing.T) {
	if !Mean(nil).IsZero() {
		t.Fatal("expected mean of empty slice to be zero")
	}
}

func TestArithmetic(t *testing.T) {
	a := NewFromInt(200)
	b := MustParse("0.8")
	got := a.Mul(b)
	if got.String() != "160" {
		t.Fatalf("got %s, want 160", got.String())
	}
}
