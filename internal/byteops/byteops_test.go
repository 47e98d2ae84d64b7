package byteops

import "testing"

func TestPaethSpec(t *testing.T) {
	cases := []struct {
		a, b, c byte
		want    byte
	}{
		{10, 20, 15, 15}, // p=15 pa=5 pb=5 pc=0 -> c
		{10, 20, 5, 20},  // p=25 pa=15 pb=5 pc=20 -> b
		{10, 5, 0, 10},   // p=15 pa=5 pb=10 pc=15 -> a
	}
	for _, c := range cases {
		got := Paeth(c.a, c.b, c.c)
		if got != c.want {
			t.Errorf("Paeth(%d,%d,%d) = %d, want %d", c.a, c.b, c.c, got, c.want)
		}
		if got != c.a && got != c.b && got != c.c {
			t.Errorf("Paeth(%d,%d,%d) = %d not in {a,b,c}", c.a, c.b, c.c, got)
		}
	}
}

func TestAvg8(t *testing.T) {
	if got := Avg8(255, 255); got != 255 {
		t.Errorf("Avg8(255,255) = %d, want 255", got)
	}
	if got := Avg8(1, 0); got != 0 {
		t.Errorf("Avg8(1,0) = %d, want 0", got)
	}
}

func TestSub8Add8Roundtrip(t *testing.T) {
	for a := 0; a < 256; a += 17 {
		for b := 0; b < 256; b += 23 {
			s := Sub8(byte(a), byte(b))
			if got := Add8(s, byte(b)); got != byte(a) {
				t.Errorf("Add8(Sub8(%d,%d),%d) = %d, want %d", a, b, b, got, a)
			}
		}
	}
}
