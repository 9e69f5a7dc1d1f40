package prefix

import "testing"

func TestParseFormatRoundTrip(t *testing.T) {
	cases := []string{"0.0.0.0", "255.255.255.255", "192.168.0.1", "10.0.255.0", "10.1.0.0"}
	for _, s := range cases {
		a, err := ParseDotted(s)
		if err != nil {
			t.Fatalf("ParseDotted(%q): %v", s, err)
		}
		if got := FormatDotted(a); got != s {
			t.Errorf("FormatDotted(ParseDotted(%q)) = %q, want %q", s, got, s)
		}
	}
}

func TestParseDottedInvalid(t *testing.T) {
	for _, s := range []string{"1.2.3", "1.2.3.4.5", "256.0.0.0", "a.b.c.d", ""} {
		if _, err := ParseDotted(s); err == nil {
			t.Errorf("ParseDotted(%q) expected error", s)
		}
	}
}

func TestLengthMaskRoundTrip(t *testing.T) {
	for length := uint8(0); length <= 32; length++ {
		mask := LengthToMask(length)
		if got := MaskToLength(mask); got != length {
			t.Errorf("MaskToLength(LengthToMask(%d)) = %d", length, got)
		}
	}
}

func TestLengthToMaskBoundaries(t *testing.T) {
	if LengthToMask(0) != 0 {
		t.Errorf("/0 mask should be 0.0.0.0")
	}
	if LengthToMask(32) != 0xFFFFFFFF {
		t.Errorf("/32 mask should be 255.255.255.255")
	}
}

func TestCanonicalize(t *testing.T) {
	a, _ := ParseDotted("192.168.1.200")
	p := New(a, 24)
	want, _ := ParseDotted("192.168.1.0")
	if p.Network != want {
		t.Errorf("Canonicalize got %s want %s", FormatDotted(p.Network), FormatDotted(want))
	}
}

func TestCoversBoundaries(t *testing.T) {
	zero := New(0, 0)
	any, _ := ParseDotted("8.8.8.8")
	if !zero.Covers(any) {
		t.Error("/0 must cover every address")
	}

	host, _ := ParseDotted("10.1.2.3")
	p32 := New(host, 32)
	if !p32.Covers(host) {
		t.Error("/32 must cover exactly its own address")
	}
	other, _ := ParseDotted("10.1.2.4")
	if p32.Covers(other) {
		t.Error("/32 must not cover a different address")
	}
}

func TestAdjacentOctetBoundary(t *testing.T) {
	a, _ := ParseDotted("10.0.255.0")
	b, _ := ParseDotted("10.1.0.0")
	if Adjacent(New(a, 24), New(b, 24)) {
		t.Error("10.0.255.0/24 and 10.1.0.0/24 must NOT be adjacent")
	}

	c, _ := ParseDotted("10.0.0.0")
	d, _ := ParseDotted("10.0.1.0")
	if !Adjacent(New(c, 24), New(d, 24)) {
		t.Error("10.0.0.0/24 and 10.0.1.0/24 must be adjacent at /23")
	}
}

func TestAdjacentRequiresEqualLength(t *testing.T) {
	a, _ := ParseDotted("10.0.0.0")
	b, _ := ParseDotted("10.0.0.0")
	if Adjacent(New(a, 23), New(b, 24)) {
		t.Error("prefixes of different length can never be adjacent")
	}
}

func TestWidenClearsUncoveredBit(t *testing.T) {
	a, _ := ParseDotted("192.168.1.0")
	p := New(a, 24).Widen()
	if p.Length != 23 {
		t.Fatalf("Widen length = %d, want 23", p.Length)
	}
	want, _ := ParseDotted("192.168.0.0")
	if p.Network != want {
		t.Errorf("Widen network = %s, want %s", FormatDotted(p.Network), FormatDotted(want))
	}
}

func TestLtFullWidth(t *testing.T) {
	a, _ := ParseDotted("1.0.0.5")
	b, _ := ParseDotted("1.0.1.4")
	if !Lt(a, b) {
		t.Error("1.0.0.5 should be less than 1.0.1.4 (full 32-bit compare, not first octet)")
	}
}
