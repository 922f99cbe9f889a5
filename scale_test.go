package povd

import "testing"

func TestMapIndex(t *testing.T) {
	tests := []struct {
		name      string
		destLen   uint16
		sourceLen uint16
		expect    []uint16
	}{
		{"identity", 4, 4, []uint16{0, 1, 2, 3}},
		{"truncated", 3, 8, []uint16{0, 1, 2}},
		{"stretched", 5, 2, []uint16{0, 0, 0, 0, 1}},
		{"stretched odd", 6, 3, []uint16{0, 0, 0, 1, 1, 2}},
		{"single source", 4, 1, []uint16{0, 0, 0, 0}},
		{"empty source", 3, 0, []uint16{0, 0, 0}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := make([]uint16, test.destLen)
			for i := range got {
				got[i] = MapIndex(uint16(i), test.destLen, test.sourceLen)
			}
			assertEq(t, test.expect, got)
		})
	}
}

func TestMapIndexEndpoints(t *testing.T) {
	for destLen := uint16(2); destLen <= MaxOutputLength; destLen += 7 {
		for sourceLen := uint16(2); sourceLen < destLen; sourceLen += 3 {
			if got := MapIndex(0, destLen, sourceLen); got != 0 {
				t.Fatalf("MapIndex(0, %d, %d) = %d, want 0", destLen, sourceLen, got)
			}
			if got := MapIndex(destLen-1, destLen, sourceLen); got != sourceLen-1 {
				t.Fatalf("MapIndex(%d, %d, %d) = %d, want %d",
					destLen-1, destLen, sourceLen, got, sourceLen-1)
			}

			var prev uint16
			for i := uint16(0); i < destLen; i++ {
				got := MapIndex(i, destLen, sourceLen)
				if got >= sourceLen || got < prev {
					t.Fatalf("MapIndex(%d, %d, %d) = %d after %d",
						i, destLen, sourceLen, got, prev)
				}
				prev = got
			}
		}
	}
}
