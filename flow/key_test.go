package flow

import "testing"

func TestNewKeyCanonicalizesBothDirections(t *testing.T) {
	forward := NewKey(10, 20, 1000, 80, 6)
	backward := NewKey(20, 10, 80, 1000, 6)

	if forward != backward {
		t.Fatalf("expected canonical keys to match: %+v vs %+v", forward, backward)
	}
	if forward.IPA != 10 || forward.IPB != 20 {
		t.Fatalf("expected lexicographically smaller IP as A endpoint, got %+v", forward)
	}
}

func TestNewKeySamesIPTieBreaksOnPort(t *testing.T) {
	k := NewKey(10, 10, 5000, 443, 6)
	if k.PortA != 443 || k.PortB != 5000 {
		t.Fatalf("expected lower port as A endpoint when IPs match, got %+v", k)
	}
}

func TestDirectionOfMatchesCanonicalA(t *testing.T) {
	key := NewKey(10, 20, 1000, 80, 6)

	if DirectionOf(key, 10, 1000) != Forward {
		t.Fatalf("expected packet from the A endpoint to be Forward")
	}
	if DirectionOf(key, 20, 80) != Backward {
		t.Fatalf("expected packet from the B endpoint to be Backward")
	}
}
