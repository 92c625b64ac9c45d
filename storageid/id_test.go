package storageid

import "testing"

func TestRandomID_RoundTrip(t *testing.T) {
	t.Parallel()

	id := GenerateRandomID(nil)
	parsed, err := ParseRandomID(id.String())
	if err != nil {
		t.Fatalf("ParseRandomID: %v", err)
	}
	if !parsed.Equal(id) {
		t.Fatalf("make_id(id.String()) != id: got %v want %v", parsed, id)
	}
}

func TestRandomID_EmptyRejected(t *testing.T) {
	t.Parallel()

	if _, err := ParseRandomID(""); err == nil {
		t.Fatalf("expected error for empty random id")
	}
}

func TestSequentialID_GenerateNew(t *testing.T) {
	t.Parallel()

	if got := GenerateSequentialID(nil); got != 1 {
		t.Fatalf("generate_new(None) = %v, want 1", got)
	}

	prev := SequentialID(41)
	if got := GenerateSequentialID(&prev); got != 42 {
		t.Fatalf("generate_new(Some(41)) = %v, want 42", got)
	}
}

func TestSequentialID_Ordering(t *testing.T) {
	t.Parallel()

	small, big := SequentialID(2), SequentialID(10)
	if !small.Less(big) {
		t.Fatalf("expected 2 < 10 numerically, not lexicographically")
	}
}

func TestSequentialID_RoundTrip(t *testing.T) {
	t.Parallel()

	id := SequentialID(7)
	parsed, err := ParseSequentialID(id.String())
	if err != nil {
		t.Fatalf("ParseSequentialID: %v", err)
	}
	if parsed != id {
		t.Fatalf("make_id(id.String()) != id: got %v want %v", parsed, id)
	}
}

func TestSequentialID_InvalidRejected(t *testing.T) {
	t.Parallel()

	if _, err := ParseSequentialID("not-a-number"); err == nil {
		t.Fatalf("expected error for non-numeric sequential id")
	}
}

func TestExternalID_ParseSplitsOnFirstColon(t *testing.T) {
	t.Parallel()

	id, err := ParseExternalID("a:b")
	if err != nil {
		t.Fatalf("ParseExternalID(a:b): %v", err)
	}
	if id.Prefix != "a" || id.Body != "b" {
		t.Fatalf("got prefix=%q body=%q, want a/b", id.Prefix, id.Body)
	}
}

func TestExternalID_ParseRejectsMalformed(t *testing.T) {
	t.Parallel()

	cases := []string{"a", "a:", ":b", ""}
	for _, c := range cases {
		if _, err := ParseExternalID(c); err == nil {
			t.Fatalf("ParseExternalID(%q) should have failed", c)
		}
	}
}

func TestExternalID_GenerateNewIsSentinel(t *testing.T) {
	t.Parallel()

	got := GenerateExternalID(nil)
	if got.Prefix != "unknown" || got.Body != "default" {
		t.Fatalf("generate_new should return sentinel default, got %v", got)
	}
}

func TestExternalID_RoundTrip(t *testing.T) {
	t.Parallel()

	id := ExternalID{Prefix: "tenant", Body: "123"}
	parsed, err := ParseExternalID(id.String())
	if err != nil {
		t.Fatalf("ParseExternalID: %v", err)
	}
	if !parsed.Equal(id) {
		t.Fatalf("make_id(id.String()) != id: got %v want %v", parsed, id)
	}
}

func TestSimpleExternalID_RejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, err := ParseSimpleExternalID(""); err == nil {
		t.Fatalf("expected error for empty simple external id")
	}
}

func TestSimpleExternalID_RoundTrip(t *testing.T) {
	t.Parallel()

	id := SimpleExternalID("anything-goes")
	parsed, err := ParseSimpleExternalID(id.String())
	if err != nil {
		t.Fatalf("ParseSimpleExternalID: %v", err)
	}
	if parsed != id {
		t.Fatalf("make_id(id.String()) != id: got %v want %v", parsed, id)
	}
}
