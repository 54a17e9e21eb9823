package util

import "testing"

func TestArchiveKey(t *testing.T) {
	cases := []struct{ ns, name, want string }{
		{"app:prod", "recent", "bucket:app:prod:recent"},
		{"", "recent", "bucket:recent"},
		{"ns", "", "bucket:ns:"},
	}
	for _, c := range cases {
		if got := ArchiveKey(c.ns, c.name); got != c.want {
			t.Fatalf("ArchiveKey(%q,%q)=%q want %q", c.ns, c.name, got, c.want)
		}
	}
}

func TestDigestStableAndShort(t *testing.T) {
	a, b := Digest("42"), Digest("42")
	if a != b {
		t.Fatalf("digest not stable: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("digest length=%d want 16", len(a))
	}
	if Digest("43") == a {
		t.Fatalf("different input, same digest")
	}
}
