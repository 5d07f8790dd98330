package path

import (
	"testing"
)

func TestNewComponentRejectsInvalid(t *testing.T) {
	cases := []string{"", ".", "..", "a/b", "a\\b"}
	for _, c := range cases {
		if _, err := NewComponent(c); err != ErrMalformedPath {
			t.Errorf("NewComponent(%q) did not reject malformed component", c)
		}
	}
}

func TestNewComponentAccepts(t *testing.T) {
	if c, err := NewComponent("foo.txt"); err != nil || c.String() != "foo.txt" {
		t.Errorf("NewComponent rejected valid component: %v, %v", c, err)
	}
}

func TestRelativeRoundTrip(t *testing.T) {
	cases := []string{"", "a", "a/b", "a/b/c"}
	for _, c := range cases {
		p, err := NewRelative(c)
		if err != nil {
			t.Fatalf("NewRelative(%q) failed: %v", c, err)
		}
		reparsed, err := NewRelative(p.String())
		if err != nil {
			t.Fatalf("re-parsing %q failed: %v", p.String(), err)
		}
		if reparsed != p {
			t.Errorf("round trip mismatch: %q != %q", reparsed, p)
		}
	}
}

func TestRelativeNormalization(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{".", ""},
		{"a/./b", "a/b"},
		{"a/b/..", "a"},
		{"a//b", "a/b"},
		{"a/b\\c", "a/b/c"},
	}
	for _, tc := range cases {
		p, err := NewRelative(tc.input)
		if err != nil {
			t.Fatalf("NewRelative(%q) failed: %v", tc.input, err)
		}
		if p.String() != tc.expected {
			t.Errorf("NewRelative(%q) = %q, expected %q", tc.input, p.String(), tc.expected)
		}
	}
}

func TestRelativeDotDotAboveRootFails(t *testing.T) {
	if _, err := NewRelative(".."); err != ErrMalformedPath {
		t.Error("expected malformed path error for .. above root")
	}
	if _, err := NewRelative("a/../.."); err != ErrMalformedPath {
		t.Error("expected malformed path error for climbing above root")
	}
}

func TestRelativeComponentsReverse(t *testing.T) {
	p, _ := NewRelative("a/b/c")
	forward := p.Components()
	reverse := p.RComponents()
	if len(forward) != len(reverse) {
		t.Fatalf("length mismatch: %d != %d", len(forward), len(reverse))
	}
	for i := range forward {
		if forward[i] != reverse[len(reverse)-1-i] {
			t.Errorf("reverse mismatch at %d: %v != %v", i, forward[i], reverse[len(reverse)-1-i])
		}
	}
}

func TestRelativeIsSubDirOf(t *testing.T) {
	parent, _ := NewRelative("a/b")
	child, _ := NewRelative("a/b/c")

	if !child.IsSubDirOf(parent) {
		t.Error("expected child to be a sub-directory of parent")
	}
	if !parent.IsParentDirOf(child) {
		t.Error("expected parent to be a parent directory of child")
	}
	if child.IsSubDirOf(child) {
		t.Error("a path must not be a sub-directory of itself")
	}
	if parent.IsParentDirOf(parent) {
		t.Error("a path must not be a parent directory of itself")
	}
}

func TestAbsoluteMalformed(t *testing.T) {
	cases := []string{"", "a", "/a/", "/a/./b", "/a/../b"}
	for _, c := range cases {
		if _, err := NewAbsolute(c); err != ErrMalformedPath {
			t.Errorf("NewAbsolute(%q) did not reject malformed path", c)
		}
	}
}

func TestAbsoluteRoot(t *testing.T) {
	p, err := NewAbsolute("/")
	if err != nil {
		t.Fatalf("NewAbsolute(\"/\") failed: %v", err)
	}
	if p.String() != "/" {
		t.Errorf("root did not render as /: %q", p.String())
	}
}

func TestAbsoluteJoin(t *testing.T) {
	root, _ := NewAbsolute("/mnt/repo")
	rel, _ := NewRelative("a/b")
	if joined := root.Join(rel); joined.String() != "/mnt/repo/a/b" {
		t.Errorf("unexpected joined path: %q", joined.String())
	}
}

func TestLessOrdersDepthFirst(t *testing.T) {
	a, _ := NewRelative("a/z")
	b, _ := NewRelative("a/a/z")
	if !Less(b, a) {
		t.Error("expected a/a/z to sort before a/z")
	}
}
