package scanner

import "testing"

func TestQueryMatch(t *testing.T) {
	const candidate = "/usr/lib/libfoo.so.1"

	cases := []struct {
		name  string
		query Query
		kind  Kind
		want  bool
	}{
		{"substring", Query{Pattern: "libfoo"}, KindMapping, true},
		{"substring miss", Query{Pattern: "libbar"}, KindMapping, false},
		{"substring case", Query{Pattern: "LIBFOO"}, KindMapping, false},
		{"substring folded", Query{Pattern: "LIBFOO", IgnoreCase: true}, KindMapping, true},
		{"exact partial", Query{Pattern: "libfoo", Mode: ModeExact}, KindMapping, false},
		{"exact full", Query{Pattern: candidate, Mode: ModeExact}, KindMapping, true},
		{"exact folded", Query{Pattern: "/USR/lib/LIBFOO.so.1", Mode: ModeExact, IgnoreCase: true}, KindMapping, true},
		{"empty substring", Query{Pattern: ""}, KindMapping, true},
		{"empty exact", Query{Pattern: "", Mode: ModeExact}, KindMapping, false},
		{"openfile default is exact", Query{Pattern: "libfoo"}, KindOpenFile, false},
		{"openfile default full", Query{Pattern: candidate}, KindOpenFile, true},
		{"openfile substring", Query{Pattern: "libfoo", Mode: ModeSubstring}, KindOpenFile, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.query.Match(tc.kind, candidate); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestQueryFoldingIsUnicodeAware(t *testing.T) {
	q := Query{Pattern: "STRASSE", IgnoreCase: true}
	if !q.Match(KindMapping, "/data/straße.db") {
		t.Fatal("expected ß to fold to ss")
	}
}

func TestQueryMatchDoesNotMutate(t *testing.T) {
	q := Query{Pattern: "LIB", IgnoreCase: true}
	candidate := "/usr/Lib/x"
	q.Match(KindMapping, candidate)
	if q.Pattern != "LIB" || candidate != "/usr/Lib/x" {
		t.Fatal("matching must not modify its inputs")
	}
}

func TestExactMatchResolution(t *testing.T) {
	if (Query{}).ExactMatch(KindMapping) {
		t.Fatal("mapping scans default to substring")
	}
	if !(Query{}).ExactMatch(KindOpenFile) {
		t.Fatal("open-file scans default to exact")
	}
	if !(Query{Mode: ModeExact}).ExactMatch(KindMapping) {
		t.Fatal("explicit exact must win")
	}
	if (Query{Mode: ModeSubstring}).ExactMatch(KindOpenFile) {
		t.Fatal("explicit substring must win")
	}
}
