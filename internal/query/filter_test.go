package query

import "testing"

func TestParseQuerySeparatesFiltersFromTerms(t *testing.T) {
	f, terms := parseQuery("helper path:src/auth -ext:.md ext:.rs search")
	if terms != "helper search" {
		t.Fatalf("terms = %q, want %q", terms, "helper search")
	}
	if len(f.pathInclude) != 1 || f.pathInclude[0] != "src/auth" {
		t.Fatalf("pathInclude = %v", f.pathInclude)
	}
	if len(f.extExclude) != 1 || f.extExclude[0] != ".md" {
		t.Fatalf("extExclude = %v", f.extExclude)
	}
	if len(f.extInclude) != 1 || f.extInclude[0] != ".rs" {
		t.Fatalf("extInclude = %v", f.extInclude)
	}
}

func TestFiltersMatchesPathAndExt(t *testing.T) {
	f, _ := parseQuery("path:auth -ext:.md")
	if !f.matches("src/auth/login.rs") {
		t.Fatal("expected src/auth/login.rs to match")
	}
	if f.matches("src/auth/README.md") {
		t.Fatal("expected README.md to be excluded")
	}
	if f.matches("src/math/add.rs") {
		t.Fatal("expected src/math/add.rs to not match path:auth")
	}
}

func TestNormalizeExtAddsLeadingDot(t *testing.T) {
	if got := normalizeExt("rs"); got != ".rs" {
		t.Fatalf("normalizeExt(rs) = %q", got)
	}
	if got := normalizeExt(".RS"); got != ".rs" {
		t.Fatalf("normalizeExt(.RS) = %q", got)
	}
}
