package validate

import "testing"

func TestFixIdempotent(t *testing.T) {
	paths := []string{
		"report~",
		"CON.txt",
		"a/b/CON",
		"  leading.txt",
		"trailing.txt  ",
		"a/weird<name>.txt",
		"a/normal/path.csv",
		"name ~",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			once, _ := Fix(path)
			twice, changedAgain := Fix(once)
			if twice != once {
				t.Fatalf("Fix not idempotent: Fix(%q)=%q, Fix(%q)=%q", path, once, once, twice)
			}
			if changedAgain {
				t.Fatalf("Fix(Fix(%q)) reported a change but produced %q", path, twice)
			}
		})
	}
}

func TestFixExamples(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"report~", "report"},
		{"CON.txt", "CON_renamed.txt"},
		{"CON", "CON_renamed"},
		{"  spaced  ", "spaced"},
		{"name ~", "name"},
	}
	for _, test := range tests {
		got, changed := Fix(test.path)
		if got != test.want {
			t.Errorf("Fix(%q) = %q, want %q", test.path, got, test.want)
		}
		if !changed && test.path != test.want {
			t.Errorf("Fix(%q) reported no change but path differs from input", test.path)
		}
	}
}

func TestFixNoChangeForValidPath(t *testing.T) {
	path := "a/b/report.csv"
	got, changed := Fix(path)
	if changed {
		t.Fatalf("Fix(%q) reported a change, got %q", path, got)
	}
	if got != path {
		t.Fatalf("Fix(%q) = %q, want unchanged", path, got)
	}
}

func TestValidateFlagsReservedName(t *testing.T) {
	problems := Validate("a/CON.txt")
	if len(problems) == 0 {
		t.Fatal("expected a problem for a Windows-reserved basename")
	}
}

func TestValidatePassesCleanPath(t *testing.T) {
	if problems := Validate("a/b/report.csv"); len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}
}
