package execution

import (
	"errors"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		language string
		wantID   int
		wantExt  string
		wantErr  bool
	}{
		{"javascript", "javascript", 63, "js", false},
		{"python", "python", 71, "py", false},
		{"cpp", "cpp", 54, "cpp", false},
		{"java", "java", 62, "java", false},
		{"unsupported", "cobol", 0, "", true},
		{"empty", "", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, err := Lookup(tt.language)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedLanguage) {
					t.Errorf("Expected ErrUnsupportedLanguage, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) failed: %v", tt.language, err)
			}
			if lang.Judge0ID != tt.wantID || lang.Extension != tt.wantExt {
				t.Errorf("Lookup(%q) = %+v", tt.language, lang)
			}
		})
	}
}

func TestJavaClassName(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"declared class", "public class Calculator { }", "Calculator"},
		{"underscore name", "public class _Helper2 { }", "_Helper2"},
		{"extra whitespace", "public  class\tThing { }", "Thing"},
		{"no public class", "System.out.println(1);", "Main"},
		{"non-public class", "class Hidden { }", "Main"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JavaClassName(tt.source); got != tt.want {
				t.Errorf("JavaClassName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapSource(t *testing.T) {
	t.Run("java bare statements get wrapped", func(t *testing.T) {
		wrapped := WrapSource("java", `System.out.println("hi");`)
		if !strings.Contains(wrapped, "public class Main") {
			t.Errorf("Expected Main wrapper, got %q", wrapped)
		}
		if !strings.Contains(wrapped, `System.out.println("hi");`) {
			t.Errorf("Original source missing from %q", wrapped)
		}
	})

	t.Run("java with public class passes through", func(t *testing.T) {
		src := "public class App { public static void main(String[] a) {} }"
		if got := WrapSource("java", src); got != src {
			t.Errorf("Expected pass-through, got %q", got)
		}
	})

	t.Run("cpp bare statements get wrapped", func(t *testing.T) {
		wrapped := WrapSource("cpp", `cout << "hi";`)
		if !strings.Contains(wrapped, "int main()") {
			t.Errorf("Expected main wrapper, got %q", wrapped)
		}
	})

	t.Run("cpp with main passes through", func(t *testing.T) {
		src := "#include <iostream>\nint main() { return 0; }"
		if got := WrapSource("cpp", src); got != src {
			t.Errorf("Expected pass-through, got %q", got)
		}
	})

	t.Run("interpreted languages untouched", func(t *testing.T) {
		src := "print(1)"
		if got := WrapSource("python", src); got != src {
			t.Errorf("Expected pass-through, got %q", got)
		}
	})
}
