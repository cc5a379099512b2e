package execution

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrUnsupportedLanguage is returned before any file or network I/O when a
// job names a language outside the fixed supported set
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language describes one supported source language
type Language struct {
	Name      string
	Judge0ID  int
	Extension string
}

var languages = map[string]Language{
	"javascript": {Name: "javascript", Judge0ID: 63, Extension: "js"},
	"python":     {Name: "python", Judge0ID: 71, Extension: "py"},
	"cpp":        {Name: "cpp", Judge0ID: 54, Extension: "cpp"},
	"java":       {Name: "java", Judge0ID: 62, Extension: "java"},
}

// Lookup resolves a language by name
func Lookup(name string) (Language, error) {
	lang, ok := languages[name]
	if !ok {
		return Language{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, name)
	}
	return lang, nil
}

var (
	javaPublicClassRe = regexp.MustCompile(`public\s+class\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	cppMainRe         = regexp.MustCompile(`int\s+main\s*\(`)
)

// defaultJavaClass names the source file when no public class is declared
const defaultJavaClass = "Main"

// JavaClassName extracts the public class name from Java source. This is a
// narrow text-pattern match, not a parser; when no public class is found it
// falls back to Main so a wrapped snippet still compiles under that name.
func JavaClassName(source string) string {
	if m := javaPublicClassRe.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return defaultJavaClass
}

// WrapSource makes bare snippets runnable: Java statements without a public
// class are wrapped in a Main class with a main method, and C++ statements
// without a main function are wrapped in an int main() skeleton. Sources
// that already declare the entry point pass through unchanged, as does every
// other language.
func WrapSource(language, source string) string {
	switch language {
	case "java":
		if javaPublicClassRe.MatchString(source) {
			return source
		}
		return "public class Main {\n  public static void main(String[] args) {\n" +
			source + "\n  }\n}"
	case "cpp":
		if cppMainRe.MatchString(source) {
			return source
		}
		return "#include <iostream>\nusing namespace std;\nint main() {\n" +
			source + "\nreturn 0;\n}"
	default:
		return source
	}
}
