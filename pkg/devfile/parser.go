package devfile

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

// deviceParser is shared by every caller; participle parsers are safe for
// concurrent use once built.
var deviceParser = participle.MustBuild[File](
	participle.Lexer(DeviceLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// Parse reads one device description. name labels positions in errors,
// usually the file it came from.
func Parse(name string, r io.Reader) (*File, error) {
	f, err := deviceParser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("devfile: %w", err)
	}
	return f, nil
}

// ParseString is Parse on an in-memory description.
func ParseString(name, src string) (*File, error) {
	f, err := deviceParser.ParseString(name, src)
	if err != nil {
		return nil, fmt.Errorf("devfile: %w", err)
	}
	return f, nil
}

// ParseFile parses the description stored at path.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("devfile: %w", err)
	}
	defer fh.Close()
	return Parse(path, fh)
}
