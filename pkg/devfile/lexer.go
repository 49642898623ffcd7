package devfile

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// DeviceLexer defines the lexical structure of device description files.
// Keywords are matched as identifiers by the grammar.
var DeviceLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments - shell style (# to end of line)
	{Name: "Comment", Pattern: `#[^\n]*`},

	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// Node names are TILE/WIRE and must come before identifiers
	{Name: "NodeName", Pattern: `[A-Za-z0-9_]+/[A-Za-z0-9_\[\]]+`},

	{Name: "Arrow", Pattern: `->`},
	{Name: "Int", Pattern: `-?[0-9]+`},

	// Identifiers may carry bus indices, e.g. WEBWE[0]
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_\[\]]*`},

	{Name: "Punct", Pattern: `[;(){},]`},
})
