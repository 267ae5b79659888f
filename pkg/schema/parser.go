package schema

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoregistry"
)

// parseServices walks the service declarations in one .proto source and
// appends a Method per rpc to the table. It recognizes exactly three
// keywords: package, service, and rpc. Everything else, message bodies
// included, is skipped by brace tracking; the compile pass has already
// validated the full grammar.
func parseServices(src string, registry *protoregistry.Files, table *MethodTable) error {
	toks := tokenize(src)
	p := &tokenWalker{toks: toks}

	pkg := ""
	depth := 0

	for {
		tok, ok := p.next()
		if !ok {
			break
		}
		switch {
		case tok == "{":
			depth++
		case tok == "}":
			depth--
		case depth == 0 && tok == "package":
			name, ok := p.next()
			if !ok || isDelimiter(name) {
				return &ParseError{Reason: "package directive missing name"}
			}
			pkg = name
			p.accept(";")
		case depth == 0 && tok == "service":
			if err := parseService(p, registry, table, pkg); err != nil {
				return err
			}
		}
	}

	if depth != 0 {
		return &ParseError{Reason: "unbalanced braces"}
	}
	return nil
}

// parseService consumes "service" Name { ... } and parses each rpc inside.
func parseService(p *tokenWalker, registry *protoregistry.Files, table *MethodTable, pkg string) error {
	svcName, ok := p.next()
	if !ok || isDelimiter(svcName) {
		return &ParseError{Reason: "service declaration missing name"}
	}
	if !p.accept("{") {
		return &ParseError{Reason: "service " + svcName + " missing body"}
	}

	for {
		tok, ok := p.next()
		if !ok {
			return &ParseError{Reason: "service " + svcName + " not terminated"}
		}
		switch tok {
		case "}":
			return nil
		case "rpc":
			if err := parseRPC(p, registry, table, pkg, svcName); err != nil {
				return err
			}
		case "{":
			// Option block or similar; skip balanced.
			if err := p.skipBraces(); err != nil {
				return err
			}
		default:
			// Individual option tokens; the next iteration moves past them.
		}
	}
}

// parseRPC consumes one rpc declaration:
//
//	rpc Name ( [stream] Req ) returns ( [stream] Res ) [; | { ... }]
func parseRPC(p *tokenWalker, registry *protoregistry.Files, table *MethodTable, pkg, svcName string) error {
	name, ok := p.next()
	if !ok || isDelimiter(name) {
		return &ParseError{Reason: "rpc declaration missing name"}
	}

	clientStreaming, reqType, err := parseTypeGroup(p, name)
	if err != nil {
		return err
	}
	if !p.accept("returns") {
		return &ParseError{Reason: "missing returns clause", RPC: name}
	}
	serverStreaming, resType, err := parseTypeGroup(p, name)
	if err != nil {
		return err
	}

	// Trailing option body or semicolon.
	if p.accept("{") {
		if err := p.skipBraces(); err != nil {
			return &ParseError{Reason: "unterminated rpc options", RPC: name}
		}
	} else {
		p.accept(";")
	}

	input, err := resolveMessage(registry, pkg, reqType)
	if err != nil {
		return err
	}
	output, err := resolveMessage(registry, pkg, resType)
	if err != nil {
		return err
	}

	fullPath := "/" + svcName + "/" + name
	if pkg != "" {
		fullPath = "/" + pkg + "." + svcName + "/" + name
	}

	if _, exists := table.methods[name]; exists {
		return &ParseError{Reason: "duplicate rpc name across services", RPC: name}
	}

	m := &Method{
		SimpleName:      name,
		FullPath:        fullPath,
		Service:         svcName,
		Input:           input,
		Output:          output,
		ClientStreaming: clientStreaming,
		ServerStreaming: serverStreaming,
	}
	table.methods[name] = m
	table.byPath[fullPath] = m
	return nil
}

// parseTypeGroup consumes "( [stream] Type )" and returns the stream flag
// and the type name.
func parseTypeGroup(p *tokenWalker, rpcName string) (bool, string, error) {
	if !p.accept("(") {
		return false, "", &ParseError{Reason: "missing type group", RPC: rpcName}
	}
	tok, ok := p.next()
	if !ok {
		return false, "", &ParseError{Reason: "unterminated type group", RPC: rpcName}
	}
	streaming := false
	if tok == "stream" {
		streaming = true
		tok, ok = p.next()
		if !ok {
			return false, "", &ParseError{Reason: "unterminated type group", RPC: rpcName}
		}
	}
	if isDelimiter(tok) {
		return false, "", &ParseError{Reason: "type group missing type name", RPC: rpcName}
	}
	if !p.accept(")") {
		return false, "", &ParseError{Reason: "unterminated type group", RPC: rpcName}
	}
	return streaming, tok, nil
}

// tokenWalker steps through the token stream.
type tokenWalker struct {
	toks []string
	pos  int
}

func (p *tokenWalker) next() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	tok := p.toks[p.pos]
	p.pos++
	return tok, true
}

// accept consumes the next token if it equals want.
func (p *tokenWalker) accept(want string) bool {
	if p.pos < len(p.toks) && p.toks[p.pos] == want {
		p.pos++
		return true
	}
	return false
}

// skipBraces consumes tokens until the brace opened just before the call is
// balanced. The opening "{" must already be consumed.
func (p *tokenWalker) skipBraces() error {
	depth := 1
	for depth > 0 {
		tok, ok := p.next()
		if !ok {
			return &ParseError{Reason: "unbalanced braces"}
		}
		switch tok {
		case "{":
			depth++
		case "}":
			depth--
		}
	}
	return nil
}

func isDelimiter(tok string) bool {
	switch tok {
	case "{", "}", "(", ")", ";":
		return true
	}
	return false
}

// tokenize splits .proto source into tokens. Whitespace separates tokens;
// the delimiters { } ( ) ; are tokens of their own; // line comments are
// dropped.
func tokenize(src string) []string {
	var toks []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			flush()
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '{' || c == '}' || c == '(' || c == ')' || c == ';':
			flush()
			toks = append(toks, string(c))
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return toks
}
