package jack

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/jacklang/n2t/pkg/diag"
	"github.com/jacklang/n2t/pkg/utils"
)

// ----------------------------------------------------------------------------
// Tokenizer

// TokenKind enumerates the lexical categories of the Jack language.
type TokenKind string

const (
	KeywordTok TokenKind = "keyword"
	SymbolTok  TokenKind = "symbol"
	IdentTok   TokenKind = "identifier"
	IntTok     TokenKind = "integer_const"
	StringTok  TokenKind = "string_const"
	EOFTok     TokenKind = "eof"
)

// Token is the smallest lexical unit produced while scanning a Jack source file.
type Token struct {
	Kind  TokenKind
	Value string
	Line  int
}

// The full set of Jack reserved words, anything else matching an identifier pattern is just that.
var keywords = map[string]bool{
	"class": true, "constructor": true, "function": true, "method": true,
	"field": true, "static": true, "var": true,
	"int": true, "char": true, "boolean": true, "void": true,
	"true": true, "false": true, "null": true, "this": true,
	"let": true, "do": true, "if": true, "else": true, "while": true, "return": true,
}

// Single character symbols recognized by the Jack grammar, multi-char operators do not exist.
const symbols = "{}()[].,;+-*/&|<>=~"

// tokenize scans the full 'source' buffer upfront into a flat token slice, stripping
// whitespace and both comment styles ('//' line comments, '/* */' block comments) along
// the way. Doing it eagerly (rather than lazily, one token at a time) keeps the recursive
// descent parser itself simple: it only ever has to peek/advance over a plain slice.
func tokenize(source []byte) ([]Token, error) {
	tokens := []Token{}
	line := 1

	for i := 0; i < len(source); {
		c := source[i]

		switch {
		case c == '\n':
			line++
			i++

		case unicode.IsSpace(rune(c)):
			i++

		case c == '/' && i+1 < len(source) && source[i+1] == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < len(source) && source[i+1] == '*':
			i += 2
			for i+1 < len(source) && !(source[i] == '*' && source[i+1] == '/') {
				if source[i] == '\n' {
					line++
				}
				i++
			}
			i += 2

		case c == '"':
			start := i + 1
			i++
			for i < len(source) && source[i] != '"' {
				if source[i] == '\n' {
					return nil, fmt.Errorf("%w: unterminated string literal at line %d", ErrMalformedLiteral, line)
				}
				i++
			}
			if i >= len(source) {
				return nil, fmt.Errorf("%w: unterminated string literal at line %d", ErrMalformedLiteral, line)
			}
			tokens = append(tokens, Token{Kind: StringTok, Value: string(source[start:i]), Line: line})
			i++ // consume closing quote

		case unicode.IsDigit(rune(c)):
			start := i
			for i < len(source) && unicode.IsDigit(rune(source[i])) {
				i++
			}
			tokens = append(tokens, Token{Kind: IntTok, Value: string(source[start:i]), Line: line})

		case unicode.IsLetter(rune(c)) || c == '_':
			start := i
			for i < len(source) && (unicode.IsLetter(rune(source[i])) || unicode.IsDigit(rune(source[i])) || source[i] == '_') {
				i++
			}
			word := string(source[start:i])
			if keywords[word] {
				tokens = append(tokens, Token{Kind: KeywordTok, Value: word, Line: line})
			} else {
				tokens = append(tokens, Token{Kind: IdentTok, Value: word, Line: line})
			}

		case strings.ContainsRune(symbols, rune(c)):
			tokens = append(tokens, Token{Kind: SymbolTok, Value: string(c), Line: line})
			i++

		default:
			return nil, fmt.Errorf("%w: unrecognized character '%c' at line %d", ErrUnexpectedToken, c, line)
		}
	}

	return tokens, nil
}

// ----------------------------------------------------------------------------
// Jack Parser

// This section defines the Parser for the nand2tetris Jack language.
//
// Unlike the Assembler/VM Translator (which lean on 'goparsec' to build a generic,
// traversable AST and then walk it) the Jack grammar is context-sensitive enough
// (resolving whether an identifier names a variable, a class, or a subroutine call
// depends on what's already been declared) that a hand-written recursive descent
// parser with a single token of lookahead reads more naturally here, and it lets us
// build the typed 'jack.Class' IR directly instead of through an intermediate tree.
//
// It still honors the same debug feature flags (as env vars) as the Assembler/VM Translator:
// - PARSEC_DEBUG: Verbose logging of every token consumed while parsing
// - PRINT_AST:    Print on the stdout a textual representation of the parsed 'jack.Class'
// - EXPORT_AST:   No-op here, there is no generic tree to export as Graphviz
type Parser struct {
	reader io.Reader
	flags  diag.Flags

	tokens []Token
	pos    int
}

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	flags, _ := diag.Load()
	return Parser{reader: r, flags: flags}
}

// Parser entrypoint, scans the reader's content into tokens and recursively descends
// into a 'jack.Class'.
func (p *Parser) Parse() (Class, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return Class{}, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	tokens, err := tokenize(content)
	if err != nil {
		return Class{}, fmt.Errorf("error tokenizing source: %w", err)
	}
	p.tokens, p.pos = tokens, 0

	class, err := p.parseClass()
	if err != nil {
		return Class{}, fmt.Errorf("error parsing class: %w", err)
	}

	if p.flags.PrintAST {
		fmt.Printf("%+v\n", class)
	}

	return class, nil
}

// ----------------------------------------------------------------------------
// Token stream helpers

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: EOFTok}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	if p.flags.ParsecDebug {
		fmt.Printf("jack: consumed %s %q (line %d)\n", tok.Kind, tok.Value, tok.Line)
	}
	return tok
}

func (p *Parser) expectKind(kind TokenKind) (Token, error) {
	tok := p.peek()
	if tok.Kind == EOFTok {
		return Token{}, fmt.Errorf("%w: expected %s", ErrUnexpectedEOF, kind)
	}
	if tok.Kind != kind {
		return Token{}, fmt.Errorf("%w: expected %s, got %s %q at line %d", ErrUnexpectedToken, kind, tok.Kind, tok.Value, tok.Line)
	}
	return p.advance(), nil
}

func (p *Parser) expectValue(kind TokenKind, value string) (Token, error) {
	tok := p.peek()
	if tok.Kind == EOFTok {
		return Token{}, fmt.Errorf("%w: expected %q", ErrUnexpectedEOF, value)
	}
	if tok.Kind != kind || tok.Value != value {
		return Token{}, fmt.Errorf("%w: expected %q, got %s %q at line %d", ErrUnexpectedToken, value, tok.Kind, tok.Value, tok.Line)
	}
	return p.advance(), nil
}

func (p *Parser) matchValue(value string) bool {
	tok := p.peek()
	if tok.Value == value && (tok.Kind == KeywordTok || tok.Kind == SymbolTok) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) peekValue(value string) bool {
	tok := p.peek()
	return tok.Value == value && (tok.Kind == KeywordTok || tok.Kind == SymbolTok)
}

// ----------------------------------------------------------------------------
// Grammar: class structure

func (p *Parser) parseClass() (Class, error) {
	if _, err := p.expectValue(KeywordTok, "class"); err != nil {
		return Class{}, err
	}

	name, err := p.expectKind(IdentTok)
	if err != nil {
		return Class{}, fmt.Errorf("error parsing class name: %w", err)
	}

	if _, err := p.expectValue(SymbolTok, "{"); err != nil {
		return Class{}, err
	}

	class := Class{Name: name.Value, Fields: utils.OrderedMap[string, Variable]{}, Subroutines: utils.OrderedMap[string, Subroutine]{}}

	for !p.peekValue("}") {
		switch {
		case p.peekValue("static") || p.peekValue("field"):
			fields, err := p.parseClassVarDec()
			if err != nil {
				return Class{}, fmt.Errorf("error parsing class field declaration: %w", err)
			}
			for _, field := range fields {
				class.Fields.Set(field.Name, field)
			}

		case p.peekValue("constructor") || p.peekValue("function") || p.peekValue("method"):
			subroutine, err := p.parseSubroutineDec(class.Name)
			if err != nil {
				return Class{}, fmt.Errorf("error parsing subroutine declaration: %w", err)
			}
			// Keyed by the bare name (w/o the class prefix): callers resolve via
			// 'expression.FuncName', which never carries the class qualifier.
			bareName := strings.TrimPrefix(subroutine.Name, class.Name+".")
			class.Subroutines.Set(bareName, subroutine)

		default:
			tok := p.peek()
			return Class{}, fmt.Errorf("%w: expected a field or subroutine declaration, got %s %q at line %d", ErrUnexpectedToken, tok.Kind, tok.Value, tok.Line)
		}
	}

	if _, err := p.expectValue(SymbolTok, "}"); err != nil {
		return Class{}, err
	}

	return class, nil
}

func (p *Parser) parseClassVarDec() ([]Variable, error) {
	varTypeTok := p.advance() // 'static' or 'field'
	varType := Static
	if varTypeTok.Value == "field" {
		varType = Field
	}

	dataType, err := p.parseType()
	if err != nil {
		return nil, fmt.Errorf("error parsing field data type: %w", err)
	}

	names, err := p.parseVarNameList()
	if err != nil {
		return nil, err
	}

	if _, err := p.expectValue(SymbolTok, ";"); err != nil {
		return nil, err
	}

	variables := make([]Variable, 0, len(names))
	for _, name := range names {
		variables = append(variables, Variable{Name: name, VarType: varType, DataType: dataType})
	}
	return variables, nil
}

// parseType parses a non-void type: a primitive keyword ('int', 'char', 'boolean') or a
// class name (any other identifier), used for field/parameter/local variable declarations.
func (p *Parser) parseType() (DataType, error) {
	tok := p.peek()
	switch {
	case tok.Kind == KeywordTok && tok.Value == "int":
		p.advance()
		return DataType{Main: Int}, nil
	case tok.Kind == KeywordTok && tok.Value == "char":
		p.advance()
		return DataType{Main: Char}, nil
	case tok.Kind == KeywordTok && tok.Value == "boolean":
		p.advance()
		return DataType{Main: Bool}, nil
	case tok.Kind == IdentTok:
		p.advance()
		return DataType{Main: Object, Subtype: tok.Value}, nil
	default:
		return DataType{}, fmt.Errorf("%w: expected a type, got %s %q at line %d", ErrUnexpectedToken, tok.Kind, tok.Value, tok.Line)
	}
}

// parseReturnType is like 'parseType' but also accepts the 'void' keyword.
func (p *Parser) parseReturnType() (DataType, error) {
	if p.peekValue("void") {
		p.advance()
		return DataType{Main: Void}, nil
	}
	return p.parseType()
}

func (p *Parser) parseVarNameList() ([]string, error) {
	first, err := p.expectKind(IdentTok)
	if err != nil {
		return nil, fmt.Errorf("error parsing variable name: %w", err)
	}

	names := []string{first.Value}
	for p.matchValue(",") {
		next, err := p.expectKind(IdentTok)
		if err != nil {
			return nil, fmt.Errorf("error parsing variable name: %w", err)
		}
		names = append(names, next.Value)
	}

	return names, nil
}

// ----------------------------------------------------------------------------
// Grammar: subroutine structure

func (p *Parser) parseSubroutineDec(className string) (Subroutine, error) {
	kindTok := p.advance() // 'constructor', 'function' or 'method'
	subType := map[string]SubroutineType{"constructor": Constructor, "function": Function, "method": Method}[kindTok.Value]

	returnType, err := p.parseReturnType()
	if err != nil {
		return Subroutine{}, fmt.Errorf("error parsing return type: %w", err)
	}

	name, err := p.expectKind(IdentTok)
	if err != nil {
		return Subroutine{}, fmt.Errorf("error parsing subroutine name: %w", err)
	}

	if _, err := p.expectValue(SymbolTok, "("); err != nil {
		return Subroutine{}, err
	}
	arguments, err := p.parseParameterList()
	if err != nil {
		return Subroutine{}, fmt.Errorf("error parsing parameter list: %w", err)
	}
	if _, err := p.expectValue(SymbolTok, ")"); err != nil {
		return Subroutine{}, err
	}

	statements, err := p.parseSubroutineBody()
	if err != nil {
		return Subroutine{}, fmt.Errorf("error parsing subroutine body: %w", err)
	}

	return Subroutine{
		Name: fmt.Sprintf("%s.%s", className, name.Value), Type: subType,
		Return: returnType, Arguments: arguments, Statements: statements,
	}, nil
}

func (p *Parser) parseParameterList() (utils.OrderedMap[string, Variable], error) {
	arguments := utils.OrderedMap[string, Variable]{}
	if p.peekValue(")") {
		return arguments, nil
	}

	for {
		dataType, err := p.parseType()
		if err != nil {
			return utils.OrderedMap[string, Variable]{}, fmt.Errorf("error parsing parameter type: %w", err)
		}
		name, err := p.expectKind(IdentTok)
		if err != nil {
			return utils.OrderedMap[string, Variable]{}, fmt.Errorf("error parsing parameter name: %w", err)
		}

		if _, exists := arguments.Get(name.Value); exists {
			return utils.OrderedMap[string, Variable]{}, fmt.Errorf("%w: '%s'", ErrDuplicateDecl, name.Value)
		}
		arguments.Set(name.Value, Variable{Name: name.Value, VarType: Parameter, DataType: dataType})

		if !p.matchValue(",") {
			break
		}
	}

	return arguments, nil
}

func (p *Parser) parseSubroutineBody() ([]Statement, error) {
	if _, err := p.expectValue(SymbolTok, "{"); err != nil {
		return nil, err
	}

	statements := []Statement{}

	for p.peekValue("var") {
		varStmt, err := p.parseVarDec()
		if err != nil {
			return nil, fmt.Errorf("error parsing local variable declaration: %w", err)
		}
		statements = append(statements, varStmt)
	}

	for !p.peekValue("}") {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	if _, err := p.expectValue(SymbolTok, "}"); err != nil {
		return nil, err
	}

	return statements, nil
}

func (p *Parser) parseVarDec() (VarStmt, error) {
	if _, err := p.expectValue(KeywordTok, "var"); err != nil {
		return VarStmt{}, err
	}

	dataType, err := p.parseType()
	if err != nil {
		return VarStmt{}, fmt.Errorf("error parsing local variable type: %w", err)
	}

	names, err := p.parseVarNameList()
	if err != nil {
		return VarStmt{}, err
	}

	if _, err := p.expectValue(SymbolTok, ";"); err != nil {
		return VarStmt{}, err
	}

	vars := make([]Variable, 0, len(names))
	for _, name := range names {
		vars = append(vars, Variable{Name: name, VarType: Local, DataType: dataType})
	}
	return VarStmt{Vars: vars}, nil
}

// ----------------------------------------------------------------------------
// Grammar: statements

func (p *Parser) parseStatement() (Statement, error) {
	switch {
	case p.peekValue("let"):
		return p.parseLetStatement()
	case p.peekValue("if"):
		return p.parseIfStatement()
	case p.peekValue("while"):
		return p.parseWhileStatement()
	case p.peekValue("do"):
		return p.parseDoStatement()
	case p.peekValue("return"):
		return p.parseReturnStatement()
	default:
		tok := p.peek()
		return nil, fmt.Errorf("%w: expected a statement, got %s %q at line %d", ErrUnexpectedToken, tok.Kind, tok.Value, tok.Line)
	}
}

func (p *Parser) parseLetStatement() (Statement, error) {
	p.advance() // 'let'

	name, err := p.expectKind(IdentTok)
	if err != nil {
		return nil, fmt.Errorf("error parsing assignment target: %w", err)
	}

	var lhs Expression = VarExpr{Var: name.Value}
	if p.matchValue("[") {
		index, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("error parsing array index expression: %w", err)
		}
		if _, err := p.expectValue(SymbolTok, "]"); err != nil {
			return nil, err
		}
		lhs = ArrayExpr{Var: name.Value, Index: index}
	}

	if _, err := p.expectValue(SymbolTok, "="); err != nil {
		return nil, err
	}

	rhs, err := p.parseExpression()
	if err != nil {
		return nil, fmt.Errorf("error parsing assignment value: %w", err)
	}

	if _, err := p.expectValue(SymbolTok, ";"); err != nil {
		return nil, err
	}

	return LetStmt{Lhs: lhs, Rhs: rhs}, nil
}

func (p *Parser) parseIfStatement() (Statement, error) {
	p.advance() // 'if'

	if _, err := p.expectValue(SymbolTok, "("); err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, fmt.Errorf("error parsing if condition: %w", err)
	}
	if _, err := p.expectValue(SymbolTok, ")"); err != nil {
		return nil, err
	}

	if _, err := p.expectValue(SymbolTok, "{"); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseStatementsUntilRBrace()
	if err != nil {
		return nil, fmt.Errorf("error parsing 'then' block: %w", err)
	}

	var elseBlock []Statement
	if p.matchValue("else") {
		if _, err := p.expectValue(SymbolTok, "{"); err != nil {
			return nil, err
		}
		elseBlock, err = p.parseStatementsUntilRBrace()
		if err != nil {
			return nil, fmt.Errorf("error parsing 'else' block: %w", err)
		}
	}

	return IfStmt{Condition: condition, ThenBlock: thenBlock, ElseBlock: elseBlock}, nil
}

func (p *Parser) parseWhileStatement() (Statement, error) {
	p.advance() // 'while'

	if _, err := p.expectValue(SymbolTok, "("); err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, fmt.Errorf("error parsing while condition: %w", err)
	}
	if _, err := p.expectValue(SymbolTok, ")"); err != nil {
		return nil, err
	}

	if _, err := p.expectValue(SymbolTok, "{"); err != nil {
		return nil, err
	}
	block, err := p.parseStatementsUntilRBrace()
	if err != nil {
		return nil, fmt.Errorf("error parsing while block: %w", err)
	}

	return WhileStmt{Condition: condition, Block: block}, nil
}

func (p *Parser) parseStatementsUntilRBrace() ([]Statement, error) {
	statements := []Statement{}
	for !p.peekValue("}") {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	if _, err := p.expectValue(SymbolTok, "}"); err != nil {
		return nil, err
	}
	return statements, nil
}

func (p *Parser) parseDoStatement() (Statement, error) {
	p.advance() // 'do'

	call, err := p.parseSubroutineCall()
	if err != nil {
		return nil, fmt.Errorf("error parsing function call: %w", err)
	}

	if _, err := p.expectValue(SymbolTok, ";"); err != nil {
		return nil, err
	}

	return DoStmt{FuncCall: call}, nil
}

func (p *Parser) parseReturnStatement() (Statement, error) {
	p.advance() // 'return'

	if p.matchValue(";") {
		return ReturnStmt{}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, fmt.Errorf("error parsing return expression: %w", err)
	}

	if _, err := p.expectValue(SymbolTok, ";"); err != nil {
		return nil, err
	}

	return ReturnStmt{Expr: expr}, nil
}

// ----------------------------------------------------------------------------
// Grammar: expressions

// The set of binary operator symbols, mapped to their 'jack.ExprType' counterpart.
var binaryOps = map[string]ExprType{
	"+": Plus, "-": Minus, "*": Multiply, "/": Divide,
	"&": BoolAnd, "|": BoolOr, "<": LessThan, ">": GreatThan, "=": Equal,
}

// parseExpression parses 'term (op term)*' folding left-to-right: Jack has no
// operator precedence of its own, parenthesization is the only way to group.
func (p *Parser) parseExpression() (Expression, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, fmt.Errorf("error parsing expression term: %w", err)
	}

	for {
		tok := p.peek()
		op, isOp := binaryOps[tok.Value]
		if tok.Kind != SymbolTok || !isOp {
			break
		}
		p.advance()

		rhs, err := p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("error parsing expression term: %w", err)
		}

		lhs = BinaryExpr{Type: op, Lhs: lhs, Rhs: rhs}
	}

	return lhs, nil
}

func (p *Parser) parseTerm() (Expression, error) {
	tok := p.peek()

	switch {
	case tok.Kind == IntTok:
		p.advance()
		return LiteralExpr{Type: DataType{Main: Int}, Value: tok.Value}, nil

	case tok.Kind == StringTok:
		p.advance()
		return LiteralExpr{Type: DataType{Main: String}, Value: tok.Value}, nil

	case tok.Kind == KeywordTok && (tok.Value == "true" || tok.Value == "false"):
		p.advance()
		return LiteralExpr{Type: DataType{Main: Bool}, Value: tok.Value}, nil

	case tok.Kind == KeywordTok && tok.Value == "null":
		p.advance()
		return LiteralExpr{Type: DataType{Main: Object}, Value: "null"}, nil

	case tok.Kind == KeywordTok && tok.Value == "this":
		p.advance()
		return VarExpr{Var: "this"}, nil

	case tok.Kind == SymbolTok && tok.Value == "(":
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectValue(SymbolTok, ")"); err != nil {
			return nil, err
		}
		return expr, nil

	case tok.Kind == SymbolTok && tok.Value == "-":
		p.advance()
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("error parsing negated term: %w", err)
		}
		return UnaryExpr{Type: Negation, Rhs: rhs}, nil

	case tok.Kind == SymbolTok && tok.Value == "~":
		p.advance()
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("error parsing boolean-negated term: %w", err)
		}
		return UnaryExpr{Type: BoolNot, Rhs: rhs}, nil

	case tok.Kind == IdentTok:
		return p.parseIdentTerm()

	default:
		return nil, fmt.Errorf("%w: expected a term, got %s %q at line %d", ErrUnexpectedToken, tok.Kind, tok.Value, tok.Line)
	}
}

// parseIdentTerm disambiguates the four shapes an identifier-led term can take:
// a bare variable, an array access, a local subroutine call or a qualified one.
func (p *Parser) parseIdentTerm() (Expression, error) {
	name := p.advance() // the leading identifier

	switch {
	case p.peekValue("["):
		p.advance()
		index, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("error parsing array index expression: %w", err)
		}
		if _, err := p.expectValue(SymbolTok, "]"); err != nil {
			return nil, err
		}
		return ArrayExpr{Var: name.Value, Index: index}, nil

	case p.peekValue("("):
		return p.finishSubroutineCall(false, "", name.Value)

	case p.peekValue("."):
		p.advance()
		method, err := p.expectKind(IdentTok)
		if err != nil {
			return nil, fmt.Errorf("error parsing qualified call name: %w", err)
		}
		return p.finishSubroutineCall(true, name.Value, method.Value)

	default:
		return VarExpr{Var: name.Value}, nil
	}
}

// parseSubroutineCall parses a 'do'-statement call target: same shapes as the tail
// of 'parseIdentTerm' but starting fresh from the leading identifier.
func (p *Parser) parseSubroutineCall() (FuncCallExpr, error) {
	name, err := p.expectKind(IdentTok)
	if err != nil {
		return FuncCallExpr{}, fmt.Errorf("error parsing call target: %w", err)
	}

	if p.peekValue(".") {
		p.advance()
		method, err := p.expectKind(IdentTok)
		if err != nil {
			return FuncCallExpr{}, fmt.Errorf("error parsing qualified call name: %w", err)
		}
		expr, err := p.finishSubroutineCall(true, name.Value, method.Value)
		if err != nil {
			return FuncCallExpr{}, err
		}
		return expr.(FuncCallExpr), nil
	}

	expr, err := p.finishSubroutineCall(false, "", name.Value)
	if err != nil {
		return FuncCallExpr{}, err
	}
	return expr.(FuncCallExpr), nil
}

func (p *Parser) finishSubroutineCall(isExtCall bool, varName, funcName string) (Expression, error) {
	if _, err := p.expectValue(SymbolTok, "("); err != nil {
		return nil, err
	}

	args, err := p.parseExpressionList()
	if err != nil {
		return nil, fmt.Errorf("error parsing argument list: %w", err)
	}

	if _, err := p.expectValue(SymbolTok, ")"); err != nil {
		return nil, err
	}

	return FuncCallExpr{IsExtCall: isExtCall, Var: varName, FuncName: funcName, Arguments: args}, nil
}

func (p *Parser) parseExpressionList() ([]Expression, error) {
	if p.peekValue(")") {
		return []Expression{}, nil
	}

	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	args := []Expression{first}

	for p.matchValue(",") {
		next, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, next)
	}

	return args, nil
}
