// Package idl builds the type resolver the codec runs against: a trimmed
// ECMAScript AST grammar rooted at Script. Spec §6 treats "the IDL parser"
// as an external collaborator exposing interfaces[name] and resolved
// attribute types; this package is a hand-built instance of that contract
// rather than a parser of the real multi-thousand-production ES6 IDL,
// since parsing WebIDL text is explicitly out of the core's scope (spec §1
// "it is agnostic to how the tree arrives").
//
// The grammar shape — Script holding directives and statements, a
// Statement alternation recursing back into Expression, a lazily-codeable
// function body — follows the worked examples in original_source/format.py
// (Script root, lazified function bodies) closely enough to exercise every
// construct it declares: recursive interfaces, alternations (including
// one with a None member), frozen arrays, and boolean, double, string and
// identifier primitives. It declares no Enumeration type and no
// unsigned-integer attribute.
package idl

import "github.com/binast/context01/schema"

// Resolver exposes the type universe a tree is checked and coded against.
type Resolver struct {
	interfaces map[string]*schema.Type
	root       *schema.Type
}

// Interfaces returns every named Interface type in the universe, keyed by
// name.
func (r *Resolver) Interfaces() map[string]*schema.Type {
	return r.interfaces
}

// Root returns the designated root type, Script.
func (r *Resolver) Root() *schema.Type {
	return r.root
}

// Lookup returns the named interface type, or nil if none exists.
func (r *Resolver) Lookup(name string) *schema.Type {
	return r.interfaces[name]
}

// Well-known types, exported so tests and the AST loader can construct
// trees against them directly rather than going through Lookup+type
// assertions.
var (
	IdentifierExpression *schema.Type
	NumericLiteral       *schema.Type
	StringLiteral        *schema.Type
	BooleanLiteral       *schema.Type
	CallExpression       *schema.Type
	AssignmentExpression *schema.Type
	Expression           *schema.Type // Alternation
	ExpressionOrNone     *schema.Type // Alternation, includes schema.None

	VariableDeclarator           *schema.Type
	ExpressionStatement          *schema.Type
	BlockStatement               *schema.Type
	ReturnStatement              *schema.Type
	EmptyStatement               *schema.Type
	VariableDeclarationStatement *schema.Type
	FunctionDeclaration          *schema.Type
	FunctionBody                 *schema.Type
	Statement                    *schema.Type // Alternation

	StatementList *schema.Type // FrozenArray<Statement>
	StringList    *schema.Type // FrozenArray<string>
	IdentList     *schema.Type // FrozenArray<IdentifierName>
	ExprList      *schema.Type // FrozenArray<Expression>
	DeclList      *schema.Type // FrozenArray<VariableDeclarator>

	Script *schema.Type
)

// BuildES6Subset constructs a fresh copy of the type universe and returns
// its Resolver. Each call allocates new *schema.Type pointers and also
// repoints the package-level well-known type variables (Script, Statement,
// ...) at this newest copy; package-level callers that just need the
// well-known shared instance should use Default().
func BuildES6Subset() *Resolver {
	identExpr := schema.Interface("IdentifierExpression", schema.Attribute{Name: "name", ResolvedTy: schema.Identifier})
	numLit := schema.Interface("NumericLiteral", schema.Attribute{Name: "value", ResolvedTy: schema.Double})
	strLit := schema.Interface("StringLiteral", schema.Attribute{Name: "value", ResolvedTy: schema.String})
	boolLit := schema.Interface("BooleanLiteral", schema.Attribute{Name: "value", ResolvedTy: schema.Boolean})

	callExpr := schema.Interface("CallExpression")
	assignExpr := schema.Interface("AssignmentExpression")

	expr := schema.Alternation("Expression", identExpr, numLit, strLit, boolLit, callExpr, assignExpr)
	exprOrNone := schema.Alternation("Expression_opt", identExpr, numLit, strLit, boolLit, callExpr, assignExpr, schema.None)

	exprList := schema.FrozenArray("FrozenArray_Expression", expr)
	callExpr.SetAttrs(
		schema.Attribute{Name: "callee", ResolvedTy: expr},
		schema.Attribute{Name: "arguments", ResolvedTy: exprList},
	)
	assignExpr.SetAttrs(
		schema.Attribute{Name: "binding", ResolvedTy: schema.Identifier},
		schema.Attribute{Name: "expression", ResolvedTy: expr},
	)

	varDeclarator := schema.Interface("VariableDeclarator",
		schema.Attribute{Name: "name", ResolvedTy: schema.Identifier},
		schema.Attribute{Name: "init", ResolvedTy: exprOrNone},
	)
	declList := schema.FrozenArray("FrozenArray_VariableDeclarator", varDeclarator)

	exprStmt := schema.Interface("ExpressionStatement")
	blockStmt := schema.Interface("BlockStatement")
	returnStmt := schema.Interface("ReturnStatement")
	emptyStmt := schema.Interface("EmptyStatement")
	varDeclStmt := schema.Interface("VariableDeclarationStatement")
	funcDecl := schema.Interface("FunctionDeclaration")

	stmt := schema.Alternation("Statement", exprStmt, blockStmt, returnStmt, emptyStmt, varDeclStmt, funcDecl)
	stmtList := schema.FrozenArray("FrozenArray_Statement", stmt)

	exprStmt.SetAttrs(schema.Attribute{Name: "expression", ResolvedTy: expr})
	blockStmt.SetAttrs(schema.Attribute{Name: "statements", ResolvedTy: stmtList})
	returnStmt.SetAttrs(schema.Attribute{Name: "argument", ResolvedTy: exprOrNone})
	varDeclStmt.SetAttrs(schema.Attribute{Name: "declarations", ResolvedTy: declList})

	stringList := schema.FrozenArray("FrozenArray_string", schema.String)
	identList := schema.FrozenArray("FrozenArray_IdentifierName", schema.Identifier)

	funcBody := schema.Interface("FunctionBody",
		schema.Attribute{Name: "directives", ResolvedTy: stringList},
		schema.Attribute{Name: "statements", ResolvedTy: stmtList},
	)
	funcDecl.SetAttrs(
		schema.Attribute{Name: "name", ResolvedTy: schema.Identifier},
		schema.Attribute{Name: "params", ResolvedTy: identList},
		schema.Attribute{Name: "body", ResolvedTy: funcBody, Lazy: true},
	)

	script := schema.Interface("Script",
		schema.Attribute{Name: "directives", ResolvedTy: stringList},
		schema.Attribute{Name: "statements", ResolvedTy: stmtList},
	)

	r := &Resolver{root: script, interfaces: map[string]*schema.Type{}}
	for _, t := range []*schema.Type{
		identExpr, numLit, strLit, boolLit, callExpr, assignExpr,
		varDeclarator, exprStmt, blockStmt, returnStmt, emptyStmt, varDeclStmt, funcDecl, funcBody, script,
	} {
		r.interfaces[t.Name] = t
	}

	IdentifierExpression, NumericLiteral, StringLiteral, BooleanLiteral = identExpr, numLit, strLit, boolLit
	CallExpression, AssignmentExpression = callExpr, assignExpr
	Expression, ExpressionOrNone = expr, exprOrNone
	VariableDeclarator = varDeclarator
	ExpressionStatement, BlockStatement, ReturnStatement, EmptyStatement = exprStmt, blockStmt, returnStmt, emptyStmt
	VariableDeclarationStatement, FunctionDeclaration, FunctionBody, Statement = varDeclStmt, funcDecl, funcBody, stmt
	StatementList, StringList, IdentList, ExprList, DeclList = stmtList, stringList, identList, exprList, declList
	Script = script

	return r
}

var defaultResolver = BuildES6Subset()

// Default returns the package-level shared resolver built at init time.
// Most callers (tests, the CLI) should use this rather than building a
// fresh copy, so that model sections built against one resolver invocation
// stay valid for trees built against another.
func Default() *Resolver {
	return defaultResolver
}
