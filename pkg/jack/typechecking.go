package jack

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// Jack Type Checker

// The TypeChecker walks a 'jack.Program' the same way the Lowerer does (class, then
// subroutine, then statement by statement) but never produces any output: it only
// validates that every expression is internally consistent (LHS/RHS of an assignment
// agree, conditions are boolean, return values match the declared return type, ...).
//
// Running it is optional (see the compiler's '--typecheck' flag) but catching these
// errors here means the Lowerer never has to defend against malformed input itself.
type TypeChecker struct {
	program Program
	scopes  ScopeTable // Keeps track of the scopes and declared variables inside each one

	className  string   // Name of the class currently being checked, used to resolve 'this'
	returnType DataType // Declared return type of the subroutine currently being checked
}

func NewTypeChecker(program Program) TypeChecker {
	return TypeChecker{program: program}
}

func (tc *TypeChecker) Check() (bool, error) {
	if tc.program == nil {
		return false, fmt.Errorf("the given 'program' is empty or nil")
	}

	for name, class := range tc.program {
		_, err := tc.HandleClass(class)
		if err != nil {
			return false, fmt.Errorf("error handling lowering of class '%s': %w", name, err)
		}

	}

	return true, nil
}

// Specialized function to type-check a 'jack.Class' and nested fields.
func (tc *TypeChecker) HandleClass(class Class) (bool, error) {
	tc.scopes.PushClassScope(class.Name) // Keep track of the current scope being processed
	tc.className = class.Name
	defer tc.scopes.PopClassScope() // Reset the function name after processing

	for _, field := range class.Fields.Entries() {
		_, err := tc.HandleVarStmt(VarStmt{Vars: []Variable{field}})
		if err != nil {
			return false, fmt.Errorf("error handling field '%s' in class '%s': %w", field.Name, class.Name, err)
		}
	}

	for _, subroutine := range class.Subroutines.Entries() {
		_, err := tc.HandleSubroutine(subroutine)
		if err != nil {
			return false, fmt.Errorf("error handling subroutine '%s' in class '%s': %w", subroutine.Name, class.Name, err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Subroutine' and nested fields.
func (tc *TypeChecker) HandleSubroutine(subroutine Subroutine) (bool, error) {
	tc.scopes.PushSubRoutineScope(subroutine.Name) // Keep track of the current subroutine function being processed
	tc.returnType = subroutine.Return
	defer tc.scopes.PopSubroutineScope() // Reset the function name after processing

	if subroutine.Type == Method {
		if err := tc.scopes.RegisterVariable(Variable{Name: "__obj", VarType: Parameter, DataType: DataType{Main: Object, Subtype: tc.className}}); err != nil {
			return false, fmt.Errorf("error registering implicit 'this' parameter: %w", err)
		}
	}

	// We add to the current scope also all of the arguments of the subroutine. Two parameters
	// sharing a name is a duplicate declaration in the same scope, not a shadowing case.
	for _, arg := range subroutine.Arguments.Entries() {
		if err := tc.scopes.RegisterVariable(arg); err != nil {
			return false, fmt.Errorf("error registering parameter '%s': %w", arg.Name, err)
		}
	}

	for _, stmt := range subroutine.Statements {
		_, err := tc.HandleStatement(stmt)
		if err != nil {
			return false, fmt.Errorf("error handling nested statement %T: %w", stmt, err)
		}
	}

	return true, nil
}

// Generalized function to type-check multiple statements types.
func (tc *TypeChecker) HandleStatement(stmt Statement) (bool, error) {
	switch tStmt := stmt.(type) {
	case DoStmt:
		return tc.HandleDoStmt(tStmt)
	case VarStmt:
		return tc.HandleVarStmt(tStmt)
	case LetStmt:
		return tc.HandleLetStmt(tStmt)
	case IfStmt:
		return tc.HandleIfStmt(tStmt)
	case WhileStmt:
		return tc.HandleWhileStmt(tStmt)
	case ReturnStmt:
		return tc.HandleReturnStmt(tStmt)
	default:
		return false, fmt.Errorf("unrecognized statement: %T", stmt)
	}
}

// Specialized function to type-check a 'jack.DoStmt'.
func (tc *TypeChecker) HandleDoStmt(statement DoStmt) (bool, error) {
	if _, err := tc.InferExpression(statement.FuncCall); err != nil {
		return false, fmt.Errorf("error checking nested function call expression: %w", err)
	}
	return true, nil
}

// Specialized function to type-check a 'jack.VarStmt'.
func (tc *TypeChecker) HandleVarStmt(statement VarStmt) (bool, error) {
	for _, variable := range statement.Vars {
		// A local shadowing a field/parameter of the same name is legal (it's a different
		// scope); two locals of the same name within the same subroutine are not.
		if err := tc.scopes.RegisterVariable(variable); err != nil {
			return false, fmt.Errorf("error registering variable '%s': %w", variable.Name, err)
		}
	}
	return true, nil
}

// Specialized function to type-check a 'jack.LetStmt'.
func (tc *TypeChecker) HandleLetStmt(statement LetStmt) (bool, error) {
	lhsType, err := tc.InferExpression(statement.Lhs)
	if err != nil {
		return false, fmt.Errorf("error checking LHS expression: %w", err)
	}

	rhsType, err := tc.InferExpression(statement.Rhs)
	if err != nil {
		return false, fmt.Errorf("error checking RHS expression: %w", err)
	}

	if !tc.compatible(lhsType, rhsType) {
		return false, fmt.Errorf("cannot assign value of type '%+v' to variable of type '%+v'", rhsType, lhsType)
	}

	return true, nil
}

// Specialized function to type-check a 'jack.WhileStmt'.
func (tc *TypeChecker) HandleWhileStmt(statement WhileStmt) (bool, error) {
	condType, err := tc.InferExpression(statement.Condition)
	if err != nil {
		return false, fmt.Errorf("error checking while condition expression: %w", err)
	}
	if condType.Main != Bool {
		return false, fmt.Errorf("while condition must be 'bool', got '%s'", condType.Main)
	}

	for _, stmt := range statement.Block {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, fmt.Errorf("error checking statement in while block: %w", err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.IfStmt'.
func (tc *TypeChecker) HandleIfStmt(statement IfStmt) (bool, error) {
	condType, err := tc.InferExpression(statement.Condition)
	if err != nil {
		return false, fmt.Errorf("error checking if condition expression: %w", err)
	}
	if condType.Main != Bool {
		return false, fmt.Errorf("if condition must be 'bool', got '%s'", condType.Main)
	}

	for _, stmt := range statement.ThenBlock {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, fmt.Errorf("error checking statement in 'then' block: %w", err)
		}
	}
	for _, stmt := range statement.ElseBlock {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, fmt.Errorf("error checking statement in 'else' block: %w", err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.ReturnStmt'.
func (tc *TypeChecker) HandleReturnStmt(statement ReturnStmt) (bool, error) {
	if statement.Expr == nil {
		if tc.returnType.Main != Void {
			return false, fmt.Errorf("missing return value for subroutine declared to return '%s'", tc.returnType.Main)
		}
		return true, nil
	}

	exprType, err := tc.InferExpression(statement.Expr)
	if err != nil {
		return false, fmt.Errorf("error checking return expression: %w", err)
	}

	if !tc.compatible(tc.returnType, exprType) {
		return false, fmt.Errorf("cannot return value of type '%+v' from subroutine declared to return '%+v'", exprType, tc.returnType)
	}

	return true, nil
}

// Generalized function to type-check and infer the 'jack.DataType' of an expression.
func (tc *TypeChecker) InferExpression(expr Expression) (DataType, error) {
	switch tExpr := expr.(type) {
	case VarExpr:
		return tc.InferVarExpr(tExpr)
	case LiteralExpr:
		return tExpr.Type, nil
	case ArrayExpr:
		return tc.InferArrayExpr(tExpr)
	case UnaryExpr:
		return tc.InferUnaryExpr(tExpr)
	case BinaryExpr:
		return tc.InferBinaryExpr(tExpr)
	case FuncCallExpr:
		return tc.InferFuncCallExpr(tExpr)
	default:
		return DataType{}, fmt.Errorf("unrecognized expression: %T", expr)
	}
}

// Specialized function to infer the 'jack.DataType' of a 'jack.VarExpr'.
func (tc *TypeChecker) InferVarExpr(expression VarExpr) (DataType, error) {
	if expression.Var == "this" {
		return DataType{Main: Object, Subtype: tc.className}, nil
	}

	_, variable, err := tc.scopes.ResolveVariable(expression.Var)
	if err != nil {
		return DataType{}, fmt.Errorf("error resolving variable '%s': %w", expression.Var, err)
	}

	return variable.DataType, nil
}

// Specialized function to infer the 'jack.DataType' of a 'jack.ArrayExpr'.
func (tc *TypeChecker) InferArrayExpr(expression ArrayExpr) (DataType, error) {
	_, variable, err := tc.scopes.ResolveVariable(expression.Var)
	if err != nil {
		return DataType{}, fmt.Errorf("error resolving array variable '%s': %w", expression.Var, err)
	}

	indexType, err := tc.InferExpression(expression.Index)
	if err != nil {
		return DataType{}, fmt.Errorf("error checking array index expression: %w", err)
	}
	if indexType.Main != Int {
		return DataType{}, fmt.Errorf("array index must be 'int', got '%s'", indexType.Main)
	}

	// Every array in Jack is an 'Array' class instance, the declared element type is not tracked
	// by the language itself, so each lookup is assumed to produce a generic/untyped word.
	return DataType{Main: Int}, nil
}

// Specialized function to infer the 'jack.DataType' of a 'jack.UnaryExpr'.
func (tc *TypeChecker) InferUnaryExpr(expression UnaryExpr) (DataType, error) {
	rhsType, err := tc.InferExpression(expression.Rhs)
	if err != nil {
		return DataType{}, fmt.Errorf("error checking nested expression: %w", err)
	}

	switch expression.Type {
	case Negation:
		if rhsType.Main != Int {
			return DataType{}, fmt.Errorf("unary negation requires an 'int' operand, got '%s'", rhsType.Main)
		}
		return DataType{Main: Int}, nil
	case BoolNot:
		if rhsType.Main != Bool {
			return DataType{}, fmt.Errorf("unary boolean negation requires a 'bool' operand, got '%s'", rhsType.Main)
		}
		return DataType{Main: Bool}, nil
	default:
		return DataType{}, fmt.Errorf("unrecognized unary expression type: %s", expression.Type)
	}
}

// Specialized function to infer the 'jack.DataType' of a 'jack.BinaryExpr'.
func (tc *TypeChecker) InferBinaryExpr(expression BinaryExpr) (DataType, error) {
	lhsType, err := tc.InferExpression(expression.Lhs)
	if err != nil {
		return DataType{}, fmt.Errorf("error checking nested LHS expression: %w", err)
	}
	rhsType, err := tc.InferExpression(expression.Rhs)
	if err != nil {
		return DataType{}, fmt.Errorf("error checking nested RHS expression: %w", err)
	}

	switch expression.Type {
	case Plus, Minus, Divide, Multiply:
		if lhsType.Main != Int || rhsType.Main != Int {
			return DataType{}, fmt.Errorf("arithmetic operator '%s' requires 'int' operands, got '%s' and '%s'", expression.Type, lhsType.Main, rhsType.Main)
		}
		return DataType{Main: Int}, nil

	case BoolOr, BoolAnd:
		if lhsType.Main != Bool || rhsType.Main != Bool {
			return DataType{}, fmt.Errorf("boolean operator '%s' requires 'bool' operands, got '%s' and '%s'", expression.Type, lhsType.Main, rhsType.Main)
		}
		return DataType{Main: Bool}, nil

	case Equal, LessThan, GreatThan:
		if !tc.compatible(lhsType, rhsType) {
			return DataType{}, fmt.Errorf("comparison operator '%s' requires operands of the same type, got '%+v' and '%+v'", expression.Type, lhsType, rhsType)
		}
		return DataType{Main: Bool}, nil

	default:
		return DataType{}, fmt.Errorf("unrecognized binary expression type: %s", expression.Type)
	}
}

// Specialized function to infer the 'jack.DataType' of a 'jack.FuncCallExpr'.
func (tc *TypeChecker) InferFuncCallExpr(expression FuncCallExpr) (DataType, error) {
	for _, arg := range expression.Arguments {
		if _, err := tc.InferExpression(arg); err != nil {
			return DataType{}, fmt.Errorf("error checking argument expression: %w", err)
		}
	}

	routine, className, err := tc.resolveSubroutine(expression)
	if err != nil {
		return DataType{}, err
	}

	if routine.Arguments.Size() != len(expression.Arguments) {
		return DataType{}, fmt.Errorf("subroutine '%s' expects %d argument(s), got %d", expression.FuncName, routine.Arguments.Size(), len(expression.Arguments))
	}

	if routine.Type == Constructor {
		return DataType{Main: Object, Subtype: className}, nil
	}

	return routine.Return, nil
}

// Resolves the 'jack.Subroutine' definition (and its declaring class name) targeted by a
// 'jack.FuncCallExpr', following the same 3 call-resolution paths as the Lowerer (instance-to
// instance, call on a resolved local variable, call on a bare class name) so type checking
// agrees with the lowering pass.
func (tc *TypeChecker) resolveSubroutine(expression FuncCallExpr) (Subroutine, string, error) {
	if !expression.IsExtCall {
		class, exists := tc.program[tc.className]
		if !exists {
			return Subroutine{}, "", fmt.Errorf("class definition not found for '%s'", tc.className)
		}
		routine, exists := class.Subroutines.Get(expression.FuncName)
		if !exists {
			return Subroutine{}, "", fmt.Errorf("subroutine '%s' not found in class '%s'", expression.FuncName, tc.className)
		}
		return routine, class.Name, nil
	}

	if _, variable, err := tc.scopes.ResolveVariable(expression.Var); err == nil {
		if variable.DataType.Main != Object {
			return Subroutine{}, "", fmt.Errorf("variable '%s' is not an object", expression.Var)
		}

		class, exists := tc.program[variable.DataType.Subtype]
		if !exists {
			return Subroutine{}, "", fmt.Errorf("class definition not found for '%s'", variable.DataType.Subtype)
		}
		routine, exists := class.Subroutines.Get(expression.FuncName)
		if !exists {
			return Subroutine{}, "", fmt.Errorf("subroutine '%s' not found in class '%s'", expression.FuncName, class.Name)
		}
		return routine, class.Name, nil
	}

	class, exists := tc.program[expression.Var]
	if !exists {
		return Subroutine{}, "", fmt.Errorf("unrecognized function call target: %s", expression.Var)
	}
	routine, exists := class.Subroutines.Get(expression.FuncName)
	if !exists {
		return Subroutine{}, "", fmt.Errorf("subroutine '%s' not found in class '%s'", expression.FuncName, class.Name)
	}
	return routine, class.Name, nil
}

// compatible returns whether a value of type 'from' can be used where a value of type 'to' is
// expected. Every kind must match exactly except for 'Object', where 'null' is compatible with
// any class and two non-null objects must additionally agree on their concrete class name.
func (tc *TypeChecker) compatible(to, from DataType) bool {
	if to.Main != from.Main {
		return false
	}
	if to.Main != Object {
		return true
	}
	if to.Subtype == "" || from.Subtype == "" {
		return true // 'null' literal, compatible with any class
	}
	return strings.EqualFold(to.Subtype, from.Subtype)
}
