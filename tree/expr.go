package tree

// Expr is an expression in the leaf language.
type Expr interface {
	Span() Span
	expr()
}

// Builtin callees the passes recognise by name.
const (
	BuiltinYield             = "yield"
	BuiltinAwait             = "await"
	BuiltinHandlerScope      = "hs"
	BuiltinAwakeUpon         = "awakeUpon"
	BuiltinPromiseResultSync = "getPromiseResultSync"
	BuiltinValueResult       = "ValueResult"
	BuiltinDoneResult        = "doneResult"
	BuiltinAdaptGenerator    = "adaptGeneratorFunction"
)

// VoidValue is the single value of the void type.
type VoidValue struct{}

// Void is the value carried by a void literal.
var Void = VoidValue{}

// Ref reads a name.
type Ref struct {
	At   Span
	Name Name
	Type Type
}

// Literal is a constant. Value is nil, Void, bool, int, float64 or string.
type Literal struct {
	At    Span
	Value any
	Type  Type
}

// Call invokes a callee by name. Callees are opaque except for the
// builtins and whatever a CallMatcher recognises.
type Call struct {
	At     Span
	Callee string
	Args   []Expr
	Type   Type
}

// FuncLit is a function literal. Its body reads names of the enclosing
// scope by reference.
type FuncLit struct {
	At     Span
	Params []Name
	Body   Node
}

// Binary applies an infix operator.
type Binary struct {
	At Span
	Op string
	X  Expr
	Y  Expr
}

// Not negates a boolean expression.
type Not struct {
	At Span
	X  Expr
}

// NotNull asserts its operand is not null.
type NotNull struct {
	At Span
	X  Expr
}

// BadExpr is Garbage in expression position.
type BadExpr struct {
	At         Span
	Diagnostic string
}

func (e *Ref) Span() Span     { return e.At }
func (e *Literal) Span() Span { return e.At }
func (e *Call) Span() Span    { return e.At }
func (e *FuncLit) Span() Span { return e.At }
func (e *Binary) Span() Span  { return e.At }
func (e *Not) Span() Span     { return e.At }
func (e *NotNull) Span() Span { return e.At }
func (e *BadExpr) Span() Span { return e.At }

func (*Ref) expr()     {}
func (*Literal) expr() {}
func (*Call) expr()    {}
func (*FuncLit) expr() {}
func (*Binary) expr()  {}
func (*Not) expr()     {}
func (*NotNull) expr() {}
func (*BadExpr) expr() {}

// IntLit returns an Int literal.
func IntLit(v int) *Literal { return &Literal{Value: v, Type: TypeInt} }

// BoolLit returns a Boolean literal.
func BoolLit(v bool) *Literal { return &Literal{Value: v, Type: TypeBool} }

// StringLit returns a String literal.
func StringLit(v string) *Literal { return &Literal{Value: v, Type: TypeString} }

// NullLit returns the null literal.
func NullLit() *Literal { return &Literal{Value: nil} }

// VoidLit returns the void literal.
func VoidLit() *Literal { return &Literal{Value: Void, Type: TypeVoid} }

// RefTo returns a read of name.
func RefTo(name Name) *Ref { return &Ref{Name: name} }

// CallOf returns a call of callee with args.
func CallOf(callee string, args ...Expr) *Call {
	return &Call{Callee: callee, Args: args}
}

// AsCall returns e as a call to callee.
func AsCall(e Expr, callee string) (*Call, bool) {
	c, ok := e.(*Call)
	if !ok || c.Callee != callee {
		return nil, false
	}
	return c, true
}

// ExprType returns the static type of e when known.
func ExprType(e Expr) Type {
	switch e := e.(type) {
	case *Ref:
		return e.Type
	case *Literal:
		if !e.Type.Valid() {
			if _, ok := e.Value.(VoidValue); ok {
				return TypeVoid
			}
		}
		return e.Type
	case *Call:
		return e.Type
	case *Binary:
		switch e.Op {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return TypeBool
		}
		return ExprType(e.X)
	case *Not:
		return TypeBool
	case *NotNull:
		t := ExprType(e.X)
		t.Nullable = false
		return t
	}
	return TypeInvalid
}

// IsAlwaysTrue reports whether e is the literal true.
func IsAlwaysTrue(e Expr) bool {
	l, ok := e.(*Literal)
	if !ok {
		return false
	}
	b, ok := l.Value.(bool)
	return ok && b
}

// IsSimple reports whether e can be read repeatedly without effects or cost.
func IsSimple(e Expr) bool {
	switch e.(type) {
	case *Ref, *Literal:
		return true
	}
	return false
}
