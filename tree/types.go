package tree

// Name is a resolved identifier. Fresh names minted by the passes are
// guaranteed not to collide with names in the input.
type Name string

// Type is the minimal type descriptor the passes need: enough to pick a
// zero value for a lifted variable and to recognise void-like values.
type Type struct {
	Name     string
	Nullable bool
}

var (
	TypeInvalid = Type{}
	TypeInt     = Type{Name: "Int"}
	TypeFloat   = Type{Name: "Float64"}
	TypeBool    = Type{Name: "Boolean"}
	TypeString  = Type{Name: "String"}
	TypeVoid    = Type{Name: "Void"}
	TypeAny     = Type{Name: "AnyValue"}
)

// IsVoid reports whether values of t carry no information.
func (t Type) IsVoid() bool {
	return t.Name == TypeVoid.Name && !t.Nullable
}

// Valid reports whether t names a type at all.
func (t Type) Valid() bool {
	return t.Name != ""
}

// OrNull returns t widened to admit null.
func (t Type) OrNull() Type {
	t.Nullable = true
	return t
}

func (t Type) String() string {
	if !t.Valid() {
		return ""
	}
	if t.Nullable {
		return t.Name + "?"
	}
	return t.Name
}

// ZeroValue returns the sentinel used to pre-initialise a variable of type
// t and whether the sentinel widens t to a nullable type.
func ZeroValue(t Type, at Span) (zero *Literal, widens bool) {
	if t.Nullable {
		return &Literal{At: at, Value: nil, Type: t}, false
	}
	switch t.Name {
	case TypeInt.Name:
		return &Literal{At: at, Value: 0, Type: t}, false
	case TypeFloat.Name:
		return &Literal{At: at, Value: 0.0, Type: t}, false
	case TypeBool.Name:
		return &Literal{At: at, Value: false, Type: t}, false
	case TypeString.Name:
		return &Literal{At: at, Value: "", Type: t}, false
	case TypeVoid.Name:
		return &Literal{At: at, Value: Void, Type: t}, false
	case "":
		// Unknown type: null, but nothing to assert against.
		return &Literal{At: at, Value: nil}, false
	}
	return &Literal{At: at, Value: nil, Type: t.OrNull()}, true
}
