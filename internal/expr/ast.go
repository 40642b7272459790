package expr

// Node is a parsed expression.
type Node interface {
	node()
}

// Const is a literal value.
type Const struct{ Value Value }

// Name is a variable or builtin reference.
type Name struct{ ID string }

// Attr is x.name.
type Attr struct {
	X    Node
	Name string
}

// Keyword is one name=value call argument.
type Keyword struct {
	Name  string
	Value Node
}

// Call is fn(args, name=value).
type Call struct {
	Fn       Node
	Args     []Node
	Keywords []Keyword
}

// Index is x[key].
type Index struct {
	X   Node
	Key Node
}

// Unary is op x, where op is one of - + ~ not.
type Unary struct {
	Op string
	X  Node
}

// Binary is an arithmetic or bitwise operation.
type Binary struct {
	Op   string
	L, R Node
}

// Compare is a comparison chain: a < b <= c.
type Compare struct {
	L   Node
	Ops []string // "<", "in", "not in", "is not", ...
	Rs  []Node
}

// BoolOp is "and" or "or"; it yields one of its operands.
type BoolOp struct {
	Op   string
	L, R Node
}

// IfExp is a if cond else b.
type IfExp struct {
	Cond, Then, Else Node
}

// List is [a, b].
type List struct{ Elems []Node }

func (*Const) node()   {}
func (*Name) node()    {}
func (*Attr) node()    {}
func (*Call) node()    {}
func (*Index) node()   {}
func (*Unary) node()   {}
func (*Binary) node()  {}
func (*Compare) node() {}
func (*BoolOp) node()  {}
func (*IfExp) node()   {}
func (*List) node()    {}
