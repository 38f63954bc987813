package ir

import (
	"fmt"
	"io"

	"github.com/segmentio/encoding/json"
)

// ============================================================================
// JSON 交换格式
// ============================================================================
//
// 外部前端把绑定完成的树写成 JSON，命令行读入后交给后端。
// 名字在解码时解析为符号：函数全局可见（本单元覆盖导入），
// 变量按块作用域解析，标签在函数内按名字共享。
//
// ============================================================================

type fileJSON struct {
	Name      string         `json:"name"`
	Imports   []fileJSON     `json:"imports,omitempty"`
	Functions []functionJSON `json:"functions"`
}

type functionJSON struct {
	Name       string      `json:"name"`
	Return     string      `json:"return,omitempty"`
	Parameters []paramJSON `json:"parameters,omitempty"`
	External   bool        `json:"external,omitempty"`
	Syscall    int         `json:"syscall,omitempty"`
	Body       *[]nodeJSON `json:"body,omitempty"`
}

type paramJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type nodeJSON struct {
	Kind      string      `json:"kind"`
	Name      string      `json:"name,omitempty"`
	Type      string      `json:"type,omitempty"`
	Label     string      `json:"label,omitempty"`
	Op        string      `json:"op,omitempty"`
	Int       *int64      `json:"int,omitempty"`
	Bool      *bool       `json:"bool,omitempty"`
	Text      *string     `json:"text,omitempty"`
	When      *bool       `json:"when,omitempty"`
	Value     *nodeJSON   `json:"value,omitempty"`
	Condition *nodeJSON   `json:"condition,omitempty"`
	Operand   *nodeJSON   `json:"operand,omitempty"`
	Left      *nodeJSON   `json:"left,omitempty"`
	Right     *nodeJSON   `json:"right,omitempty"`
	Args      []nodeJSON  `json:"args,omitempty"`
	Body      []nodeJSON  `json:"body,omitempty"`
	Then      []nodeJSON  `json:"then,omitempty"`
	Else      *[]nodeJSON `json:"else,omitempty"`
}

// ============================================================================
// 解码
// ============================================================================

// Decode 从 JSON 读取程序树
func Decode(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ir: read: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal 从 JSON 字节解码程序树
func Unmarshal(data []byte) (*File, error) {
	var fj fileJSON
	if err := json.Unmarshal(data, &fj); err != nil {
		return nil, fmt.Errorf("ir: parse: %w", err)
	}
	d := &decoder{
		symbols:   NewSymbolTable(),
		functions: make(map[string]*Symbol),
	}
	return d.file(&fj)
}

type decoder struct {
	symbols   *SymbolTable
	functions map[string]*Symbol

	scopes []map[string]*Symbol
	labels map[string]*Symbol
}

func (d *decoder) file(fj *fileJSON) (*File, error) {
	f := &File{Name: fj.Name, Symbols: d.symbols}

	for i := range fj.Imports {
		imported, err := d.file(&fj.Imports[i])
		if err != nil {
			return nil, err
		}
		f.Imports = append(f.Imports, imported)
	}

	// 先声明全部函数，函数体可以引用后面定义的函数
	syms := make([]*Symbol, len(fj.Functions))
	for i := range fj.Functions {
		sym, err := d.declareFunction(&fj.Functions[i])
		if err != nil {
			return nil, err
		}
		syms[i] = sym
	}

	for i := range fj.Functions {
		fn, err := d.function(&fj.Functions[i], syms[i])
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", fj.Functions[i].Name, err)
		}
		f.Functions = append(f.Functions, fn)
	}
	return f, nil
}

func (d *decoder) declareFunction(fj *functionJSON) (*Symbol, error) {
	ret := TypeVoid
	if fj.Return != "" {
		t, ok := ParseType(fj.Return)
		if !ok {
			return nil, fmt.Errorf("ir: function %s: unknown return type %q", fj.Name, fj.Return)
		}
		ret = t
	}
	params := make([]*Symbol, len(fj.Parameters))
	for i, p := range fj.Parameters {
		t, ok := ParseType(p.Type)
		if !ok || t == TypeVoid {
			return nil, fmt.Errorf("ir: function %s: bad parameter type %q", fj.Name, p.Type)
		}
		params[i] = d.symbols.NewParameter(p.Name, t)
	}
	sym := d.symbols.NewFunction(fj.Name, ret, params...)
	sym.External = fj.External || fj.Body == nil
	sym.Syscall = fj.Syscall
	d.functions[fj.Name] = sym
	return sym, nil
}

func (d *decoder) function(fj *functionJSON, sym *Symbol) (*Function, error) {
	fn := &Function{Symbol: sym}
	if fj.Body == nil {
		return fn, nil
	}

	d.labels = make(map[string]*Symbol)
	d.scopes = nil
	d.push()
	for _, p := range sym.Parameters {
		d.scopes[0][p.Name] = p
	}
	body, err := d.statements(*fj.Body)
	d.pop()
	if err != nil {
		return nil, err
	}
	fn.Body = &Block{Statements: body}
	return fn, nil
}

func (d *decoder) push() { d.scopes = append(d.scopes, make(map[string]*Symbol)) }
func (d *decoder) pop()  { d.scopes = d.scopes[:len(d.scopes)-1] }

func (d *decoder) variable(name string) (*Symbol, error) {
	for i := len(d.scopes) - 1; i >= 0; i-- {
		if s, ok := d.scopes[i][name]; ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("ir: undefined variable %q", name)
}

func (d *decoder) label(name string) (*Symbol, error) {
	if name == "" {
		return nil, fmt.Errorf("ir: missing label name")
	}
	if l, ok := d.labels[name]; ok {
		return l, nil
	}
	l := d.symbols.NewLabel(name)
	d.labels[name] = l
	return l, nil
}

func (d *decoder) block(nodes []nodeJSON) (*Block, error) {
	d.push()
	defer d.pop()
	stmts, err := d.statements(nodes)
	if err != nil {
		return nil, err
	}
	return &Block{Statements: stmts}, nil
}

func (d *decoder) statements(nodes []nodeJSON) ([]Statement, error) {
	stmts := make([]Statement, 0, len(nodes))
	for i := range nodes {
		s, err := d.statement(&nodes[i])
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (d *decoder) statement(n *nodeJSON) (Statement, error) {
	switch n.Kind {
	case "var":
		t, ok := ParseType(n.Type)
		if !ok || t == TypeVoid {
			return nil, fmt.Errorf("ir: variable %s: bad type %q", n.Name, n.Type)
		}
		var init Expression
		if n.Value != nil {
			e, err := d.expression(n.Value)
			if err != nil {
				return nil, err
			}
			init = e
		}
		// 初始化表达式在变量可见之前解析
		v := d.symbols.NewVariable(n.Name, t)
		d.scopes[len(d.scopes)-1][n.Name] = v
		return &VariableDeclaration{Variable: v, Initializer: init}, nil

	case "assign":
		v, err := d.variable(n.Name)
		if err != nil {
			return nil, err
		}
		if n.Value == nil {
			return nil, fmt.Errorf("ir: assignment to %s without value", n.Name)
		}
		e, err := d.expression(n.Value)
		if err != nil {
			return nil, err
		}
		return &Assignment{Variable: v, Value: e}, nil

	case "return":
		if n.Value == nil {
			return &Return{}, nil
		}
		e, err := d.expression(n.Value)
		if err != nil {
			return nil, err
		}
		return &Return{Value: e}, nil

	case "label":
		l, err := d.label(n.Name)
		if err != nil {
			return nil, err
		}
		return &Label{Symbol: l}, nil

	case "goto":
		l, err := d.label(n.Label)
		if err != nil {
			return nil, err
		}
		return &Goto{Target: l}, nil

	case "goto_if":
		l, err := d.label(n.Label)
		if err != nil {
			return nil, err
		}
		if n.Condition == nil {
			return nil, fmt.Errorf("ir: conditional goto %s without condition", n.Label)
		}
		cond, err := d.expression(n.Condition)
		if err != nil {
			return nil, err
		}
		when := true
		if n.When != nil {
			when = *n.When
		}
		return &ConditionalGoto{Condition: cond, Target: l, JumpIfTrue: when}, nil

	case "expr":
		if n.Value == nil {
			return nil, fmt.Errorf("ir: expression statement without value")
		}
		e, err := d.expression(n.Value)
		if err != nil {
			return nil, err
		}
		return &ExpressionStatement{Expression: e}, nil

	case "block":
		return d.block(n.Body)

	case "if":
		if n.Condition == nil {
			return nil, fmt.Errorf("ir: if without condition")
		}
		cond, err := d.expression(n.Condition)
		if err != nil {
			return nil, err
		}
		then, err := d.block(n.Then)
		if err != nil {
			return nil, err
		}
		s := &If{Condition: cond, Then: then}
		if n.Else != nil {
			els, err := d.block(*n.Else)
			if err != nil {
				return nil, err
			}
			s.Else = els
		}
		return s, nil

	case "while":
		if n.Condition == nil {
			return nil, fmt.Errorf("ir: while without condition")
		}
		cond, err := d.expression(n.Condition)
		if err != nil {
			return nil, err
		}
		body, err := d.block(n.Body)
		if err != nil {
			return nil, err
		}
		return &While{Condition: cond, Body: body}, nil
	}
	return nil, fmt.Errorf("ir: unknown statement kind %q", n.Kind)
}

func (d *decoder) expression(n *nodeJSON) (Expression, error) {
	switch n.Kind {
	case "int":
		if n.Int == nil {
			return nil, fmt.Errorf("ir: int literal without value")
		}
		return Int(*n.Int), nil
	case "bool":
		if n.Bool == nil {
			return nil, fmt.Errorf("ir: bool literal without value")
		}
		return Bool(*n.Bool), nil
	case "string":
		if n.Text == nil {
			return nil, fmt.Errorf("ir: string literal without value")
		}
		return Str(*n.Text), nil
	case "var":
		v, err := d.variable(n.Name)
		if err != nil {
			return nil, err
		}
		return Ref(v), nil
	case "unary":
		op, ok := ParseUnaryOperator(n.Op)
		if !ok {
			return nil, fmt.Errorf("ir: unknown unary operator %q", n.Op)
		}
		if n.Operand == nil {
			return nil, fmt.Errorf("ir: unary %s without operand", n.Op)
		}
		operand, err := d.expression(n.Operand)
		if err != nil {
			return nil, err
		}
		return &Unary{Operator: op, Operand: operand}, nil
	case "binary":
		op, ok := ParseBinaryOperator(n.Op)
		if !ok {
			return nil, fmt.Errorf("ir: unknown binary operator %q", n.Op)
		}
		if n.Left == nil || n.Right == nil {
			return nil, fmt.Errorf("ir: binary %s needs two operands", n.Op)
		}
		left, err := d.expression(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.expression(n.Right)
		if err != nil {
			return nil, err
		}
		return Bin(op, left, right), nil
	case "call":
		fn, ok := d.functions[n.Name]
		if !ok {
			return nil, fmt.Errorf("ir: undefined function %q", n.Name)
		}
		args := make([]Expression, len(n.Args))
		for i := range n.Args {
			a, err := d.expression(&n.Args[i])
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return CallOf(fn, args...), nil
	}
	return nil, fmt.Errorf("ir: unknown expression kind %q", n.Kind)
}

// ============================================================================
// 编码
// ============================================================================

// Encode 把程序树写成 JSON
func Encode(w io.Writer, f *File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal 把程序树编码为缩进的 JSON
func Marshal(f *File) ([]byte, error) {
	fj, err := encodeFile(f)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(fj, "", "  ")
}

func encodeFile(f *File) (*fileJSON, error) {
	fj := &fileJSON{Name: f.Name, Functions: []functionJSON{}}
	for _, imp := range f.Imports {
		ij, err := encodeFile(imp)
		if err != nil {
			return nil, err
		}
		fj.Imports = append(fj.Imports, *ij)
	}
	for _, fn := range f.Functions {
		fnj := functionJSON{
			Name:     fn.Symbol.Name,
			External: fn.Symbol.External,
			Syscall:  fn.Symbol.Syscall,
		}
		if fn.Symbol.Type != TypeVoid {
			fnj.Return = fn.Symbol.Type.String()
		}
		for _, p := range fn.Symbol.Parameters {
			fnj.Parameters = append(fnj.Parameters, paramJSON{Name: p.Name, Type: p.Type.String()})
		}
		if fn.Body != nil {
			body, err := encodeStatements(fn.Body.Statements)
			if err != nil {
				return nil, fmt.Errorf("function %s: %w", fn.Symbol.Name, err)
			}
			fnj.Body = &body
		}
		fj.Functions = append(fj.Functions, fnj)
	}
	return fj, nil
}

func encodeStatements(stmts []Statement) ([]nodeJSON, error) {
	out := make([]nodeJSON, 0, len(stmts))
	for _, s := range stmts {
		n, err := encodeStatement(s)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, nil
}

func encodeStatement(s Statement) (*nodeJSON, error) {
	switch s := s.(type) {
	case *VariableDeclaration:
		n := &nodeJSON{Kind: "var", Name: s.Variable.Name, Type: s.Variable.Type.String()}
		if s.Initializer != nil {
			v, err := encodeExpression(s.Initializer)
			if err != nil {
				return nil, err
			}
			n.Value = v
		}
		return n, nil
	case *Assignment:
		v, err := encodeExpression(s.Value)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "assign", Name: s.Variable.Name, Value: v}, nil
	case *Return:
		n := &nodeJSON{Kind: "return"}
		if s.Value != nil {
			v, err := encodeExpression(s.Value)
			if err != nil {
				return nil, err
			}
			n.Value = v
		}
		return n, nil
	case *Label:
		return &nodeJSON{Kind: "label", Name: s.Symbol.Name}, nil
	case *Goto:
		return &nodeJSON{Kind: "goto", Label: s.Target.Name}, nil
	case *ConditionalGoto:
		c, err := encodeExpression(s.Condition)
		if err != nil {
			return nil, err
		}
		when := s.JumpIfTrue
		return &nodeJSON{Kind: "goto_if", Label: s.Target.Name, Condition: c, When: &when}, nil
	case *ExpressionStatement:
		v, err := encodeExpression(s.Expression)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "expr", Value: v}, nil
	case *Block:
		body, err := encodeStatements(s.Statements)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "block", Body: body}, nil
	case *If:
		c, err := encodeExpression(s.Condition)
		if err != nil {
			return nil, err
		}
		then, err := encodeStatements(s.Then.Statements)
		if err != nil {
			return nil, err
		}
		n := &nodeJSON{Kind: "if", Condition: c, Then: then}
		if s.Else != nil {
			els, err := encodeStatements(s.Else.Statements)
			if err != nil {
				return nil, err
			}
			n.Else = &els
		}
		return n, nil
	case *While:
		c, err := encodeExpression(s.Condition)
		if err != nil {
			return nil, err
		}
		body, err := encodeStatements(s.Body.Statements)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "while", Condition: c, Body: body}, nil
	}
	return nil, fmt.Errorf("ir: cannot encode statement %T", s)
}

func encodeExpression(e Expression) (*nodeJSON, error) {
	switch e := e.(type) {
	case *Literal:
		switch e.Kind {
		case TypeInt:
			v := e.Int
			return &nodeJSON{Kind: "int", Int: &v}, nil
		case TypeBool:
			v := e.Bool
			return &nodeJSON{Kind: "bool", Bool: &v}, nil
		case TypeString:
			v := e.Str
			return &nodeJSON{Kind: "string", Text: &v}, nil
		}
		return nil, fmt.Errorf("ir: cannot encode %s literal", e.Kind)
	case *VariableRef:
		return &nodeJSON{Kind: "var", Name: e.Symbol.Name}, nil
	case *Unary:
		o, err := encodeExpression(e.Operand)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "unary", Op: e.Operator.String(), Operand: o}, nil
	case *Binary:
		l, err := encodeExpression(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := encodeExpression(e.Right)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "binary", Op: e.Operator.String(), Left: l, Right: r}, nil
	case *Call:
		n := &nodeJSON{Kind: "call", Name: e.Function.Name}
		for _, a := range e.Arguments {
			aj, err := encodeExpression(a)
			if err != nil {
				return nil, err
			}
			n.Args = append(n.Args, *aj)
		}
		return n, nil
	}
	return nil, fmt.Errorf("ir: cannot encode expression %T", e)
}
