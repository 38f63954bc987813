package ir

import "fmt"

// ============================================================================
// 符号
// ============================================================================

// SymbolID 符号的稳定标识
//
// 由 SymbolTable 按创建顺序分配，从 1 开始；0 表示无效符号。
// 后端用它作为映射键，而不是依赖指针身份。
type SymbolID uint32

// SymbolKind 符号种类
type SymbolKind int

const (
	SymbolVariable  SymbolKind = iota // 局部变量
	SymbolParameter                   // 函数参数
	SymbolFunction                    // 函数
	SymbolLabel                       // 跳转标签
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	case SymbolLabel:
		return "label"
	default:
		return fmt.Sprintf("SymbolKind(%d)", int(k))
	}
}

// Symbol 已解析的符号
type Symbol struct {
	ID   SymbolID
	Kind SymbolKind
	Name string
	Type Type // 变量/参数的类型；函数的返回类型

	// 以下字段只对函数有意义
	Parameters []*Symbol
	External   bool // 在其它编译单元或标准库中定义
	Syscall    int  // > 0 时表示直接以该系统调用号实现的函数
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s#%d", s.Kind, s.Name, s.ID)
}

// ============================================================================
// 符号表（Arena）
// ============================================================================

// SymbolTable 符号的 arena，负责分配稳定的 SymbolID
//
// 一个编译单元（以及它导入的单元）共享同一张表时，ID 在整个程序里唯一。
type SymbolTable struct {
	symbols []*Symbol
}

// NewSymbolTable 创建符号表
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make([]*Symbol, 0, 64)}
}

func (t *SymbolTable) add(s *Symbol) *Symbol {
	t.symbols = append(t.symbols, s)
	s.ID = SymbolID(len(t.symbols))
	return s
}

// NewVariable 创建局部变量符号
func (t *SymbolTable) NewVariable(name string, typ Type) *Symbol {
	return t.add(&Symbol{Kind: SymbolVariable, Name: name, Type: typ})
}

// NewParameter 创建参数符号
func (t *SymbolTable) NewParameter(name string, typ Type) *Symbol {
	return t.add(&Symbol{Kind: SymbolParameter, Name: name, Type: typ})
}

// NewFunction 创建函数符号
func (t *SymbolTable) NewFunction(name string, returnType Type, params ...*Symbol) *Symbol {
	return t.add(&Symbol{Kind: SymbolFunction, Name: name, Type: returnType, Parameters: params})
}

// NewExternalFunction 创建外部函数符号（无函数体）
func (t *SymbolTable) NewExternalFunction(name string, returnType Type, params ...*Symbol) *Symbol {
	s := t.NewFunction(name, returnType, params...)
	s.External = true
	return s
}

// NewLabel 创建标签符号
func (t *SymbolTable) NewLabel(name string) *Symbol {
	return t.add(&Symbol{Kind: SymbolLabel, Name: name})
}

// Lookup 按 ID 查找符号
func (t *SymbolTable) Lookup(id SymbolID) (*Symbol, bool) {
	if id == 0 || int(id) > len(t.symbols) {
		return nil, false
	}
	return t.symbols[id-1], true
}

// Len 符号数量
func (t *SymbolTable) Len() int {
	return len(t.symbols)
}
