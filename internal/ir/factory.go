package ir

// ============================================================================
// 节点工厂函数
// ============================================================================
//
// 前端（以及测试）通过这些函数构造树，避免手动初始化字段出错。
//
// ============================================================================

// Int 创建整数字面量
func Int(v int64) *Literal { return &Literal{Kind: TypeInt, Int: v} }

// Bool 创建布尔字面量
func Bool(v bool) *Literal { return &Literal{Kind: TypeBool, Bool: v} }

// Str 创建字符串字面量
func Str(v string) *Literal { return &Literal{Kind: TypeString, Str: v} }

// Ref 创建变量引用
func Ref(sym *Symbol) *VariableRef { return &VariableRef{Symbol: sym} }

// Neg 创建取负表达式
func Neg(operand Expression) *Unary { return &Unary{Operator: UnaryNegate, Operand: operand} }

// Not 创建取反表达式
func Not(operand Expression) *Unary { return &Unary{Operator: UnaryNot, Operand: operand} }

// Bin 创建二元表达式
func Bin(op BinaryOperator, left, right Expression) *Binary {
	return &Binary{Operator: op, Left: left, Right: right}
}

// Add 创建加法表达式
func Add(left, right Expression) *Binary { return Bin(BinaryAdd, left, right) }

// Sub 创建减法表达式
func Sub(left, right Expression) *Binary { return Bin(BinarySubtract, left, right) }

// CallOf 创建调用表达式
func CallOf(fn *Symbol, args ...Expression) *Call {
	return &Call{Function: fn, Arguments: args}
}

// Declare 创建变量声明
func Declare(v *Symbol, init Expression) *VariableDeclaration {
	return &VariableDeclaration{Variable: v, Initializer: init}
}

// Assign 创建赋值语句
func Assign(v *Symbol, value Expression) *Assignment {
	return &Assignment{Variable: v, Value: value}
}

// Ret 创建返回语句，value 可为 nil
func Ret(value Expression) *Return { return &Return{Value: value} }

// Do 创建表达式语句
func Do(e Expression) *ExpressionStatement { return &ExpressionStatement{Expression: e} }

// Mark 创建标签定义
func Mark(label *Symbol) *Label { return &Label{Symbol: label} }

// Jump 创建无条件跳转
func Jump(label *Symbol) *Goto { return &Goto{Target: label} }

// JumpIf 创建条件跳转
func JumpIf(cond Expression, label *Symbol, whenTrue bool) *ConditionalGoto {
	return &ConditionalGoto{Condition: cond, Target: label, JumpIfTrue: whenTrue}
}

// Body 创建块
func Body(stmts ...Statement) *Block { return &Block{Statements: stmts} }

// Define 创建带函数体的函数
func Define(sym *Symbol, stmts ...Statement) *Function {
	return &Function{Symbol: sym, Body: Body(stmts...)}
}
