package bytecode

import "fmt"

type Opcode uint8

// List of VM instructions. The order matches the numbering programs were
// assembled against, so new opcodes only ever go at the end.
const (
	OpStackPush Opcode = iota
	OpStackPrev
	OpStackPop

	OpPlus
	OpMinus
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpGt
	OpLt
	OpGeq
	OpLeq
	OpLogicalAnd
	OpLogicalOr

	OpIf
	OpElse
	OpElif
	OpThen
	OpEndIf
	OpWhile
	OpRunWhile
	OpEndWhile

	OpPrint
	OpPrintln
	OpJump

	OpAddVarToStackframe
	OpAssign
	OpVarUsage
	OpVarReassign

	OpHeapAlloc
	OpHeapFree
	OpPtrGetI
	OpPtrSetI

	OpIntType
	OpFloatType
	OpDoubleType
	OpCharType
	OpStrType

	OpMacro
	OpMacroDef
	OpEndMacro
	OpMacroUsage

	OpFuncDef
	OpFuncCall
	OpFuncRet

	OpStructDef
	OpStructInit
	OpStructAccess

	OpTableCreate
	OpTableInsert
	OpTableSelect
	OpTableUpdate
	OpTableDelete
	OpSQLQuery
	OpConcatStr
	OpChartPlot
	OpExportData
	OpStatMean
	OpStatMedian
	OpStatMode
	OpStatStdDev
	OpRegression
	OpCluster
	OpTimeSeries
	OpAPIRequest
	OpDBConnect
	OpDBQuery
	OpETLExtract
	OpETLTransform
	OpETLLoad
	OpDataValidate
	OpScriptExecute
	OpJobSchedule
	OpCustomAggregate
	OpCustomTransform
	OpParallelExec
	OpAsyncExec
	OpAccessControl
	OpEncryptData

	OpScopeEnter
	OpScopeExit

	opCount
)

var mnemonics = [opCount]string{
	OpStackPush: "push",
	OpStackPrev: "prev",
	OpStackPop:  "pop",

	OpPlus:       "plus",
	OpMinus:      "minus",
	OpMul:        "mul",
	OpDiv:        "div",
	OpMod:        "mod",
	OpEq:         "eq",
	OpNeq:        "neq",
	OpGt:         "gt",
	OpLt:         "lt",
	OpGeq:        "geq",
	OpLeq:        "leq",
	OpLogicalAnd: "and",
	OpLogicalOr:  "or",

	OpIf:       "if",
	OpElse:     "else",
	OpElif:     "elif",
	OpThen:     "then",
	OpEndIf:    "endif",
	OpWhile:    "while",
	OpRunWhile: "runwhile",
	OpEndWhile: "endwhile",

	OpPrint:   "print",
	OpPrintln: "println",
	OpJump:    "jump",

	OpAddVarToStackframe: "var",
	OpAssign:             "assign",
	OpVarUsage:           "load",
	OpVarReassign:        "store",

	OpHeapAlloc: "alloc",
	OpHeapFree:  "free",
	OpPtrGetI:   "getp",
	OpPtrSetI:   "setp",

	OpIntType:    "int",
	OpFloatType:  "float",
	OpDoubleType: "double",
	OpCharType:   "char",
	OpStrType:    "str",

	OpMacro:      "macro",
	OpMacroDef:   "defmacro",
	OpEndMacro:   "endmacro",
	OpMacroUsage: "usemacro",

	OpFuncDef:  "func",
	OpFuncCall: "call",
	OpFuncRet:  "ret",

	OpStructDef:    "struct.def",
	OpStructInit:   "struct.init",
	OpStructAccess: "struct.access",

	OpTableCreate:     "table.create",
	OpTableInsert:     "table.insert",
	OpTableSelect:     "table.select",
	OpTableUpdate:     "table.update",
	OpTableDelete:     "table.delete",
	OpSQLQuery:        "sql.query",
	OpConcatStr:       "concat",
	OpChartPlot:       "chart.plot",
	OpExportData:      "export",
	OpStatMean:        "stat.mean",
	OpStatMedian:      "stat.median",
	OpStatMode:        "stat.mode",
	OpStatStdDev:      "stat.stddev",
	OpRegression:      "regression",
	OpCluster:         "cluster",
	OpTimeSeries:      "timeseries",
	OpAPIRequest:      "api.request",
	OpDBConnect:       "db.connect",
	OpDBQuery:         "db.query",
	OpETLExtract:      "etl.extract",
	OpETLTransform:    "etl.transform",
	OpETLLoad:         "etl.load",
	OpDataValidate:    "validate",
	OpScriptExecute:   "script.exec",
	OpJobSchedule:     "job.schedule",
	OpCustomAggregate: "custom.aggregate",
	OpCustomTransform: "custom.transform",
	OpParallelExec:    "parallel",
	OpAsyncExec:       "async",
	OpAccessControl:   "access",
	OpEncryptData:     "encrypt",

	OpScopeEnter: "scope",
	OpScopeExit:  "endscope",
}

var byMnemonic = func() map[string]Opcode {
	m := make(map[string]Opcode, opCount)
	for op, name := range mnemonics {
		m[name] = Opcode(op)
	}
	return m
}()

// String returns the assembly mnemonic of the opcode
func (op Opcode) String() string {
	if op.Valid() {
		return mnemonics[op]
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(op))
}

// Valid reports whether op is a declared instruction
func (op Opcode) Valid() bool {
	return op < opCount
}

// Structural reports whether op opens, continues or closes a block the
// control-flow resolver has to match by nesting depth.
func (op Opcode) Structural() bool {
	switch op {
	case OpIf, OpElif, OpThen, OpElse, OpEndIf,
		OpRunWhile, OpWhile, OpEndWhile,
		OpFuncDef, OpFuncRet, OpMacroDef, OpEndMacro:
		return true
	default:
		return false
	}
}

// LookupMnemonic maps an assembly mnemonic back to its opcode
func LookupMnemonic(name string) (Opcode, bool) {
	op, ok := byMnemonic[name]
	return op, ok
}

// Opcodes returns every declared opcode in numbering order
func Opcodes() []Opcode {
	ops := make([]Opcode, opCount)
	for i := range ops {
		ops[i] = Opcode(i)
	}
	return ops
}
