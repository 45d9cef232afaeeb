package token

type Type int

const (
	EOF Type = iota
	Move
	Add
	Sub
	Compare
	Jump
	JumpEqual
	JumpNotEqual
	Return
	Call
	SysCall
	FuncKw
	Label
	Ident
	Number
	String
	StrLen
	LParen
	RParen
	LBrace
	RBrace
	Comma
	Semi
	Unknown
)

var KeywordMap = map[string]Type{
	"move":           Move,
	"add":            Add,
	"sub":            Sub,
	"compare":        Compare,
	"jump":           Jump,
	"jump_equal":     JumpEqual,
	"jump_not_equal": JumpNotEqual,
	"return":         Return,
	"call":           Call,
	"sys_call":       SysCall,
	"func":           FuncKw,
	"label":          FuncKw, // backward compatibility
}

// Reverse mapping from Type to a printable spelling
var TypeStrings = map[Type]string{
	EOF:     "end of file",
	FuncKw:  "func",
	Label:   "label",
	Ident:   "identifier",
	Number:  "number",
	String:  "string",
	StrLen:  "&strlen&",
	LParen:  "(",
	RParen:  ")",
	LBrace:  "{",
	RBrace:  "}",
	Comma:   ",",
	Semi:    ";",
	Unknown: "unknown token",
}

func init() {
	for str, typ := range KeywordMap {
		if typ == FuncKw {
			continue
		}
		TypeStrings[typ] = str
	}
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}
