// Package condition evaluates the small boolean expressions that gate
// descriptor inclusion during dynamic-config resolution.
//
// The grammar:
//
//	expr       = or-expr
//	or-expr    = and-expr { "or" and-expr }
//	and-expr   = primary { "and" primary }          // "and" binds tighter
//	primary    = "(" expr ")" | comparison
//	comparison = operand cmp-op operand
//	           | operand [ "not" ] "in" list
//	cmp-op     = "==" | "!=" | ">=" | "<=" | "<" | ">"
//	operand    = identifier | number | string | "true" | "false"
//	list       = "[" operand { "," operand } "]"
//
// Identifiers are looked up in the evaluation context. An identifier
// the context does not define evaluates to a distinguished Absent value:
// every comparison against Absent is false, except "not in", which is
// true (nothing is a member of any list, so the negation holds). Old
// templates keep working when conditions reference context keys this
// build does not define.
//
// Comparison is numeric when the context value is numeric and the other
// operand parses as a number; otherwise both sides compare as strings.
package condition
