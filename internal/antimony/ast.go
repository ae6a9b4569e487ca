// Package antimony parses a reaction-based textual modeling language.
//
// The accepted subset covers single-line reaction models in the style of
//
//	S1 -> S2; k1*S1; k1 = 0.1; S1 = 10
//
// Statements are separated by semicolons or newlines. A reaction statement
// is an optional label, a reactant side, "->", a product side, and a rate
// expression after the following semicolon. Assignments bind parameters and
// initial concentrations. A "$" prefix marks a boundary species whose
// concentration is clamped during simulation.
package antimony

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Model is the parsed form of a model source string.
type Model struct {
	Reactions   []*Reaction
	Assignments []*Assignment
}

// Reaction is a single stoichiometric conversion with a rate law.
type Reaction struct {
	Name      string
	Reactants []SpeciesRef
	Products  []SpeciesRef
	Rate      Expr
	Line      int
}

// SpeciesRef is one term on a reaction side.
type SpeciesRef struct {
	Name     string
	Stoich   float64
	Boundary bool
}

// Assignment binds an identifier to a constant value; whether it names a
// parameter or a species initial concentration is resolved at compile time.
type Assignment struct {
	Name  string
	Value float64
	Line  int
}

// ParseError reports a syntax or semantic error with source position.
type ParseError struct {
	Line    int
	Col     int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Message)
}

// Expr is a rate-law expression node.
type Expr interface {
	// Eval evaluates the expression; every identifier must be present in
	// vars (the compiler guarantees this for compiled networks).
	Eval(vars map[string]float64) float64
	// CollectVars adds every identifier referenced by the expression.
	CollectVars(set map[string]struct{})
	String() string
}

type Num struct {
	Value float64
}

func (n *Num) Eval(map[string]float64) float64 { return n.Value }
func (n *Num) CollectVars(map[string]struct{}) {}
func (n *Num) String() string                  { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

type Ident struct {
	Name string
}

func (id *Ident) Eval(vars map[string]float64) float64 { return vars[id.Name] }
func (id *Ident) CollectVars(set map[string]struct{})  { set[id.Name] = struct{}{} }
func (id *Ident) String() string                       { return id.Name }

type Unary struct {
	Op rune
	X  Expr
}

func (u *Unary) Eval(vars map[string]float64) float64 {
	v := u.X.Eval(vars)
	if u.Op == '-' {
		return -v
	}
	return v
}

func (u *Unary) CollectVars(set map[string]struct{}) { u.X.CollectVars(set) }
func (u *Unary) String() string                      { return fmt.Sprintf("%c%s", u.Op, u.X) }

type Binary struct {
	Op   rune
	L, R Expr
}

func (b *Binary) Eval(vars map[string]float64) float64 {
	l := b.L.Eval(vars)
	r := b.R.Eval(vars)
	switch b.Op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return l / r
	case '^':
		return math.Pow(l, r)
	}
	return math.NaN()
}

func (b *Binary) CollectVars(set map[string]struct{}) {
	b.L.CollectVars(set)
	b.R.CollectVars(set)
}

func (b *Binary) String() string { return fmt.Sprintf("(%s %c %s)", b.L, b.Op, b.R) }

type Call struct {
	Fn   string
	Args []Expr
}

func (c *Call) Eval(vars map[string]float64) float64 {
	switch len(c.Args) {
	case 1:
		x := c.Args[0].Eval(vars)
		switch c.Fn {
		case "exp":
			return math.Exp(x)
		case "log", "ln":
			return math.Log(x)
		case "log10":
			return math.Log10(x)
		case "sin":
			return math.Sin(x)
		case "cos":
			return math.Cos(x)
		case "sqrt":
			return math.Sqrt(x)
		case "abs":
			return math.Abs(x)
		}
	case 2:
		if c.Fn == "pow" {
			return math.Pow(c.Args[0].Eval(vars), c.Args[1].Eval(vars))
		}
	}
	return math.NaN()
}

func (c *Call) CollectVars(set map[string]struct{}) {
	for _, a := range c.Args {
		a.CollectVars(set)
	}
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Fn, strings.Join(args, ", "))
}

// knownFuncs maps function name to arity.
var knownFuncs = map[string]int{
	"exp":   1,
	"log":   1,
	"ln":    1,
	"log10": 1,
	"sin":   1,
	"cos":   1,
	"sqrt":  1,
	"abs":   1,
	"pow":   2,
}

// String renders a reaction in source form, used by the check command.
func (r *Reaction) String() string {
	var sb strings.Builder
	if r.Name != "" {
		sb.WriteString(r.Name)
		sb.WriteString(": ")
	}
	sb.WriteString(sideString(r.Reactants))
	sb.WriteString(" -> ")
	sb.WriteString(sideString(r.Products))
	sb.WriteString("; ")
	sb.WriteString(r.Rate.String())
	return sb.String()
}

func sideString(refs []SpeciesRef) string {
	if len(refs) == 0 {
		return ""
	}
	parts := make([]string, len(refs))
	for i, ref := range refs {
		name := ref.Name
		if ref.Boundary {
			name = "$" + name
		}
		if ref.Stoich != 1 {
			parts[i] = fmt.Sprintf("%g %s", ref.Stoich, name)
		} else {
			parts[i] = name
		}
	}
	return strings.Join(parts, " + ")
}
