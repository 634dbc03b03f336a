package language

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hanpama/refgraph/internal/executor"
)

var (
	ErrOperationNotFound     = errors.New("operation not found")
	ErrOperationNameRequired = errors.New("operation name is required when the document has more than one operation")
)

// BuildRequest selects an operation from doc and flattens it into an
// executor request.
//
// Fragments are inlined where they are spread and @skip / @include are
// evaluated against the supplied variables, so the executor only ever sees
// plain fields. Fields sharing a response name are merged. Variable
// references inside arguments are kept as executor.Variable and resolved by
// the executor; declared variable defaults are applied here.
func BuildRequest(doc *QueryDocument, operationName string, variables map[string]any) (*executor.Request, error) {
	op, err := getOperation(doc, operationName)
	if err != nil {
		return nil, err
	}

	var kind executor.Operation
	switch op.Operation {
	case Query, "":
		kind = executor.Query
	case Mutation:
		kind = executor.Mutation
	default:
		return nil, fmt.Errorf("unsupported operation type: %s", op.Operation)
	}

	vars, err := variableValues(op, variables)
	if err != nil {
		return nil, err
	}

	if err := checkFragmentCycles(doc); err != nil {
		return nil, err
	}

	b := &builder{doc: doc, variables: vars}
	sel := b.selections(op.SelectionSet)
	if b.err != nil {
		return nil, b.err
	}
	return &executor.Request{Operation: kind, Selection: sel, Variables: vars}, nil
}

func getOperation(doc *QueryDocument, operationName string) (*OperationDefinition, error) {
	if doc == nil || len(doc.Operations) == 0 {
		return nil, ErrOperationNotFound
	}
	if operationName == "" {
		if len(doc.Operations) > 1 {
			return nil, ErrOperationNameRequired
		}
		return doc.Operations[0], nil
	}
	if op := doc.Operations.ForName(operationName); op != nil {
		return op, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, operationName)
}

// variableValues applies declared defaults and checks required variables.
// Values are coerced later, against the argument they are used for.
// Undeclared variables are dropped.
func variableValues(op *OperationDefinition, supplied map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(op.VariableDefinitions))
	for _, def := range op.VariableDefinitions {
		name := def.Variable
		val, ok := supplied[name]
		if !ok {
			val, ok = supplied["$"+name]
		}
		if !ok {
			if def.DefaultValue != nil {
				out[name] = constValue(def.DefaultValue)
				continue
			}
			if def.Type.NonNull {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, def.Type.String())
			}
			continue
		}
		if val == nil && def.Type.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, def.Type.String())
		}
		out[name] = val
	}
	return out, nil
}

type builder struct {
	doc       *QueryDocument
	variables map[string]any
	err       error
}

// fieldGroup preserves field order from the document.
type fieldGroup struct {
	fields []*Field
}

func (b *builder) selections(sets ...SelectionSet) []*executor.Selection {
	var groups []*fieldGroup
	index := make(map[string]int)
	visited := make(map[string]bool)
	for _, set := range sets {
		b.collect(set, &groups, index, visited)
	}

	out := make([]*executor.Selection, 0, len(groups))
	for _, g := range groups {
		first := g.fields[0]
		sel := &executor.Selection{Name: first.Name, Arguments: b.arguments(first.Arguments)}
		if first.Alias != "" && first.Alias != first.Name {
			sel.Alias = first.Alias
		}
		var children []SelectionSet
		for _, f := range g.fields {
			if len(f.SelectionSet) > 0 {
				children = append(children, f.SelectionSet)
			}
		}
		if len(children) > 0 {
			sel.Children = b.selections(children...)
		}
		out = append(out, sel)
	}
	return out
}

func (b *builder) collect(set SelectionSet, groups *[]*fieldGroup, index map[string]int, visited map[string]bool) {
	for _, selection := range set {
		if b.err != nil {
			return
		}
		switch sel := selection.(type) {
		case *Field:
			if !b.shouldInclude(sel.Directives) {
				continue
			}
			name := sel.Alias
			if name == "" {
				name = sel.Name
			}
			if i, ok := index[name]; ok {
				(*groups)[i].fields = append((*groups)[i].fields, sel)
				continue
			}
			index[name] = len(*groups)
			*groups = append(*groups, &fieldGroup{fields: []*Field{sel}})

		case *InlineFragment:
			if !b.shouldInclude(sel.Directives) {
				continue
			}
			b.collect(sel.SelectionSet, groups, index, visited)

		case *FragmentSpread:
			if !b.shouldInclude(sel.Directives) || visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true

			def := b.doc.Fragments.ForName(sel.Name)
			if def == nil {
				b.err = fmt.Errorf("unknown fragment %q", sel.Name)
				return
			}
			if !b.shouldInclude(def.Directives) {
				continue
			}
			b.collect(def.SelectionSet, groups, index, visited)
		}
	}
}

// checkFragmentCycles reports a fragment that reaches itself through its own
// spreads, at any depth.
func checkFragmentCycles(doc *QueryDocument) error {
	done := make(map[string]bool)
	path := make(map[string]bool)
	var visit func(name string) error
	visit = func(name string) error {
		if path[name] {
			return fmt.Errorf("fragment %q spreads itself", name)
		}
		def := doc.Fragments.ForName(name)
		if done[name] || def == nil {
			return nil
		}
		path[name] = true
		for _, spread := range spreads(def.SelectionSet, nil) {
			if err := visit(spread); err != nil {
				return err
			}
		}
		delete(path, name)
		done[name] = true
		return nil
	}
	for _, def := range doc.Fragments {
		if err := visit(def.Name); err != nil {
			return err
		}
	}
	return nil
}

func spreads(set SelectionSet, out []string) []string {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *Field:
			out = spreads(sel.SelectionSet, out)
		case *InlineFragment:
			out = spreads(sel.SelectionSet, out)
		case *FragmentSpread:
			out = append(out, sel.Name)
		}
	}
	return out
}

// shouldInclude evaluates @skip and @include.
func (b *builder) shouldInclude(directives DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := b.directiveArgument(skip.Arguments, "if").(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := b.directiveArgument(include.Arguments, "if").(bool); ok && !v {
			return false
		}
	}
	return true
}

func (b *builder) directiveArgument(args ArgumentList, name string) any {
	arg := args.ForName(name)
	if arg == nil || arg.Value == nil {
		return nil
	}
	if arg.Value.Kind == Variable {
		return b.variables[arg.Value.Raw]
	}
	return constValue(arg.Value)
}

func (b *builder) arguments(args ArgumentList) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args))
	for _, arg := range args {
		out[arg.Name] = literal(arg.Value)
	}
	return out
}

// literal converts an argument value, keeping variable references.
func literal(value *Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case Variable:
		return executor.Variable{Name: value.Raw}
	case ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = literal(c.Value)
		}
		return out
	case ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = literal(f.Value)
		}
		return m
	default:
		return constValue(value)
	}
}

// constValue converts a value with no variables in it.
func constValue(value *Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case IntValue:
		if iv, err := strconv.Atoi(value.Raw); err == nil {
			return iv
		}
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case StringValue, BlockValue, EnumValue:
		return value.Raw
	case BooleanValue:
		return strings.EqualFold(value.Raw, "true")
	case NullValue:
		return nil
	case ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = constValue(c.Value)
		}
		return out
	case ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = constValue(f.Value)
		}
		return m
	default:
		return nil
	}
}
