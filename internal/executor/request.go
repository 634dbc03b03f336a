package executor

// Operation selects the root type a request runs against.
type Operation string

const (
	Query    Operation = "query"
	Mutation Operation = "mutation"
)

// Selection is one requested field. Arguments hold already parsed literal
// values; a Variable anywhere inside them is substituted from the request's
// variables when the field is executed.
type Selection struct {
	Name      string
	Alias     string
	Arguments map[string]any
	Children  []*Selection
}

// ResponseName is the key the field's value is written under.
func (s *Selection) ResponseName() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// Field is a shorthand for building selection trees by hand.
func Field(name string, children ...*Selection) *Selection {
	return &Selection{Name: name, Children: children}
}

// WithArgs sets the selection's arguments and returns it.
func (s *Selection) WithArgs(args map[string]any) *Selection {
	s.Arguments = args
	return s
}

// As sets the selection's alias and returns it.
func (s *Selection) As(alias string) *Selection {
	s.Alias = alias
	return s
}

// Variable refers to a request variable by name.
type Variable struct {
	Name string
}

// Request is one operation to execute.
type Request struct {
	Operation Operation
	// TypeName overrides the root type. Empty means the registry's root type
	// for Operation.
	TypeName  string
	Selection []*Selection
	Variables map[string]any
	// RootValue is passed as source to root field resolvers.
	RootValue any
}
