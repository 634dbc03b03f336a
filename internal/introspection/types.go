package introspection

import (
	"github.com/hanpama/refgraph/internal/schema"
)

const (
	schemaTypeName     = "__Schema"
	typeTypeName       = "__Type"
	fieldTypeName      = "__Field"
	inputValueTypeName = "__InputValue"
)

var (
	named   = schema.NamedType
	nonNull = schema.NonNullType
	list    = schema.ListType
)

func types() []*schema.Type {
	return []*schema.Type{schemaType(), typeType(), fieldType(), inputValueType()}
}

// schemaType returns the __Schema introspection type definition
func schemaType() *schema.Type {
	return schema.NewType(schemaTypeName, schema.TypeKindObject, "A Schema defines the capabilities of a server.").
		AddField(schema.NewField("types", "A list of all types supported by this server.",
			nonNull(list(nonNull(named(typeTypeName)))))).
		AddField(schema.NewField("queryType", "The type that query operations will be rooted at.",
			nonNull(named(typeTypeName)))).
		AddField(schema.NewField("mutationType", "If this server supports mutation, the type that mutation operations will be rooted at.",
			named(typeTypeName))).
		AddField(schema.NewField("description", "A description of the schema.", named("String")))
}

// typeType returns the __Type introspection type definition. Kinds are
// reported as strings: SCALAR, OBJECT, INPUT_OBJECT, LIST or NON_NULL.
func typeType() *schema.Type {
	return schema.NewType(typeTypeName, schema.TypeKindObject, "The fundamental unit of any Schema is the type.").
		AddField(schema.NewField("kind", "The kind of type.", nonNull(named("String")))).
		AddField(schema.NewField("name", "The name of the type.", named("String"))).
		AddField(schema.NewField("description", "The description of the type.", named("String"))).
		AddField(schema.NewField("fields", "", list(nonNull(named(fieldTypeName))))).
		AddField(schema.NewField("inputFields", "", list(nonNull(named(inputValueTypeName))))).
		AddField(schema.NewField("ofType", "", named(typeTypeName)))
}

func fieldType() *schema.Type {
	return schema.NewType(fieldTypeName, schema.TypeKindObject, "Object types are made of fields.").
		AddField(schema.NewField("name", "", nonNull(named("String")))).
		AddField(schema.NewField("description", "", named("String"))).
		AddField(schema.NewField("args", "", nonNull(list(nonNull(named(inputValueTypeName)))))).
		AddField(schema.NewField("type", "", nonNull(named(typeTypeName))))
}

func inputValueType() *schema.Type {
	return schema.NewType(inputValueTypeName, schema.TypeKindObject, "Arguments and input object fields.").
		AddField(schema.NewField("name", "", nonNull(named("String")))).
		AddField(schema.NewField("description", "", named("String"))).
		AddField(schema.NewField("type", "", nonNull(named(typeTypeName)))).
		AddField(schema.NewField("defaultValue", "A literal in SDL syntax, or null when no default is declared.", named("String")))
}
