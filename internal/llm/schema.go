package llm

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Describe reflects a Schema type into the SchemaSpec sent to providers. Field
// constraints come from the jsonschema struct tags of T.
func Describe[T any, PT Target[T]]() (SchemaSpec, error) {
	var zero T
	instance := PT(&zero)

	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(instance)
	schema.Version = ""
	schema.ID = ""
	schema.Title = instance.SchemaName()
	schema.Description = instance.SchemaDescription()

	data, err := json.Marshal(schema)
	if err != nil {
		return SchemaSpec{}, fmt.Errorf("marshal %s schema: %w", instance.SchemaName(), err)
	}

	return SchemaSpec{
		Name:        instance.SchemaName(),
		Description: instance.SchemaDescription(),
		JSON:        data,
	}, nil
}
