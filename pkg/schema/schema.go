package schema

import (
	"github.com/invopop/jsonschema"
)

func generateSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

// LorebookSchema describes the import/export document. Unknown members are
// allowed at both levels since they are preserved on round-trip.
var LorebookSchema = generateSchema[Lorebook]()
