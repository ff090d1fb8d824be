package classify

// TypeTag identifies the semantic shape of a document field value.
type TypeTag string

const (
	TypeString         TypeTag = "string"
	TypeStringArray    TypeTag = "string-array"
	TypeNumber         TypeTag = "number"
	TypeNumberArray    TypeTag = "number-array"
	TypeBoolean        TypeTag = "boolean"
	TypeObject         TypeTag = "object"
	TypeObjectArray    TypeTag = "object-array"
	TypeNullableObject TypeTag = "nullable-object"
	TypeReference      TypeTag = "reference"
	TypeReferenceArray TypeTag = "reference-array"
)

// MetaField is the reserved per-record metadata field. It is excluded from
// classification entirely: never translatable, never passthrough.
const MetaField = "_meta"

// Classified is the partition of a source document. Every field except
// MetaField lands in exactly one of Translatable or Passthrough.
type Classified struct {
	Translatable map[string]any
	Passthrough  map[string]any
	Types        map[string]TypeTag
}

// Classify tags a value's semantic type. Total and pure: any value yields a
// tag, unrecognized shapes default to object.
func Classify(value any) TypeTag {
	switch v := value.(type) {
	case nil:
		return TypeNullableObject
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case float64, float32, int, int32, int64:
		return TypeNumber
	case []string:
		return TypeStringArray
	case []float64, []int:
		return TypeNumberArray
	case []any:
		return classifyArray(v)
	case map[string]any:
		// Timestamp and geo-point shapes pass through as plain objects;
		// references get their own tag but are equally untranslatable.
		if isReference(v) {
			return TypeReference
		}
		return TypeObject
	default:
		return TypeObject
	}
}

// classifyArray inspects the first element. An empty array defaults to
// string-array so that a field which starts life empty stays translatable.
func classifyArray(values []any) TypeTag {
	if len(values) == 0 {
		return TypeStringArray
	}
	switch first := values[0].(type) {
	case string:
		return TypeStringArray
	case float64, float32, int, int32, int64:
		return TypeNumberArray
	case map[string]any:
		if isReference(first) {
			return TypeReferenceArray
		}
		return TypeObjectArray
	default:
		return TypeObjectArray
	}
}

// isReference recognizes the structural shape of a document reference: an
// object whose "path" value is a slash-separated document path.
func isReference(v map[string]any) bool {
	path, ok := v["path"].(string)
	if !ok || path == "" {
		return false
	}
	// A reference carries at most a path and an id.
	for key := range v {
		if key != "path" && key != "id" {
			return false
		}
	}
	return true
}

// Translatable reports whether values of the given tag are eligible for
// translation. Only plain strings and string arrays qualify.
func (t TypeTag) Translatable() bool {
	return t == TypeString || t == TypeStringArray
}

// Separate partitions a document into translatable and passthrough content.
// When allowedFields is non-nil, any field outside the set is forced to
// passthrough regardless of type. The reserved MetaField is dropped from both
// maps.
func Separate(document map[string]any, allowedFields []string) Classified {
	out := Classified{
		Translatable: make(map[string]any),
		Passthrough:  make(map[string]any),
		Types:        make(map[string]TypeTag),
	}

	var allowed map[string]struct{}
	if allowedFields != nil {
		allowed = make(map[string]struct{}, len(allowedFields))
		for _, f := range allowedFields {
			allowed[f] = struct{}{}
		}
	}

	for name, value := range document {
		if name == MetaField {
			continue
		}
		tag := Classify(value)
		out.Types[name] = tag

		if !tag.Translatable() {
			out.Passthrough[name] = value
			continue
		}
		if allowed != nil {
			if _, ok := allowed[name]; !ok {
				out.Passthrough[name] = value
				continue
			}
		}
		out.Translatable[name] = value
	}

	return out
}
