package embedder

import "fmt"

// InputType is a hint telling the provider what the embedding is going to be used for.
type InputType string

const (
	InputTypeSearchDocument InputType = "search_document"
	InputTypeSearchQuery    InputType = "search_query"
	InputTypeClassification InputType = "classification"
	InputTypeClustering     InputType = "clustering"
)

// String implements stringer.
func (i InputType) String() string {
	return string(i)
}

func (i InputType) Valid() bool {
	switch i {
	case InputTypeSearchDocument, InputTypeSearchQuery, InputTypeClassification, InputTypeClustering:
		return true
	}
	return false
}

// ParseInputType validates a configured input type. An empty string yields
// InputTypeSearchDocument.
func ParseInputType(s string) (InputType, error) {
	if s == "" {
		return InputTypeSearchDocument, nil
	}
	it := InputType(s)
	if !it.Valid() {
		return "", fmt.Errorf("%w: unknown input type %q", ErrInvalidArgument, s)
	}
	return it, nil
}
