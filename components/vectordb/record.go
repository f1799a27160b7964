package vectordb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Record is a single embedded chunk ready to be stored.
type Record struct {
	// ID is the identifier for the record
	ID string
	// Content is the text the embedding was computed from
	Content   string
	Embedding []float64
	// Meta holds JSON compatible metadata
	Meta map[string]any
}

// UUID derives a stable id from the content and the metadata.
func (r Record) UUID() string {
	sb := new(bytes.Buffer)
	sb.WriteString(r.Content)
	for _, k := range slices.Sorted(maps.Keys(r.Meta)) {
		sb.WriteString(k + ":" + metaString(r.Meta[k]))
		sb.WriteByte('\n')
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, sb.Bytes()).String()
}

// MetaStrings flattens Meta for stores that only accept string values. Strings
// are kept as is, anything else is JSON encoded.
func (r Record) MetaStrings() map[string]string {
	ret := make(map[string]string, len(r.Meta))
	for k, v := range r.Meta {
		ret[k] = metaString(v)
	}
	return ret
}

func metaString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	}
	bs, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(bs)
}
