package processor

import (
	"encoding/json"
	"maps"

	"github.com/bububa/scrape-embeddings/components/document"
	"github.com/bububa/scrape-embeddings/components/vectordb"
)

const (
	FieldTokenizedChunk   = "tokenized_chunk"
	FieldDetokenizedChunk = "detokenized_chunk"
	FieldEmbedding        = "embedding"
)

// ProcessedRecord is one embedded chunk of an input record. It serializes as
// the original record fields plus tokenized_chunk, detokenized_chunk and
// embedding, the added keys winning over same-named input fields.
type ProcessedRecord struct {
	// Fields are the original record fields, shared by every chunk of the record
	Fields           document.Record
	TokenizedChunk   []int
	DetokenizedChunk string
	Embedding        []float64
	// RecordIndex and ChunkIndex locate the chunk in the input
	RecordIndex int
	ChunkIndex  int
}

// Metadata returns every serialized field except the embedding.
func (r ProcessedRecord) Metadata() map[string]any {
	ret := make(map[string]any, len(r.Fields)+2)
	maps.Copy(ret, r.Fields)
	delete(ret, FieldEmbedding)
	ret[FieldTokenizedChunk] = r.TokenizedChunk
	ret[FieldDetokenizedChunk] = r.DetokenizedChunk
	return ret
}

func (r ProcessedRecord) MarshalJSON() ([]byte, error) {
	ret := r.Metadata()
	ret[FieldEmbedding] = r.Embedding
	return json.Marshal(ret)
}

// VectorRecord converts the chunk into the form stored by vector engines.
func (r ProcessedRecord) VectorRecord() vectordb.Record {
	rec := vectordb.Record{
		Content:   r.DetokenizedChunk,
		Embedding: r.Embedding,
		Meta:      r.Metadata(),
	}
	rec.ID = rec.UUID()
	return rec
}

// VectorRecords converts records keeping their order.
func VectorRecords(records []ProcessedRecord) []vectordb.Record {
	ret := make([]vectordb.Record, len(records))
	for i, r := range records {
		ret[i] = r.VectorRecord()
	}
	return ret
}
