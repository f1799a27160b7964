package engines

import (
	"github.com/bububa/scrape-embeddings/components/vectordb/engines/chromem"
	"github.com/bububa/scrape-embeddings/components/vectordb/engines/file"
	"github.com/bububa/scrape-embeddings/components/vectordb/engines/memory"
	"github.com/bububa/scrape-embeddings/components/vectordb/engines/milvus"
)

var (
	FromChromem = chromem.New
	FromFile    = file.New
	FromMemory  = memory.New
	FromMilvus  = milvus.New
)
