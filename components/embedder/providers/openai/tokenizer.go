package openai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used for models tiktoken does not know about.
const DefaultEncoding = "cl100k_base"

// Codec converts text to token ids and back, locally.
type Codec interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenCodec struct {
	*tiktoken.Tiktoken
}

func (c tiktokenCodec) Encode(text string) []int {
	return c.EncodeOrdinary(text)
}

var (
	codecsMu sync.Mutex
	codecs   = make(map[string]Codec)
)

// CodecForModel returns the tiktoken encoding of model, falling back to
// DefaultEncoding. Encodings are loaded once and cached.
func CodecForModel(model string) (Codec, error) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	if c, ok := codecs[model]; ok {
		return c, nil
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if tke, err = tiktoken.GetEncoding(DefaultEncoding); err != nil {
			return nil, err
		}
	}
	c := tiktokenCodec{tke}
	codecs[model] = c
	return c, nil
}
