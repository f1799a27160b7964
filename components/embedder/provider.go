package embedder

type Provider = string

const (
	ProviderCohere Provider = "Cohere"
	ProviderOpenAI Provider = "OpenAI"
	// ProviderREST talks the cohere v1 JSON contract over plain HTTP, for gateways
	// and self-hosted deployments that mirror it.
	ProviderREST Provider = "REST"
)
