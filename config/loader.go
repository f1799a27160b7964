package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bububa/scrape-embeddings/components/embedder"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Path returns the config file location, EMBEDDER_CONFIG or the default path.
func Path() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// LoadDotEnv loads .env style files into the environment without overriding
// variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads, defaults and validates the YAML file at path.
func Load(path string) (*Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, rejecting unknown keys, then applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	cfg := new(Config)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustomValidators(v); err != nil {
		return nil, err
	}
	return v, nil
}

// RegisterCustomValidators registers the input_type and provider validations.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("input_type", validateInputType); err != nil {
		return err
	}
	return v.RegisterValidation("provider", validateProvider)
}

func validateInputType(fl validator.FieldLevel) bool {
	_, err := embedder.ParseInputType(fl.Field().String())
	return err == nil
}

func validateProvider(fl validator.FieldLevel) bool {
	provider := fl.Field().String()
	for _, v := range []embedder.Provider{embedder.ProviderCohere, embedder.ProviderOpenAI, embedder.ProviderREST} {
		if strings.EqualFold(provider, v) {
			return true
		}
	}
	return false
}

// Validate checks struct tags and the cross field rules.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration cannot be nil", ErrInvalidConfig)
	}
	v, err := newValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return validateCustom(cfg)
}

func validateCustom(cfg *Config) error {
	e := cfg.CreatingEmbeddings
	if e.MinChunk() > e.MaxEmbeddingModelInputLength {
		return fmt.Errorf("%w: min_chunk_size %d exceeds max_embedding_model_input_length %d",
			ErrInvalidConfig, e.MinChunk(), e.MaxEmbeddingModelInputLength)
	}
	if e.Retry.Max > 0 && e.Retry.Base > e.Retry.Max {
		return fmt.Errorf("%w: retry base %s exceeds retry max %s", ErrInvalidConfig, e.Retry.Base, e.Retry.Max)
	}
	if strings.EqualFold(e.Provider, embedder.ProviderREST) && e.BaseURL == "" {
		return fmt.Errorf("%w: base_url is required for the REST provider", ErrInvalidConfig)
	}
	return nil
}
