package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a function-field test double for ChatProvider
type fakeProvider struct {
	name       string
	startFn    func(ctx context.Context, req SessionRequest) (*ChatResult, error)
	continueFn func(ctx context.Context, handle, message string) (*ChatResult, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) StartSession(ctx context.Context, req SessionRequest) (*ChatResult, error) {
	if f.startFn != nil {
		return f.startFn(ctx, req)
	}
	return &ChatResult{Handle: "h-" + f.name, Reply: "ok"}, nil
}

func (f *fakeProvider) ContinueSession(ctx context.Context, handle, message string) (*ChatResult, error) {
	if f.continueFn != nil {
		return f.continueFn(ctx, handle, message)
	}
	return &ChatResult{Handle: handle, Reply: "ok"}, nil
}

func TestRegistryResolve(t *testing.T) {
	gemini := &fakeProvider{name: "gemini"}
	oai := &fakeProvider{name: "openai"}

	reg := NewRegistry(gemini)
	reg.Register("gpt-", oai)

	cases := []struct {
		modelID string
		want    string
	}{
		{"gpt-audio", "openai"},
		{"gpt-4o-audio-preview", "openai"},
		{"GPT-AUDIO", "openai"},
		{"gemini-2.5-flash", "gemini"},
		{"gemini-2.5-pro", "gemini"},
		{"", "gemini"},
		{"some-future-model", "gemini"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, reg.Resolve(tc.modelID).Name(), "model %q", tc.modelID)
	}
}

func TestRegistryDefault(t *testing.T) {
	gemini := &fakeProvider{name: "gemini"}
	reg := NewRegistry(gemini)
	assert.Equal(t, "gemini", reg.Default().Name())
}

func TestRegistryByName(t *testing.T) {
	gemini := &fakeProvider{name: "gemini"}
	oai := &fakeProvider{name: "openai"}
	reg := NewRegistry(gemini)
	reg.Register("gpt-", oai)

	require.NotNil(t, reg.ByName("openai"))
	assert.Equal(t, "openai", reg.ByName("openai").Name())
	assert.Equal(t, "gemini", reg.ByName("gemini").Name())
	assert.Nil(t, reg.ByName("anthropic"))
}

func TestConfigurationErrorOnFirstUse(t *testing.T) {
	p := NewGeminiProvider("")
	_, err := p.StartSession(context.Background(), SessionRequest{Model: "gemini-2.5-flash"})
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "gemini", cfgErr.Provider)
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Missing)
}

func TestOpenAIConfigurationErrorOnFirstUse(t *testing.T) {
	p := NewOpenAIProvider("")
	_, err := p.StartSession(context.Background(), SessionRequest{Model: "gpt-audio"})
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "OPENAI_API_KEY", cfgErr.Missing)
}

func TestOpenAIUnknownHandle(t *testing.T) {
	p := NewOpenAIProvider("test-key")
	_, err := p.ContinueSession(context.Background(), "nope", "hello?")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGeminiUnknownHandle(t *testing.T) {
	p := NewGeminiProvider("test-key")
	_, err := p.ContinueSession(context.Background(), "nope", "hello?")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAudioFormat(t *testing.T) {
	assert.Equal(t, "wav", audioFormat("audio/wav"))
	assert.Equal(t, "mp3", audioFormat("audio/mpeg"))
	assert.Equal(t, "wav", audioFormat("audio/flac"))
}
