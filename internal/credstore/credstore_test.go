package credstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/deepnoodle-ai/wonton/assert"
	"github.com/zalando/go-keyring"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestEnvStore(t *testing.T) {
	store := EnvStore{LookupEnv: lookupFrom(map[string]string{
		"AZURE_OPENAI_API_KEY":       "key",
		"AZURE_OPENAI_RESOURCE_NAME": "res",
		"AZURE_OPENAI_ACCESS_TOKEN":  "tok",
		"AZURE_OPENAI_ENDPOINT":      "",
	})}

	creds, err := store.Get("azureOpenAiApi")
	assert.NoError(t, err)
	assert.Equal(t, node.Credentials{"apiKey": "key", "resourceName": "res"}, creds)

	creds, err = store.Get("azureEntraCognitiveServicesOAuth2Api")
	assert.NoError(t, err)
	assert.Equal(t, node.Credentials{
		"resourceName":   "res",
		"oauthTokenData": map[string]any{"access_token": "tok"},
	}, creds)

	_, err = store.Get("openAiApi")
	assert.ErrorIs(t, err, node.ErrCredentialsNotFound)
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	_, err = store.Get("slackApi")
	assert.ErrorIs(t, err, node.ErrCredentialsNotFound)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	assert.NoError(t, os.WriteFile(path, []byte("LMNODES_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("LMNODES_TEST_DOTENV", "")
	os.Unsetenv("LMNODES_TEST_DOTENV")

	assert.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("LMNODES_TEST_DOTENV"))

	assert.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore()

	_, err := store.Get("openAiApi")
	assert.ErrorIs(t, err, node.ErrCredentialsNotFound)

	assert.NoError(t, store.Set("openAiApi", node.Credentials{"apiKey": "sk-1"}))
	creds, err := store.Get("openAiApi")
	assert.NoError(t, err)
	assert.Equal(t, "sk-1", creds.String("apiKey"))

	assert.Error(t, store.Set("openAiApi", nil))
	assert.Error(t, store.Set("", node.Credentials{"a": "b"}))

	assert.NoError(t, store.Delete("openAiApi"))
	assert.ErrorIs(t, store.Delete("openAiApi"), node.ErrCredentialsNotFound)
}

type failingSource struct{}

func (failingSource) Get(string) (node.Credentials, error) {
	return nil, errors.New("keyring locked")
}

func TestChain(t *testing.T) {
	env := EnvStore{LookupEnv: lookupFrom(map[string]string{"OPENAI_API_KEY": "from-env"})}
	static := node.StaticCredentials{"azureOpenAiApi": {"apiKey": "from-static"}}
	chain := Chain{env, static}

	creds, err := chain.Get("openAiApi")
	assert.NoError(t, err)
	assert.Equal(t, "from-env", creds.String("apiKey"))

	creds, err = chain.Get("azureOpenAiApi")
	assert.NoError(t, err)
	assert.Equal(t, "from-static", creds.String("apiKey"))

	_, err = chain.Get("azureEntraCognitiveServicesOAuth2Api")
	assert.ErrorIs(t, err, node.ErrCredentialsNotFound)

	_, err = Chain{failingSource{}, static}.Get("azureOpenAiApi")
	assert.Equal(t, "keyring locked", err.Error())
}
