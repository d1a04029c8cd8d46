// Package credstore provides credential sources for running nodes outside
// the workflow host: environment variables (optionally loaded from a .env
// file) and the operating system keyring.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/lmnodes/node"
	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name credentials are stored under.
const DefaultService = "lmnodes"

// envFields maps each credential type's fields to environment variables.
// A dotted field name addresses a nested object.
var envFields = map[string]map[string]string{
	"azureOpenAiApi": {
		"apiKey":       "AZURE_OPENAI_API_KEY",
		"resourceName": "AZURE_OPENAI_RESOURCE_NAME",
		"apiVersion":   "AZURE_OPENAI_API_VERSION",
		"endpoint":     "AZURE_OPENAI_ENDPOINT",
	},
	"azureEntraCognitiveServicesOAuth2Api": {
		"resourceName":                "AZURE_OPENAI_RESOURCE_NAME",
		"apiVersion":                  "AZURE_OPENAI_API_VERSION",
		"endpoint":                    "AZURE_OPENAI_ENDPOINT",
		"oauthTokenData.access_token": "AZURE_OPENAI_ACCESS_TOKEN",
	},
	"openAiApi": {
		"apiKey":         "OPENAI_API_KEY",
		"organizationId": "OPENAI_ORG_ID",
		"url":            "OPENAI_BASE_URL",
	},
}

// LoadDotEnv loads environment variables from the given files, or from
// ./.env when none are given. A missing default file is not an error.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return godotenv.Load()
	}
	return godotenv.Load(paths...)
}

// EnvVars returns the environment variables read for a credential type,
// sorted.
func EnvVars(credentialType string) []string {
	fields := envFields[credentialType]
	vars := make([]string, 0, len(fields))
	for _, v := range fields {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// EnvStore reads credentials from environment variables.
type EnvStore struct {
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// Get implements node.CredentialSource. A type counts as stored when at
// least one of its variables is set.
func (s EnvStore) Get(credentialType string) (node.Credentials, error) {
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	fields, ok := envFields[credentialType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", node.ErrCredentialsNotFound, credentialType)
	}
	creds := node.Credentials{}
	for field, envVar := range fields {
		value, ok := lookup(envVar)
		if !ok || value == "" {
			continue
		}
		setPath(creds, field, value)
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("%w: %s (set %s)", node.ErrCredentialsNotFound,
			credentialType, strings.Join(EnvVars(credentialType), ", "))
	}
	return creds, nil
}

func setPath(m map[string]any, path, value string) {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		m[head] = value
		return
	}
	child, ok := m[head].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[head] = child
	}
	setPath(child, rest, value)
}

// KeyringStore keeps each credential type as a JSON document in the OS
// keyring.
type KeyringStore struct {
	Service string
}

// NewKeyringStore returns a store under DefaultService.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{Service: DefaultService}
}

func (s *KeyringStore) service() string {
	if s.Service == "" {
		return DefaultService
	}
	return s.Service
}

// Get implements node.CredentialSource.
func (s *KeyringStore) Get(credentialType string) (node.Credentials, error) {
	if credentialType == "" {
		return nil, errors.New("credential type is required")
	}
	secret, err := keyring.Get(s.service(), credentialType)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", node.ErrCredentialsNotFound, credentialType)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading keyring: %w", err)
	}
	var creds node.Credentials
	if err := json.Unmarshal([]byte(secret), &creds); err != nil {
		return nil, fmt.Errorf("corrupt keyring entry for %s: %w", credentialType, err)
	}
	return creds, nil
}

// Set stores creds for a credential type, replacing any earlier entry.
func (s *KeyringStore) Set(credentialType string, creds node.Credentials) error {
	if credentialType == "" {
		return errors.New("credential type is required")
	}
	if len(creds) == 0 {
		return errors.New("credentials are empty")
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("error encoding credentials: %w", err)
	}
	return keyring.Set(s.service(), credentialType, string(data))
}

// Delete removes the entry for a credential type.
func (s *KeyringStore) Delete(credentialType string) error {
	err := keyring.Delete(s.service(), credentialType)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %s", node.ErrCredentialsNotFound, credentialType)
	}
	return err
}

// Chain tries each source in order and returns the first credentials found.
type Chain []node.CredentialSource

// Get implements node.CredentialSource.
func (c Chain) Get(credentialType string) (node.Credentials, error) {
	for _, source := range c {
		creds, err := source.Get(credentialType)
		if err == nil {
			return creds, nil
		}
		if !errors.Is(err, node.ErrCredentialsNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", node.ErrCredentialsNotFound, credentialType)
}
