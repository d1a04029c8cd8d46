package node

import "fmt"

// Credentials is a decrypted credential record as stored by the host.
type Credentials map[string]any

// Decode copies the record into the struct pointed to by v using the JSON
// field names of v.
func (c Credentials) Decode(v any) error {
	if err := Decode(map[string]any(c), v); err != nil {
		return fmt.Errorf("error decoding credentials: %w", err)
	}
	return nil
}

// String returns the string field key, or "" when absent or not a string.
func (c Credentials) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// CredentialSource resolves stored credentials by type name.
type CredentialSource interface {
	Get(credentialType string) (Credentials, error)
}

// StaticCredentials is a CredentialSource backed by a map.
type StaticCredentials map[string]Credentials

// Get implements CredentialSource.
func (s StaticCredentials) Get(credentialType string) (Credentials, error) {
	creds, ok := s[credentialType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, credentialType)
	}
	return creds, nil
}
