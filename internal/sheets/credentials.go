package sheets

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const googleTokenURI = "https://oauth2.googleapis.com/token"

type serviceAccount struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// ServiceAccountJSON builds service-account credentials from an email and a
// PEM key. Literal "\n" sequences in the key, as stored in env files, are
// expanded.
func ServiceAccountJSON(clientEmail, privateKey string) ([]byte, error) {
	if clientEmail == "" || privateKey == "" {
		return nil, fmt.Errorf("client email and private key are both required")
	}

	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(serviceAccount{
		Type:        "service_account",
		ClientEmail: clientEmail,
		PrivateKey:  strings.ReplaceAll(privateKey, `\n`, "\n"),
		TokenURI:    googleTokenURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode service account: %w", err)
	}
	return data, nil
}

// CredentialOptions selects inline service-account credentials when an email
// and key are given, otherwise the credentials file. Access is read-only.
func CredentialOptions(clientEmail, privateKey, credentialsFile string) ([]option.ClientOption, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}

	if clientEmail != "" || privateKey != "" {
		data, err := ServiceAccountJSON(clientEmail, privateKey)
		if err != nil {
			return nil, err
		}
		return append(opts, option.WithCredentialsJSON(data)), nil
	}

	return append(opts, option.WithCredentialsFile(credentialsFile)), nil
}
