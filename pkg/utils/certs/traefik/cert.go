// Package traefik reads certificates from the acme storage file of traefik.
package traefik

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var ErrDomainNotFound = errors.New("domain not found")

// acme.json stores PEM data base64 encoded
type entry struct {
	Certificate string `json:"certificate"`
	Key         string `json:"key"`
}

// LoadKeyPair returns the key pair stored for domain in the acme file.
// domain is compared with the main domain of the entries, e.g. "*.example.com".
func LoadKeyPair(file, domain string) (tls.Certificate, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return tls.Certificate{}, err
	}
	return KeyPairFromJSON(data, domain)
}

func KeyPairFromJSON(data []byte, domain string) (tls.Certificate, error) {
	e, err := findEntry(data, domain)
	if err != nil {
		return tls.Certificate{}, err
	}
	certPEM, err := base64.StdEncoding.DecodeString(e.Certificate)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("certificate of %s: %w", domain, err)
	}
	keyPEM, err := base64.StdEncoding.DecodeString(e.Key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("key of %s: %w", domain, err)
	}
	return tls.X509KeyPair(certPEM, keyPEM)
}

// findEntry looks up the certificate entry of domain in all resolvers
func findEntry(data []byte, domain string) (*entry, error) {
	obj, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	path, err := jp.ParseString(
		fmt.Sprintf(`$..Certificates[?(@.domain.main == %q)]`, domain))
	if err != nil {
		return nil, err
	}
	res := path.Get(obj)
	if len(res) == 0 {
		return nil, fmt.Errorf("%s: %w", domain, ErrDomainNotFound)
	}
	ret := &entry{}
	if err := oj.Unmarshal([]byte(oj.JSON(res[0])), ret); err != nil {
		return nil, err
	}
	return ret, nil
}
