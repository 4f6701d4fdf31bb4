// Package client holds the relying parties allowed to start journeys, loaded
// from a YAML file at startup.
package client

import (
	"crypto"
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	jwttoken "f2f-cri/internal/jwt_token"
	"f2f-cri/pkg/platform/sentinel"
)

// Client is one registered relying party.
type Client struct {
	ID           string `yaml:"client_id"`
	RedirectURI  string `yaml:"redirect_uri"`
	PublicKeyPEM string `yaml:"public_key"`
	// Audience overrides the issuer as the expected aud of the client's JWTs.
	Audience string `yaml:"audience,omitempty"`

	PublicKey crypto.PublicKey `yaml:"-"`
}

type file struct {
	Clients []Client `yaml:"clients"`
}

// Registry is read-only after construction.
type Registry struct {
	clients map[string]*Client
}

func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clients file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a clients document. Every client needs an id,
// an absolute redirect uri and a parseable public key.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode clients file: %w", err)
	}

	r := &Registry{clients: make(map[string]*Client, len(f.Clients))}
	for i := range f.Clients {
		c := f.Clients[i]
		if c.ID == "" {
			return nil, fmt.Errorf("client %d: client_id is required", i)
		}
		if _, dup := r.clients[c.ID]; dup {
			return nil, fmt.Errorf("client %s: registered twice", c.ID)
		}
		u, err := url.Parse(c.RedirectURI)
		if err != nil || !u.IsAbs() {
			return nil, fmt.Errorf("client %s: redirect_uri must be absolute", c.ID)
		}
		key, err := jwttoken.ParsePublicKeyPEM(c.PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("client %s: %w", c.ID, err)
		}
		c.PublicKey = key
		r.clients[c.ID] = &c
	}
	if len(r.clients) == 0 {
		return nil, errors.New("clients file registers no clients")
	}
	return r, nil
}

func (r *Registry) Get(id string) (*Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("client %q: %w", id, sentinel.ErrNotFound)
	}
	return c, nil
}

// AudienceOr returns the client's configured audience, or fallback.
func (c *Client) AudienceOr(fallback string) string {
	if c.Audience != "" {
		return c.Audience
	}
	return fallback
}
