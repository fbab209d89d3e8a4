package ocistore

import (
	"fmt"
	"net/http"

	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"
)

const defaultUserAgent = "propbag/1.0"

// WithPlainHTTP enables plain HTTP (no TLS) for remote repositories.
// This is useful for local development registries.
func WithPlainHTTP(enabled bool) Option {
	return func(s *Store) {
		s.remote.plainHTTP = enabled
	}
}

// WithCredentialStore sets the credential store used to authenticate to
// remote repositories.
func WithCredentialStore(store credentials.Store) Option {
	return func(s *Store) {
		s.remote.credential = credentials.Credential(store)
	}
}

// WithStaticCredentials authenticates to registry with a username and password.
func WithStaticCredentials(registry, username, password string) Option {
	return func(s *Store) {
		s.remote.credential = auth.StaticCredential(registry, auth.Credential{
			Username: username,
			Password: password,
		})
	}
}

// WithDockerConfig reads credentials from ~/.docker/config.json.
// If the docker config cannot be loaded, no credentials are used.
func WithDockerConfig() Option {
	return func(s *Store) {
		store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
		if err != nil {
			return
		}
		s.remote.credential = credentials.Credential(store)
	}
}

// WithUserAgent sets the User-Agent header for remote requests.
func WithUserAgent(ua string) Option {
	return func(s *Store) {
		s.remote.userAgent = ua
	}
}

type remoteConfig struct {
	plainHTTP  bool
	userAgent  string
	credential auth.CredentialFunc
}

// NewRemote creates a Store backed by the remote repository ref, for example
// "registry.example.com/models/bags". Tags passed to PushTagged and
// FetchTagged are resolved within that repository.
func NewRemote(ref string, opts ...Option) (*Store, error) {
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}
	s := New(repo, opts...)

	userAgent := s.remote.userAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	repo.PlainHTTP = s.remote.plainHTTP
	repo.Client = &auth.Client{
		Client:     retry.DefaultClient,
		Cache:      auth.NewCache(),
		Credential: s.remote.credential,
		Header: http.Header{
			"User-Agent": []string{userAgent},
		},
	}
	return s, nil
}
