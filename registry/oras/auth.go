package oras

import (
	"context"
	"errors"
	"net"
	"strings"

	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

var errReadOnlyStore = errors.New("oras: static credential store is read-only")

// Docker Hub is stored under several names in Docker configurations.
var dockerHubAliases = []string{
	"https://index.docker.io/v1/",
	"index.docker.io",
	"registry-1.docker.io",
	"docker.io",
}

// DefaultCredentialStore reads credentials from the Docker configuration
// and its credential helpers.
func DefaultCredentialStore() (credentials.Store, error) {
	store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		return nil, err
	}
	return hubAwareStore{Store: store}, nil
}

// StaticCredentials returns a read-only store holding a username and
// password for one registry.
func StaticCredentials(registry, username, password string) credentials.Store {
	return staticStore{
		server: serverKey(registry),
		cred:   auth.Credential{Username: username, Password: password},
	}
}

// StaticToken returns a read-only store holding a bearer token for one
// registry.
func StaticToken(registry, token string) credentials.Store {
	return staticStore{
		server: serverKey(registry),
		cred:   auth.Credential{AccessToken: token},
	}
}

type staticStore struct {
	server string
	cred   auth.Credential
}

func (s staticStore) Get(_ context.Context, serverAddress string) (auth.Credential, error) {
	server := serverKey(serverAddress)
	if server == s.server || (isDockerHub(server) && isDockerHub(s.server)) {
		return s.cred, nil
	}
	return auth.EmptyCredential, nil
}

func (staticStore) Put(context.Context, string, auth.Credential) error {
	return errReadOnlyStore
}

func (staticStore) Delete(context.Context, string) error {
	return errReadOnlyStore
}

// hubAwareStore retries Docker Hub lookups under each of its aliases.
type hubAwareStore struct {
	credentials.Store
}

func (s hubAwareStore) Get(ctx context.Context, serverAddress string) (auth.Credential, error) {
	cred, err := s.Store.Get(ctx, serverAddress)
	if err == nil && !emptyCredential(cred) {
		return cred, nil
	}
	if isDockerHub(serverKey(serverAddress)) {
		for _, alias := range dockerHubAliases {
			if alias == serverAddress {
				continue
			}
			if c, aliasErr := s.Store.Get(ctx, alias); aliasErr == nil && !emptyCredential(c) {
				return c, nil
			}
		}
	}
	return cred, err
}

func isDockerHub(server string) bool {
	host := server
	if h, _, err := net.SplitHostPort(server); err == nil {
		host = h
	}
	switch host {
	case "docker.io", "index.docker.io", "registry-1.docker.io":
		return true
	}
	return false
}

// serverKey reduces a server address to host[:port].
func serverKey(addr string) string {
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimPrefix(addr, "http://")
	host, _, _ := strings.Cut(addr, "/")
	return host
}

func emptyCredential(cred auth.Credential) bool {
	return cred.Username == "" && cred.Password == "" && cred.AccessToken == "" && cred.RefreshToken == ""
}
