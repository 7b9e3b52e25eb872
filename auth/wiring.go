package auth

import (
	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/securestore"
	"github.com/jrsteele09/go-auth-client/session"
)

// Connect builds the whole client stack against baseURL: a fresh session
// state, the request coordinator, the remote operations and the orchestrator,
// with the coordinator's refresh hooks pointed at the orchestrator.
func Connect(baseURL string, store securestore.Store, clientOptions []apiclient.Option, options ...ServiceOption) (*Service, *apiclient.Client, error) {
	state := session.New()
	client := apiclient.New(baseURL, state, store, clientOptions...)
	remote := authapi.New(client)

	svc, err := NewService(Deps{State: state, Store: store, Remote: remote}, options...)
	if err != nil {
		return nil, nil, err
	}
	client.SetRefresher(remote)
	client.SetSessionHandler(svc)
	return svc, client, nil
}
