// Package oauth2 holds the protocol error taxonomy shared by the
// authorization server, the resource server, and the grant strategies.
//
// The servers themselves live in the server package; the persistence contract
// in storage; the shipped relational backend in store.
package oauth2
