// Package settings owns the generation service API key.
//
// A key is probed against the service before it is persisted; a rejected key
// never reaches the credential store or the client. On start the stored key is
// loaded and trusted, the same way a previously validated key would be.
package settings
