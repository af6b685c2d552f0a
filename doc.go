// Package main provides the entry point of authgate, a token based
// authentication and authorization service. It issues signed JWTs at login,
// rebuilds the caller's principal with its roles and permissions on every
// request and checks each route against the required authority. Users, roles
// and a hierarchical permission tree are managed through a JSON REST API
// served with fiber and persisted with gorm.
package main
