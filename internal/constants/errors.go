package constants

import "errors"

// Configuration errors.
var (
	ErrNoTokenConfigured = errors.New("no API token configured, use 'linode config token' or set LINODE_TOKEN")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrEmptyToken        = errors.New("token must not be empty")
)

// Validation errors.
var (
	ErrInvalidSliceSyntax = errors.New("slice must be written as START:STOP")
	ErrInvalidOutput      = errors.New("output must be one of table, json, yaml")
	ErrNothingToUpdate    = errors.New("no attributes to update were given")
)
