// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoCredential indicates no usable OAuth credential exists for a workspace.
var ErrNoCredential = errors.New("no credential for workspace")
