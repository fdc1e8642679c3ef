//go:build tools
// +build tools

package main

// mockery is used as an installed binary (not via go run), so it needs no import here.

import (
	_ "github.com/golang/mock/mockgen"
)
