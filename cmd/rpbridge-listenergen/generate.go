package main

import (
	"strings"
)

// GenerateListener renders the source file for one listener kind.
func GenerateListener(pkg string, def RawListenerDef) (string, error) {
	var b strings.Builder
	if err := renderTemplate(&b, "listener", listenerData{Package: pkg, RawListenerDef: def}); err != nil {
		return "", err
	}
	return b.String(), nil
}

// GenerateKinds renders the Kind enumeration and the New factory.
func GenerateKinds(f *RawListenerFile) (string, error) {
	var b strings.Builder
	if err := renderTemplate(&b, "kinds", f); err != nil {
		return "", err
	}
	return b.String(), nil
}

// listenerFileName returns "round_trip_gen.go" for "RoundTrip".
func listenerFileName(name string) string {
	return snakeCase(name) + "_gen.go"
}
