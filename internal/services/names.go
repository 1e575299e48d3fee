package services

import (
	dErrors "globaltrust/pkg/domain-errors"
)

// Name identifies one backend service. The set of names is closed.
type Name string

const (
	Identity     Name = "identity"
	Assets       Name = "assets"
	Marketplace  Name = "marketplace"
	Lending      Name = "lending"
	Verification Name = "verification"
)

// All lists every backend service in build order.
var All = []Name{Identity, Assets, Marketplace, Lending, Verification}

func (n Name) String() string {
	return string(n)
}

// Valid reports whether n is one of the known services.
func (n Name) Valid() bool {
	for _, known := range All {
		if n == known {
			return true
		}
	}
	return false
}

// ParseName validates a service name from user input.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown service: "+s)
	}
	return n, nil
}

// Endpoints maps each service to its endpoint id.
type Endpoints map[Name]string
