// Package grantlist implements a flat access rights control. Each credential
// maps to a set of rules, and each rule to the list of identities that were
// granted it. The permissions are stored in the snapshot as JSON so they
// survive across executions.
package grantlist

import (
	"encoding/json"
	"sort"

	"github.com/kai-tanaka-dev/SecretSphere/core/access"
	"github.com/kai-tanaka-dev/SecretSphere/core/store"
	"golang.org/x/xerrors"
)

// Permission maps a rule to the marshaled identities granted for it.
type Permission map[string][]string

// Service is an access service backed by stored grant lists.
//
// - implements access.Service
type Service struct{}

// NewService creates a new grant list service.
func NewService() Service {
	return Service{}
}

// Match implements access.Service. It returns nil when every identity of the
// group was granted the rule of the credential.
func (srvc Service) Match(store store.Readable, creds access.Credential, idents ...access.Identity) error {
	perm, err := loadPermission(store, creds.GetID())
	if err != nil {
		return xerrors.Errorf("failed to load permission: %v", err)
	}

	granted := perm[creds.GetRule()]

	for _, ident := range idents {
		text, err := ident.MarshalText()
		if err != nil {
			return xerrors.Errorf("failed to marshal identity: %v", err)
		}

		if !contains(granted, string(text)) {
			return xerrors.Errorf("rule '%s' is not granted to %s",
				creds.GetRule(), text)
		}
	}

	return nil
}

// Grant implements access.Service. It updates or creates the credential and
// grants the rule to the group of identities.
func (srvc Service) Grant(snap store.Snapshot, creds access.Credential, idents ...access.Identity) error {
	perm, err := loadPermission(snap, creds.GetID())
	if err != nil {
		return xerrors.Errorf("failed to load permission: %v", err)
	}

	granted := perm[creds.GetRule()]

	for _, ident := range idents {
		text, err := ident.MarshalText()
		if err != nil {
			return xerrors.Errorf("failed to marshal identity: %v", err)
		}

		if !contains(granted, string(text)) {
			granted = append(granted, string(text))
		}
	}

	sort.Strings(granted)
	perm[creds.GetRule()] = granted

	value, err := json.Marshal(perm)
	if err != nil {
		return xerrors.Errorf("failed to marshal permission: %v", err)
	}

	err = snap.Set(creds.GetID(), value)
	if err != nil {
		return xerrors.Errorf("failed to store permission: %v", err)
	}

	return nil
}

func loadPermission(store store.Readable, id []byte) (Permission, error) {
	value, err := store.Get(id)
	if err != nil {
		return nil, xerrors.Errorf("store failed: %v", err)
	}

	perm := Permission{}

	if len(value) > 0 {
		err = json.Unmarshal(value, &perm)
		if err != nil {
			return nil, xerrors.Errorf("failed to unmarshal permission: %v", err)
		}
	}

	return perm, nil
}

func contains(list []string, item string) bool {
	for _, value := range list {
		if value == item {
			return true
		}
	}

	return false
}
