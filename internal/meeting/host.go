package meeting

import (
	"crypto/subtle"
	"strings"
)

// HostMode tags which authorization scheme a session uses. It is fixed by the
// first credential a session sees and never changes afterwards.
type HostMode string

const (
	HostModeUnset        HostMode = ""
	HostModeSharedSecret HostMode = "shared_secret"
	HostModeAllowList    HostMode = "allow_list"
)

// HostPolicy is SharedSecret(Key) or AllowList(UserID). UserID may be empty in
// allow-list mode until the first allow-listed identity claims the room.
type HostPolicy struct {
	Mode   HostMode `json:"mode"`
	Key    string   `json:"key,omitempty"`
	UserID string   `json:"userId,omitempty"`
}

func SharedSecretHost(key string) HostPolicy {
	return HostPolicy{Mode: HostModeSharedSecret, Key: key}
}

func AllowListHost(userID string) HostPolicy {
	return HostPolicy{Mode: HostModeAllowList, UserID: userID}
}

// Credential is whatever a client presents to prove it is the host.
type Credential struct {
	UserID  string
	HostKey string
}

// AllowList is the process-wide host authorization policy.
type AllowList struct {
	AllowAll bool
	ids      map[string]struct{}
}

func NewAllowList(allowAll bool, ids []string) AllowList {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return AllowList{AllowAll: allowAll, ids: set}
}

func (a AllowList) Allows(userID string) bool {
	if userID == "" {
		return false
	}
	if a.AllowAll {
		return true
	}
	_, ok := a.ids[userID]
	return ok
}

// Authorize checks cred against the recorded host. In allow-list mode the
// recorded host must also still pass the global policy, so removing an id from
// the allow-list locks that host out of sessions it already owns.
func (p HostPolicy) Authorize(cred Credential, allow AllowList) error {
	switch p.Mode {
	case HostModeSharedSecret:
		if cred.HostKey != "" && subtle.ConstantTimeCompare([]byte(cred.HostKey), []byte(p.Key)) == 1 {
			return nil
		}
		return ErrForbidden
	case HostModeAllowList:
		if cred.UserID == "" || p.UserID == "" || cred.UserID != p.UserID {
			return ErrForbidden
		}
		if !allow.Allows(cred.UserID) {
			return ErrHostRevoked
		}
		return nil
	default:
		return ErrForbidden
	}
}

// Claim resolves host status for a realtime handshake and latches the host on
// first valid credential:
//   - unset: a host key fixes shared-secret mode with that key; otherwise an
//     allow-listed user id fixes allow-list mode with that user.
//   - shared-secret: only the latched key matches.
//   - allow-list: only the latched user matches. If the latched user has been
//     removed from the global allow-list, the next allow-listed user takes over.
//
// It reports whether cred is the host after the call.
func (p *HostPolicy) Claim(cred Credential, allow AllowList) bool {
	switch p.Mode {
	case HostModeUnset:
		if cred.HostKey != "" {
			*p = SharedSecretHost(cred.HostKey)
			return true
		}
		if allow.Allows(cred.UserID) {
			*p = AllowListHost(cred.UserID)
			return true
		}
		return false
	case HostModeAllowList:
		if p.UserID == "" || !allow.Allows(p.UserID) {
			if allow.Allows(cred.UserID) {
				p.UserID = cred.UserID
				return true
			}
			return false
		}
		return p.Authorize(cred, allow) == nil
	default:
		return p.Authorize(cred, allow) == nil
	}
}

// HostView is the host policy as exposed to clients, without the secret key.
type HostView struct {
	Mode   HostMode `json:"mode"`
	UserID string   `json:"userId,omitempty"`
}

func (p HostPolicy) View() HostView {
	return HostView{Mode: p.Mode, UserID: p.UserID}
}
