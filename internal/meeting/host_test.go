package meeting

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowList(t *testing.T) {
	allow := NewAllowList(false, []string{" h1 ", "", "h2"})
	require.True(t, allow.Allows("h1"))
	require.True(t, allow.Allows("h2"))
	require.False(t, allow.Allows("u1"))
	require.False(t, allow.Allows(""))

	all := NewAllowList(true, nil)
	require.True(t, all.Allows("anyone"))
	require.False(t, all.Allows(""))
}

func TestHostPolicy_Authorize(t *testing.T) {
	allow := NewAllowList(false, []string{"h1"})

	tests := []struct {
		name   string
		policy HostPolicy
		cred   Credential
		allow  AllowList
		want   error
	}{
		{"shared secret match", SharedSecretHost("k"), Credential{HostKey: "k"}, allow, nil},
		{"shared secret mismatch", SharedSecretHost("k"), Credential{HostKey: "x"}, allow, ErrForbidden},
		{"shared secret empty", SharedSecretHost("k"), Credential{}, allow, ErrForbidden},
		{"allow list host", AllowListHost("h1"), Credential{UserID: "h1"}, allow, nil},
		{"allow list stranger", AllowListHost("h1"), Credential{UserID: "u1"}, allow, ErrForbidden},
		{"allow list revoked", AllowListHost("h1"), Credential{UserID: "h1"}, NewAllowList(false, nil), ErrHostRevoked},
		{"unset", HostPolicy{}, Credential{UserID: "h1", HostKey: "k"}, allow, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Authorize(tt.cred, tt.allow)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHostPolicy_ClaimLatchesFirstCredential(t *testing.T) {
	allow := NewAllowList(false, []string{"h1", "h2"})

	var secret HostPolicy
	require.True(t, secret.Claim(Credential{HostKey: "k1"}, allow))
	require.Equal(t, SharedSecretHost("k1"), secret)
	require.False(t, secret.Claim(Credential{HostKey: "k2"}, allow))
	require.False(t, secret.Claim(Credential{UserID: "h1"}, allow))
	require.True(t, secret.Claim(Credential{HostKey: "k1"}, allow))

	var listed HostPolicy
	require.False(t, listed.Claim(Credential{UserID: "u1"}, allow))
	require.Equal(t, HostModeUnset, listed.Mode)
	require.True(t, listed.Claim(Credential{UserID: "h1"}, allow))
	require.False(t, listed.Claim(Credential{UserID: "h2"}, allow))
	require.Equal(t, "h1", listed.UserID)
}

func TestHostPolicy_ClaimFallsBackWhenHostRevoked(t *testing.T) {
	policy := AllowListHost("h1")
	narrowed := NewAllowList(false, []string{"h2"})

	require.False(t, policy.Claim(Credential{UserID: "h1"}, narrowed))
	require.False(t, policy.Claim(Credential{UserID: "u1"}, narrowed))
	require.True(t, policy.Claim(Credential{UserID: "h2"}, narrowed))
	require.Equal(t, "h2", policy.UserID)
}

func TestErrorCodes(t *testing.T) {
	require.Equal(t, "host_revoked", CodeOf(ErrHostRevoked))
	require.Equal(t, KindForbidden, KindOf(ErrHostRevoked))
	require.Equal(t, "internal_error", CodeOf(errBoom))
	require.Zero(t, KindOf(errBoom))
}
