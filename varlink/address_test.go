package varlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		address string
		want    Address
		network string
		str     string
	}{
		{
			address: "tcp:127.0.0.1:12345",
			want:    Address{Kind: KindTCP, Host: "127.0.0.1", Port: "12345"},
			network: "tcp",
			str:     "127.0.0.1:12345",
		},
		{
			address: "unix:/run/org.example.ping",
			want:    Address{Kind: KindUnix, Path: "/run/org.example.ping"},
			network: "unix",
			str:     "/run/org.example.ping",
		},
		{
			address: "unix:@org.example.ping",
			want:    Address{Kind: KindUnixAbstract, Path: "org.example.ping"},
			network: "unix",
			str:     "@org.example.ping",
		},
		{
			// parameters after ';' are ignored
			address: "unix:/run/org.example.ping;mode=0600",
			want:    Address{Kind: KindUnix, Path: "/run/org.example.ping"},
			network: "unix",
			str:     "/run/org.example.ping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			got, err := ParseAddress(tt.address)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.network, got.Network())
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestParseAddressInvalid(t *testing.T) {
	for _, address := range []string{
		"",
		"noscheme",
		"udp:127.0.0.1:12345",
		"tcp:noport",
		"unix:",
		"unix:@",
	} {
		t.Run(address, func(t *testing.T) {
			_, err := ParseAddress(address)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}
