package pgproto

import (
	"errors"

	"github.com/jackc/pgio"
)

const sslRequestNumber = 80877103 // 0x04D2162F

// SSLRequest is the untagged frame that asks the server to switch to TLS
// before the startup message is sent. The server answers with a single
// byte, 'S' or 'N'.
type SSLRequest struct{}

func (*SSLRequest) Frontend() {}

func (dst *SSLRequest) Decode(src []byte) error {
	if len(src) != 4 {
		return errors.New("ssl request wrong size")
	}
	return nil
}

func (src *SSLRequest) Encode(dst []byte) []byte {
	dst = pgio.AppendInt32(dst, 8)
	dst = pgio.AppendInt32(dst, sslRequestNumber)
	return dst
}
