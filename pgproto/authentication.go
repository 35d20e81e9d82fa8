package pgproto

import (
	"bytes"
	"encoding/binary"

	"github.com/jackc/pgio"
)

// Authentication request type constants. See src/include/libpq/pqcomm.h.
const (
	AuthTypeOk                = 0
	AuthTypeKerberosV5        = 2
	AuthTypeCleartextPassword = 3
	AuthTypeMD5Password       = 5
	AuthTypeSCMCreds          = 6
	AuthTypeGSS               = 7
	AuthTypeGSSCont           = 8
	AuthTypeSSPI              = 9
	AuthTypeSASL              = 10
	AuthTypeSASLContinue      = 11
	AuthTypeSASLFinal         = 12
)

// AuthenticationOk reports that no (further) authentication is required.
type AuthenticationOk struct{}

func (*AuthenticationOk) Backend() {}

func (dst *AuthenticationOk) Decode(src []byte) error {
	if len(src) != 4 {
		return &invalidMessageLenErr{messageType: "AuthenticationOk", expectedLen: 4, actualLen: len(src)}
	}
	if binary.BigEndian.Uint32(src) != AuthTypeOk {
		return &invalidMessageFormatErr{messageType: "AuthenticationOk"}
	}
	return nil
}

func (src *AuthenticationOk) Encode(dst []byte) []byte {
	dst = append(dst, 'R')
	dst = pgio.AppendInt32(dst, 8)
	dst = pgio.AppendUint32(dst, AuthTypeOk)
	return dst
}

// AuthenticationCleartextPassword requests the password in the clear.
type AuthenticationCleartextPassword struct{}

func (*AuthenticationCleartextPassword) Backend() {}

func (dst *AuthenticationCleartextPassword) Decode(src []byte) error {
	if len(src) != 4 {
		return &invalidMessageLenErr{messageType: "AuthenticationCleartextPassword", expectedLen: 4, actualLen: len(src)}
	}
	if binary.BigEndian.Uint32(src) != AuthTypeCleartextPassword {
		return &invalidMessageFormatErr{messageType: "AuthenticationCleartextPassword"}
	}
	return nil
}

func (src *AuthenticationCleartextPassword) Encode(dst []byte) []byte {
	dst = append(dst, 'R')
	dst = pgio.AppendInt32(dst, 8)
	dst = pgio.AppendUint32(dst, AuthTypeCleartextPassword)
	return dst
}

// AuthenticationMD5Password requests the password MD5-digested with the
// user name and the given salt.
type AuthenticationMD5Password struct {
	Salt [4]byte
}

func (*AuthenticationMD5Password) Backend() {}

func (dst *AuthenticationMD5Password) Decode(src []byte) error {
	if len(src) != 8 {
		return &invalidMessageLenErr{messageType: "AuthenticationMD5Password", expectedLen: 8, actualLen: len(src)}
	}
	if binary.BigEndian.Uint32(src) != AuthTypeMD5Password {
		return &invalidMessageFormatErr{messageType: "AuthenticationMD5Password"}
	}
	copy(dst.Salt[:], src[4:8])
	return nil
}

func (src *AuthenticationMD5Password) Encode(dst []byte) []byte {
	dst = append(dst, 'R')
	dst = pgio.AppendInt32(dst, 12)
	dst = pgio.AppendUint32(dst, AuthTypeMD5Password)
	dst = append(dst, src.Salt[:]...)
	return dst
}

// AuthenticationKerberosV5, AuthenticationSCMCredential, AuthenticationGSS
// and AuthenticationSSPI are decoded so the client can report the requested
// method; none of them is supported.

type AuthenticationKerberosV5 struct{}

func (*AuthenticationKerberosV5) Backend() {}

func (dst *AuthenticationKerberosV5) Decode(src []byte) error {
	if len(src) != 4 {
		return &invalidMessageLenErr{messageType: "AuthenticationKerberosV5", expectedLen: 4, actualLen: len(src)}
	}
	return nil
}

func (src *AuthenticationKerberosV5) Encode(dst []byte) []byte {
	dst = append(dst, 'R')
	dst = pgio.AppendInt32(dst, 8)
	dst = pgio.AppendUint32(dst, AuthTypeKerberosV5)
	return dst
}

type AuthenticationSCMCredential struct{}

func (*AuthenticationSCMCredential) Backend() {}

func (dst *AuthenticationSCMCredential) Decode(src []byte) error {
	if len(src) != 4 {
		return &invalidMessageLenErr{messageType: "AuthenticationSCMCredential", expectedLen: 4, actualLen: len(src)}
	}
	return nil
}

func (src *AuthenticationSCMCredential) Encode(dst []byte) []byte {
	dst = append(dst, 'R')
	dst = pgio.AppendInt32(dst, 8)
	dst = pgio.AppendUint32(dst, AuthTypeSCMCreds)
	return dst
}

type AuthenticationGSS struct{}

func (*AuthenticationGSS) Backend() {}

func (dst *AuthenticationGSS) Decode(src []byte) error {
	if len(src) != 4 {
		return &invalidMessageLenErr{messageType: "AuthenticationGSS", expectedLen: 4, actualLen: len(src)}
	}
	return nil
}

func (src *AuthenticationGSS) Encode(dst []byte) []byte {
	dst = append(dst, 'R')
	dst = pgio.AppendInt32(dst, 8)
	dst = pgio.AppendUint32(dst, AuthTypeGSS)
	return dst
}

type AuthenticationSSPI struct{}

func (*AuthenticationSSPI) Backend() {}

func (dst *AuthenticationSSPI) Decode(src []byte) error {
	if len(src) != 4 {
		return &invalidMessageLenErr{messageType: "AuthenticationSSPI", expectedLen: 4, actualLen: len(src)}
	}
	return nil
}

func (src *AuthenticationSSPI) Encode(dst []byte) []byte {
	dst = append(dst, 'R')
	dst = pgio.AppendInt32(dst, 8)
	dst = pgio.AppendUint32(dst, AuthTypeSSPI)
	return dst
}

// AuthenticationSASL starts SASL negotiation, advertising the mechanisms
// the server accepts in preference order.
type AuthenticationSASL struct {
	AuthMechanisms []string
}

func (*AuthenticationSASL) Backend() {}

func (dst *AuthenticationSASL) Decode(src []byte) error {
	if len(src) < 4 {
		return &invalidMessageFormatErr{messageType: "AuthenticationSASL"}
	}
	if binary.BigEndian.Uint32(src) != AuthTypeSASL {
		return &invalidMessageFormatErr{messageType: "AuthenticationSASL"}
	}
	rp := 4

	dst.AuthMechanisms = nil
	for len(src[rp:]) > 1 {
		idx := bytes.IndexByte(src[rp:], 0)
		if idx < 0 {
			return &invalidMessageFormatErr{messageType: "AuthenticationSASL"}
		}
		dst.AuthMechanisms = append(dst.AuthMechanisms, string(src[rp:rp+idx]))
		rp += idx + 1
	}

	return nil
}

func (src *AuthenticationSASL) Encode(dst []byte) []byte {
	dst = append(dst, 'R')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)
	dst = pgio.AppendUint32(dst, AuthTypeSASL)

	for _, s := range src.AuthMechanisms {
		dst = append(dst, s...)
		dst = append(dst, 0)
	}
	dst = append(dst, 0)

	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))

	return dst
}

// AuthenticationSASLContinue carries the server-first (and any subsequent)
// SASL challenge.
type AuthenticationSASLContinue struct {
	Data []byte
}

func (*AuthenticationSASLContinue) Backend() {}

func (dst *AuthenticationSASLContinue) Decode(src []byte) error {
	if len(src) < 4 {
		return &invalidMessageFormatErr{messageType: "AuthenticationSASLContinue"}
	}
	if binary.BigEndian.Uint32(src) != AuthTypeSASLContinue {
		return &invalidMessageFormatErr{messageType: "AuthenticationSASLContinue"}
	}
	dst.Data = src[4:]
	return nil
}

func (src *AuthenticationSASLContinue) Encode(dst []byte) []byte {
	dst = append(dst, 'R')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)
	dst = pgio.AppendUint32(dst, AuthTypeSASLContinue)
	dst = append(dst, src.Data...)
	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))
	return dst
}

// AuthenticationSASLFinal carries the server-final SASL message, which the
// client must verify before trusting AuthenticationOk.
type AuthenticationSASLFinal struct {
	Data []byte
}

func (*AuthenticationSASLFinal) Backend() {}

func (dst *AuthenticationSASLFinal) Decode(src []byte) error {
	if len(src) < 4 {
		return &invalidMessageFormatErr{messageType: "AuthenticationSASLFinal"}
	}
	if binary.BigEndian.Uint32(src) != AuthTypeSASLFinal {
		return &invalidMessageFormatErr{messageType: "AuthenticationSASLFinal"}
	}
	dst.Data = src[4:]
	return nil
}

func (src *AuthenticationSASLFinal) Encode(dst []byte) []byte {
	dst = append(dst, 'R')
	sp := len(dst)
	dst = pgio.AppendInt32(dst, -1)
	dst = pgio.AppendUint32(dst, AuthTypeSASLFinal)
	dst = append(dst, src.Data...)
	pgio.SetInt32(dst[sp:], int32(len(dst[sp:])))
	return dst
}
