package pgproto

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jackc/chunkreader/v2"
)

// Backend acts as a server for the PostgreSQL wire protocol version 3. It
// exists for test servers; the client side is Frontend.
type Backend struct {
	cr *chunkreader.ChunkReader
	w  io.Writer

	wbuf []byte

	// Frontend message flyweights
	bind            Bind
	_close          Close
	copyData        CopyData
	copyDone        CopyDone
	describe        Describe
	execute         Execute
	flush           Flush
	parse           Parse
	passwordMessage PasswordMessage
	query           Query
	saslInitial     SASLInitialResponse
	saslResponse    SASLResponse
	sync            Sync
	terminate       Terminate

	bodyLen    int
	msgType    byte
	partialMsg bool
	authType   uint32
}

// NewBackend creates a new Backend reading from r and writing to w.
func NewBackend(r io.Reader, w io.Writer) *Backend {
	return &Backend{cr: chunkreader.New(r), w: w}
}

// Send buffers a message. It is not guaranteed to be written until Flush is
// called.
func (b *Backend) Send(msg BackendMessage) {
	b.wbuf = msg.Encode(b.wbuf)
}

// Flush writes any pending messages to the frontend.
func (b *Backend) Flush() error {
	if len(b.wbuf) == 0 {
		return nil
	}

	_, err := b.w.Write(b.wbuf)
	b.wbuf = b.wbuf[:0]
	return err
}

// SetAuthType tells the Backend how to decode subsequent 'p' messages,
// which are used for PasswordMessage and the SASL responses alike.
func (b *Backend) SetAuthType(authType uint32) error {
	switch authType {
	case AuthTypeOk, AuthTypeCleartextPassword, AuthTypeMD5Password, AuthTypeSASL, AuthTypeSASLContinue, AuthTypeSASLFinal:
		b.authType = authType
	default:
		return fmt.Errorf("authType not implemented on server side: %d", authType)
	}

	return nil
}

// ReceiveStartupMessage receives the initial, untagged frame. It returns
// either a StartupMessage, an SSLRequest or a CancelRequest.
func (b *Backend) ReceiveStartupMessage() (FrontendMessage, error) {
	header, err := b.cr.Next(4)
	if err != nil {
		return nil, err
	}
	msgSize := int(binary.BigEndian.Uint32(header) - 4)

	if msgSize < 4 {
		return nil, fmt.Errorf("invalid startup message length: %d", msgSize+4)
	}

	buf, err := b.cr.Next(msgSize)
	if err != nil {
		return nil, err
	}

	code := binary.BigEndian.Uint32(buf)

	switch code {
	case ProtocolVersionNumber:
		startupMessage := &StartupMessage{}
		if err := startupMessage.Decode(buf); err != nil {
			return nil, err
		}
		return startupMessage, nil
	case sslRequestNumber:
		sslRequest := &SSLRequest{}
		if err := sslRequest.Decode(buf); err != nil {
			return nil, err
		}
		return sslRequest, nil
	case cancelRequestCode:
		cancelRequest := &CancelRequest{}
		if err := cancelRequest.Decode(buf); err != nil {
			return nil, err
		}
		return cancelRequest, nil
	default:
		return nil, fmt.Errorf("unknown startup message code: %d", code)
	}
}

// Receive receives a message from the frontend. The returned message is
// only valid until the next call to Receive.
func (b *Backend) Receive() (FrontendMessage, error) {
	if !b.partialMsg {
		header, err := b.cr.Next(5)
		if err != nil {
			return nil, translateEOFtoErrUnexpectedEOF(err)
		}

		b.msgType = header[0]

		msgLength := int(binary.BigEndian.Uint32(header[1:]))
		if msgLength < 4 {
			return nil, fmt.Errorf("invalid message length: %d", msgLength)
		}

		b.bodyLen = msgLength - 4
		b.partialMsg = true
	}

	msgBody, err := b.cr.Next(b.bodyLen)
	if err != nil {
		return nil, translateEOFtoErrUnexpectedEOF(err)
	}

	b.partialMsg = false

	var msg FrontendMessage
	switch b.msgType {
	case 'B':
		msg = &b.bind
	case 'C':
		msg = &b._close
	case 'c':
		msg = &b.copyDone
	case 'd':
		msg = &b.copyData
	case 'D':
		msg = &b.describe
	case 'E':
		msg = &b.execute
	case 'H':
		msg = &b.flush
	case 'P':
		msg = &b.parse
	case 'p':
		switch b.authType {
		case AuthTypeSASL:
			msg = &b.saslInitial
		case AuthTypeSASLContinue, AuthTypeSASLFinal:
			msg = &b.saslResponse
		default:
			msg = &b.passwordMessage
		}
	case 'Q':
		msg = &b.query
	case 'S':
		msg = &b.sync
	case 'X':
		msg = &b.terminate
	default:
		return nil, fmt.Errorf("unknown message type: %c", b.msgType)
	}

	err = msg.Decode(msgBody)
	if err != nil {
		return nil, err
	}

	return msg, nil
}
