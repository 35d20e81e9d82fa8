// Package pgmock provides the ability to mock a PostgreSQL server.
package pgmock

import (
	"fmt"
	"io"
	"reflect"

	"github.com/vireodb/pgc/pgproto"
)

type Step interface {
	Step(*pgproto.Backend) error
}

type Script struct {
	Steps []Step
}

func (s *Script) Run(backend *pgproto.Backend) error {
	for _, step := range s.Steps {
		err := step.Step(backend)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Script) Step(backend *pgproto.Backend) error {
	return s.Run(backend)
}

type expectMessageStep struct {
	want pgproto.FrontendMessage
	any  bool
}

func (e *expectMessageStep) Step(backend *pgproto.Backend) error {
	msg, err := backend.Receive()
	if err != nil {
		return err
	}

	if e.any && reflect.TypeOf(msg) == reflect.TypeOf(e.want) {
		return nil
	}

	if !reflect.DeepEqual(msg, e.want) {
		return fmt.Errorf("msg => %#v, e.want => %#v", msg, e.want)
	}

	return nil
}

type expectStartupMessageStep struct {
	want *pgproto.StartupMessage
	any  bool
}

func (e *expectStartupMessageStep) Step(backend *pgproto.Backend) error {
	msg, err := backend.ReceiveStartupMessage()
	if err != nil {
		return err
	}

	if e.any {
		return nil
	}

	if !reflect.DeepEqual(msg, e.want) {
		return fmt.Errorf("msg => %#v, e.want => %#v", msg, e.want)
	}

	return nil
}

func ExpectMessage(want pgproto.FrontendMessage) Step {
	return expectMessage(want, false)
}

func ExpectAnyMessage(want pgproto.FrontendMessage) Step {
	return expectMessage(want, true)
}

func expectMessage(want pgproto.FrontendMessage, any bool) Step {
	if want, ok := want.(*pgproto.StartupMessage); ok {
		return &expectStartupMessageStep{want: want, any: any}
	}

	return &expectMessageStep{want: want, any: any}
}

type sendMessageStep struct {
	msg pgproto.BackendMessage
}

func (e *sendMessageStep) Step(backend *pgproto.Backend) error {
	backend.Send(e.msg)
	return backend.Flush()
}

func SendMessage(msg pgproto.BackendMessage) Step {
	return &sendMessageStep{msg: msg}
}

type setAuthTypeStep struct {
	authType uint32
}

func (e *setAuthTypeStep) Step(backend *pgproto.Backend) error {
	return backend.SetAuthType(e.authType)
}

// SetAuthType prepares the backend to decode the password-class ('p')
// messages that follow an authentication request.
func SetAuthType(authType uint32) Step {
	return &setAuthTypeStep{authType: authType}
}

type waitForCloseMessageStep struct{}

func (e *waitForCloseMessageStep) Step(backend *pgproto.Backend) error {
	for {
		msg, err := backend.Receive()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		} else if err != nil {
			return err
		}

		if _, ok := msg.(*pgproto.Terminate); ok {
			return nil
		}
	}
}

func WaitForClose() Step {
	return &waitForCloseMessageStep{}
}

func AcceptUnauthenticatedConnRequestSteps() []Step {
	return []Step{
		ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
		SendMessage(&pgproto.AuthenticationOk{}),
		SendMessage(&pgproto.BackendKeyData{ProcessID: 0, SecretKey: 0}),
		SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
	}
}
