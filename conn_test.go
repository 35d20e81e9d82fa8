package pgc_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"

	"github.com/vireodb/pgc"
	"github.com/vireodb/pgc/internal/pgmock"
	"github.com/vireodb/pgc/pgproto"
)

func TestConnect(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{
		Steps: []pgmock.Step{
			pgmock.ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
			pgmock.SendMessage(&pgproto.AuthenticationOk{}),
			pgmock.SendMessage(&pgproto.ParameterStatus{Name: "server_version", Value: "14.2"}),
			pgmock.SendMessage(&pgproto.ParameterStatus{Name: "client_encoding", Value: "UTF8"}),
			pgmock.SendMessage(&pgproto.BackendKeyData{ProcessID: 4242, SecretKey: 99}),
			pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
			pgmock.WaitForClose(),
		},
	}

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	assert.True(t, conn.IsAlive())
	assert.Equal(t, uint32(4242), conn.PID())
	assert.Equal(t, byte('I'), conn.TxStatus())
	assert.Equal(t, "14.2", conn.ParameterStatus("server_version"))
	assert.Equal(t, "", conn.ParameterStatus("TimeZone"))

	require.NoError(t, conn.Close(ctx))
	assert.False(t, conn.IsAlive())

	requireScriptFinished(t, serverErrChan)
}

func TestConnectCleartextPassword(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{
		Steps: []pgmock.Step{
			pgmock.ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
			pgmock.SendMessage(&pgproto.AuthenticationCleartextPassword{}),
			pgmock.ExpectMessage(&pgproto.PasswordMessage{Password: "secret"}),
			pgmock.SendMessage(&pgproto.AuthenticationOk{}),
			pgmock.SendMessage(&pgproto.BackendKeyData{ProcessID: 1, SecretKey: 1}),
			pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
			pgmock.WaitForClose(),
		},
	}

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)
	conn.Close(ctx)

	requireScriptFinished(t, serverErrChan)
}

func TestConnectMD5Password(t *testing.T) {
	clearPGEnv(t)

	salt := [4]byte{'a', 'b', 'c', 'd'}

	hexMD5 := func(s string) string {
		hash := md5.Sum([]byte(s))
		return hex.EncodeToString(hash[:])
	}
	digested := "md5" + hexMD5(hexMD5("secret"+"jack")+string(salt[:]))

	script := &pgmock.Script{
		Steps: []pgmock.Step{
			pgmock.ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
			pgmock.SendMessage(&pgproto.AuthenticationMD5Password{Salt: salt}),
			pgmock.ExpectMessage(&pgproto.PasswordMessage{Password: digested}),
			pgmock.SendMessage(&pgproto.AuthenticationOk{}),
			pgmock.SendMessage(&pgproto.BackendKeyData{ProcessID: 1, SecretKey: 1}),
			pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
			pgmock.WaitForClose(),
		},
	}

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)
	conn.Close(ctx)

	requireScriptFinished(t, serverErrChan)
}

func TestConnectUnsupportedAuth(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{
		Steps: []pgmock.Step{
			pgmock.ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
			pgmock.SendMessage(&pgproto.AuthenticationKerberosV5{}),
		},
	}

	connString, _ := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pgc.Connect(ctx, connString)
	var authErr *pgc.UnsupportedAuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, uint32(pgproto.AuthTypeKerberosV5), authErr.Type)
}

func TestConnectServerError(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{
		Steps: []pgmock.Step{
			pgmock.ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
			pgmock.SendMessage(&pgproto.ErrorResponse{Severity: "FATAL", Code: "28P01", Message: `password authentication failed for user "jack"`}),
		},
	}

	connString, _ := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pgc.Connect(ctx, connString)
	var pgErr *pgc.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "28P01", pgErr.SQLState())
}

// TestConnectSCRAM implements the server half of the SCRAM-SHA-256
// exchange and verifies the client proof.
func TestConnectSCRAM(t *testing.T) {
	clearPGEnv(t)

	const password = "secret"
	salt := []byte("0123456789abcdef")
	const iterations = 4096

	ln, err := net.Listen("tcp", "127.0.0.1:")
	require.NoError(t, err)
	defer ln.Close()

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- func() error {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			defer conn.Close()
			conn.SetDeadline(time.Now().Add(5 * time.Second))

			backend := pgproto.NewBackend(conn, conn)
			if _, err := backend.ReceiveStartupMessage(); err != nil {
				return err
			}

			backend.Send(&pgproto.AuthenticationSASL{AuthMechanisms: []string{"SCRAM-SHA-256-PLUS", "SCRAM-SHA-256"}})
			if err := backend.Flush(); err != nil {
				return err
			}

			backend.SetAuthType(pgproto.AuthTypeSASL)
			msg, err := backend.Receive()
			if err != nil {
				return err
			}
			initial, ok := msg.(*pgproto.SASLInitialResponse)
			if !ok {
				return fmt.Errorf("expected SASLInitialResponse, got %T", msg)
			}
			if initial.AuthMechanism != "SCRAM-SHA-256" {
				return fmt.Errorf("unexpected mechanism %q", initial.AuthMechanism)
			}

			// client-first-message = "n,," client-first-message-bare
			clientFirstBare := bytes.TrimPrefix(initial.Data, []byte("n,,"))
			if !bytes.HasPrefix(clientFirstBare, []byte("n=,r=")) {
				return fmt.Errorf("malformed client-first-message %q", initial.Data)
			}
			clientNonce := string(clientFirstBare[len("n=,r="):])

			serverNonce := clientNonce + "srvnonce"
			serverFirst := fmt.Sprintf("r=%s,s=%s,i=%d", serverNonce, base64.StdEncoding.EncodeToString(salt), iterations)

			backend.Send(&pgproto.AuthenticationSASLContinue{Data: []byte(serverFirst)})
			if err := backend.Flush(); err != nil {
				return err
			}

			backend.SetAuthType(pgproto.AuthTypeSASLContinue)
			msg, err = backend.Receive()
			if err != nil {
				return err
			}
			final, ok := msg.(*pgproto.SASLResponse)
			if !ok {
				return fmt.Errorf("expected SASLResponse, got %T", msg)
			}

			clientFinal := string(final.Data)
			idx := strings.Index(clientFinal, ",p=")
			if idx == -1 {
				return fmt.Errorf("malformed client-final-message %q", clientFinal)
			}
			clientFinalWithoutProof := clientFinal[:idx]
			receivedProof := clientFinal[idx+len(",p="):]

			if clientFinalWithoutProof != "c=biws,r="+serverNonce {
				return fmt.Errorf("unexpected client-final-message-without-proof %q", clientFinalWithoutProof)
			}

			authMessage := string(clientFirstBare) + "," + serverFirst + "," + clientFinalWithoutProof
			saltedPassword := pbkdf2.Key([]byte(password), salt, iterations, 32, sha256.New)

			computeHMAC := func(key, msg []byte) []byte {
				mac := hmac.New(sha256.New, key)
				mac.Write(msg)
				return mac.Sum(nil)
			}

			clientKey := computeHMAC(saltedPassword, []byte("Client Key"))
			storedKey := sha256.Sum256(clientKey)
			clientSignature := computeHMAC(storedKey[:], []byte(authMessage))
			expectedProof := make([]byte, len(clientKey))
			for i := range clientKey {
				expectedProof[i] = clientKey[i] ^ clientSignature[i]
			}
			if receivedProof != base64.StdEncoding.EncodeToString(expectedProof) {
				return errors.New("client proof did not verify")
			}

			serverKey := computeHMAC(saltedPassword, []byte("Server Key"))
			serverSignature := computeHMAC(serverKey, []byte(authMessage))

			backend.Send(&pgproto.AuthenticationSASLFinal{Data: []byte("v=" + base64.StdEncoding.EncodeToString(serverSignature))})
			backend.Send(&pgproto.AuthenticationOk{})
			backend.Send(&pgproto.BackendKeyData{ProcessID: 1, SecretKey: 1})
			backend.Send(&pgproto.ReadyForQuery{TxStatus: 'I'})
			return backend.Flush()
		}()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connString := fmt.Sprintf("postgres://jack:%s@%s/mydb?sslmode=disable", password, ln.Addr().String())
	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)
	assert.True(t, conn.IsAlive())
	conn.Close(ctx)

	require.NoError(t, <-serverErrChan)
}

func TestNoticesAreBuffered(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{
		Steps: []pgmock.Step{
			pgmock.ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
			pgmock.SendMessage(&pgproto.AuthenticationOk{}),
			pgmock.SendMessage(&pgproto.NoticeResponse{Severity: "NOTICE", Code: "01000", Message: "something advisory"}),
			pgmock.SendMessage(&pgproto.BackendKeyData{ProcessID: 1, SecretKey: 1}),
			pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
			pgmock.WaitForClose(),
		},
	}

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	notices := conn.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "something advisory", notices[0].Message)
	assert.Empty(t, conn.Notices())

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestListenAndWaitForNotification(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{
		Steps: []pgmock.Step{
			pgmock.ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
			pgmock.SendMessage(&pgproto.AuthenticationOk{}),
			pgmock.SendMessage(&pgproto.BackendKeyData{ProcessID: 1, SecretKey: 1}),
			pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
			pgmock.ExpectMessage(&pgproto.Query{String: `listen "mychan"`}),
			pgmock.SendMessage(&pgproto.CommandComplete{CommandTag: "LISTEN"}),
			pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
			pgmock.SendMessage(&pgproto.NotificationResponse{PID: 55, Channel: "mychan", Payload: "hello"}),
			pgmock.WaitForClose(),
		},
	}

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	require.NoError(t, conn.Listen(ctx, "mychan"))

	notification, err := conn.WaitForNotification(ctx)
	require.NoError(t, err)
	assert.Equal(t, &pgc.Notification{PID: 55, Channel: "mychan", Payload: "hello"}, notification)

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestWaitForNotificationTimeout(t *testing.T) {
	clearPGEnv(t)

	script := &pgmock.Script{
		Steps: []pgmock.Step{
			pgmock.ExpectAnyMessage(&pgproto.StartupMessage{ProtocolVersion: pgproto.ProtocolVersionNumber, Parameters: map[string]string{}}),
			pgmock.SendMessage(&pgproto.AuthenticationOk{}),
			pgmock.SendMessage(&pgproto.BackendKeyData{ProcessID: 1, SecretKey: 1}),
			pgmock.SendMessage(&pgproto.ReadyForQuery{TxStatus: 'I'}),
			pgmock.WaitForClose(),
		},
	}

	connString, serverErrChan := runMockServer(t, script)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	waitCtx, waitCancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer waitCancel()

	_, err = conn.WaitForNotification(waitCtx)
	assert.ErrorIs(t, err, pgc.ErrNotificationTimeout)

	// The timeout must not poison the connection.
	assert.True(t, conn.IsAlive())

	conn.Close(ctx)
	requireScriptFinished(t, serverErrChan)
}

func TestCancelRequest(t *testing.T) {
	clearPGEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:")
	require.NoError(t, err)
	defer ln.Close()

	cancelRequests := make(chan *pgproto.CancelRequest, 1)
	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- func() error {
			// The session connection.
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			conn.SetDeadline(time.Now().Add(5 * time.Second))

			backend := pgproto.NewBackend(conn, conn)
			if _, err := backend.ReceiveStartupMessage(); err != nil {
				return err
			}
			backend.Send(&pgproto.AuthenticationOk{})
			backend.Send(&pgproto.BackendKeyData{ProcessID: 4242, SecretKey: 365})
			backend.Send(&pgproto.ReadyForQuery{TxStatus: 'I'})
			if err := backend.Flush(); err != nil {
				return err
			}

			// The cancellation connection.
			cancelConn, err := ln.Accept()
			if err != nil {
				return err
			}
			defer cancelConn.Close()
			cancelConn.SetDeadline(time.Now().Add(5 * time.Second))

			cancelBackend := pgproto.NewBackend(cancelConn, cancelConn)
			msg, err := cancelBackend.ReceiveStartupMessage()
			if err != nil {
				return err
			}
			cancelRequest, ok := msg.(*pgproto.CancelRequest)
			if !ok {
				return fmt.Errorf("expected CancelRequest, got %T", msg)
			}
			cancelRequests <- cancelRequest
			return nil
		}()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connString := fmt.Sprintf("postgres://jack@%s/mydb?sslmode=disable", ln.Addr().String())
	conn, err := pgc.Connect(ctx, connString)
	require.NoError(t, err)

	require.NoError(t, conn.CancelRequest(ctx))

	require.NoError(t, <-serverErrChan)
	cancelRequest := <-cancelRequests
	assert.Equal(t, uint32(4242), cancelRequest.ProcessID)
	assert.Equal(t, uint32(365), cancelRequest.SecretKey)
}
