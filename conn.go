package pgc

import (
	"context"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/vireodb/pgc/pgproto"
	"github.com/vireodb/pgc/pgtype"
	"github.com/vireodb/pgc/stmtcache"
)

const (
	connStatusUninitialized = iota
	connStatusClosed
	connStatusIdle
	connStatusBusy
)

// ErrNotificationTimeout occurs when WaitForNotification times out.
var ErrNotificationTimeout = errors.New("notification timeout")

// Notification is a message received from the PostgreSQL LISTEN/NOTIFY
// system.
type Notification struct {
	PID     uint32 // backend pid that sent the notification
	Channel string // channel from which notification was received
	Payload string
}

// Conn is a PostgreSQL connection handle. It is not safe for concurrent
// usage without external synchronization; the sole exception is
// CancelRequest, which uses a separate connection.
type Conn struct {
	conn          net.Conn // the underlying TCP or unix domain socket connection
	frontend      *pgproto.Frontend
	config        *ConnConfig
	pid           uint32 // backend pid
	secretKey     uint32 // key to use to send a cancel query message to the server
	runtimeParams map[string]string
	txStatus      byte

	connInfo       *pgtype.ConnInfo
	statementCache *stmtcache.Cache

	notifications []*Notification
	notices       []*Notice

	status       byte
	causeOfDeath error

	pendingReadyForQueryCount int

	curTx *Tx

	logger   Logger
	logLevel LogLevel
}

// Connect establishes a connection with a PostgreSQL server using the
// connection string format described at ParseConfig.
func Connect(ctx context.Context, connString string) (*Conn, error) {
	config, err := ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	return ConnectConfig(ctx, config)
}

// ConnectConfig establishes a connection with a PostgreSQL server using
// config. config must have been created by ParseConfig or be a zero-value
// filled in manually; defaults are applied for missing fields.
func ConnectConfig(ctx context.Context, config *ConnConfig) (c *Conn, err error) {
	if err := config.assignDefaults(); err != nil {
		return nil, err
	}

	c = &Conn{
		config:         config,
		logger:         config.Logger,
		logLevel:       config.LogLevel,
		runtimeParams:  make(map[string]string),
		connInfo:       pgtype.NewConnInfo(),
		statementCache: stmtcache.New(),
	}

	if c.shouldLog(LogLevelInfo) {
		c.log(ctx, LogLevelInfo, "dialing server", map[string]interface{}{"host": config.Host, "port": config.Port})
	}

	network, address := config.networkAddress()
	c.conn, err = config.DialFunc(ctx, network, address)
	if err != nil {
		return nil, err
	}

	// A failed return sets the named result c to nil before this cleanup
	// runs, so it works on its own reference to the connection.
	pending := c
	defer func() {
		if err != nil {
			pending.conn.Close()
			pending.status = connStatusClosed
			pending.causeOfDeath = err
		}
	}()

	if network != "unix" && config.SSLMode != SSLModeNone {
		if err = c.startTLS(); err != nil {
			return nil, err
		}
	}

	c.frontend = pgproto.NewFrontend(c.conn, c.conn)
	c.status = connStatusBusy

	startupMsg := pgproto.StartupMessage{
		ProtocolVersion: pgproto.ProtocolVersionNumber,
		Parameters:      make(map[string]string),
	}

	// Copy default run-time params
	for k, v := range config.RuntimeParams {
		startupMsg.Parameters[k] = v
	}

	startupMsg.Parameters["user"] = config.User
	if config.Database != "" {
		startupMsg.Parameters["database"] = config.Database
	}

	c.frontend.Send(&startupMsg)
	if err = c.frontend.Flush(); err != nil {
		return nil, err
	}

	for {
		var msg pgproto.BackendMessage
		msg, err = c.receiveMessage()
		if err != nil {
			return nil, err
		}

		switch msg := msg.(type) {
		case *pgproto.BackendKeyData:
			c.pid = msg.ProcessID
			c.secretKey = msg.SecretKey
		case *pgproto.AuthenticationOk:
		case *pgproto.AuthenticationCleartextPassword:
			if err = c.txPasswordMessage(config.Password); err != nil {
				return nil, err
			}
		case *pgproto.AuthenticationMD5Password:
			digestedPassword := "md5" + hexMD5(hexMD5(config.Password+config.User)+string(msg.Salt[:]))
			if err = c.txPasswordMessage(digestedPassword); err != nil {
				return nil, err
			}
		case *pgproto.AuthenticationSASL:
			if err = c.scramAuth(msg.AuthMechanisms); err != nil {
				return nil, err
			}
		case *pgproto.AuthenticationKerberosV5:
			err = &UnsupportedAuthError{Type: pgproto.AuthTypeKerberosV5}
			return nil, err
		case *pgproto.AuthenticationSCMCredential:
			err = &UnsupportedAuthError{Type: pgproto.AuthTypeSCMCreds}
			return nil, err
		case *pgproto.AuthenticationGSS:
			err = &UnsupportedAuthError{Type: pgproto.AuthTypeGSS}
			return nil, err
		case *pgproto.AuthenticationSSPI:
			err = &UnsupportedAuthError{Type: pgproto.AuthTypeSSPI}
			return nil, err
		case *pgproto.ReadyForQuery:
			c.status = connStatusIdle
			if c.shouldLog(LogLevelInfo) {
				c.log(ctx, LogLevelInfo, "connection established", nil)
			}
			return c, nil
		case *pgproto.ParameterStatus, *pgproto.NoticeResponse:
			// handled by receiveMessage
		case *pgproto.ErrorResponse:
			err = errorResponseToPgError(msg)
			return nil, err
		default:
			err = ProtocolError("unexpected message during startup")
			return nil, err
		}
	}
}

func (c *Conn) startTLS() error {
	if _, err := c.conn.Write((&pgproto.SSLRequest{}).Encode(nil)); err != nil {
		return err
	}

	response := make([]byte, 1)
	if _, err := io.ReadFull(c.conn, response); err != nil {
		return err
	}

	switch response[0] {
	case 'S':
	case 'N':
		if c.config.SSLMode == SSLModeRequire {
			return ErrTLSRefused
		}
		return nil
	default:
		return ProtocolError("server response to SSL request was neither S nor N")
	}

	tlsConfig := c.config.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	c.conn = tls.Client(c.conn, tlsConfig)

	return nil
}

func (c *Conn) txPasswordMessage(password string) error {
	c.frontend.Send(&pgproto.PasswordMessage{Password: password})
	return c.frontend.Flush()
}

func hexMD5(s string) string {
	hash := md5.New()
	io.WriteString(hash, s)
	return hex.EncodeToString(hash.Sum(nil))
}

// Close closes a connection. It is safe to call Close on an already closed
// connection.
func (c *Conn) Close(ctx context.Context) error {
	if c.status == connStatusClosed || c.status == connStatusUninitialized {
		return nil
	}
	c.status = connStatusClosed
	c.causeOfDeath = errors.New("Closed")

	c.frontend.Send(&pgproto.Terminate{})
	c.frontend.Flush()

	if c.shouldLog(LogLevelInfo) {
		c.log(ctx, LogLevelInfo, "closed connection", nil)
	}

	return c.conn.Close()
}

// IsAlive reports whether the connection is usable.
func (c *Conn) IsAlive() bool {
	return c.status >= connStatusIdle
}

// CauseOfDeath returns the error that killed the connection, if any.
func (c *Conn) CauseOfDeath() error {
	return c.causeOfDeath
}

// PID returns the backend PID for this connection.
func (c *Conn) PID() uint32 {
	return c.pid
}

// TxStatus returns the transaction status indicator from the most recent
// ReadyForQuery: 'I' idle, 'T' in transaction, 'E' in failed transaction.
func (c *Conn) TxStatus() byte {
	return c.txStatus
}

// ParameterStatus returns the value of a parameter reported by the server
// (e.g. server_version). Returns an empty string for unknown parameters.
func (c *Conn) ParameterStatus(key string) string {
	return c.runtimeParams[key]
}

// ConnInfo returns the connection's type registry. Registering a DataType
// on it affects only this connection.
func (c *Conn) ConnInfo() *pgtype.ConnInfo {
	return c.connInfo
}

func (c *Conn) lock() error {
	switch c.status {
	case connStatusBusy:
		return ErrConnBusy
	case connStatusClosed, connStatusUninitialized:
		return ErrDeadConn
	}
	c.status = connStatusBusy
	return nil
}

func (c *Conn) unlock() {
	if c.status == connStatusBusy {
		c.status = connStatusIdle
	}
}

func (c *Conn) die(err error) {
	if c.status == connStatusClosed {
		return
	}
	c.status = connStatusClosed
	c.causeOfDeath = err
	c.conn.Close()
}

// convertReceiveError classifies and records a receive failure. Transport
// errors are kept as-is; anything else means the byte stream is no longer
// trustworthy and becomes a ProtocolError. Either way the connection is
// dead.
func (c *Conn) convertReceiveError(err error) error {
	var netErr net.Error
	if !errors.As(err, &netErr) && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		err = ProtocolError(err.Error())
	}
	c.die(err)
	return err
}

// receiveMessage receives a message and siphons off the messages that are
// not specific to the operation in flight: parameter statuses, notices and
// notifications are recorded; a FATAL error response kills the connection.
func (c *Conn) receiveMessage() (pgproto.BackendMessage, error) {
	msg, err := c.frontend.Receive()
	if err != nil {
		return nil, c.convertReceiveError(err)
	}
	c.absorbMessage(msg)

	if msg, ok := msg.(*pgproto.ErrorResponse); ok && msg.Severity == "FATAL" {
		err := errorResponseToPgError(msg)
		c.die(err)
		return nil, err
	}

	return msg, nil
}

func (c *Conn) absorbMessage(msg pgproto.BackendMessage) {
	switch msg := msg.(type) {
	case *pgproto.ReadyForQuery:
		// pendingReadyForQueryCount is zero on the initial connection.
		if c.pendingReadyForQueryCount > 0 {
			c.pendingReadyForQueryCount--
		}
		c.txStatus = msg.TxStatus
	case *pgproto.ParameterStatus:
		c.runtimeParams[msg.Name] = msg.Value
	case *pgproto.NoticeResponse:
		c.notices = append(c.notices, noticeResponseToNotice(msg))
	case *pgproto.NotificationResponse:
		c.notifications = append(c.notifications, &Notification{PID: msg.PID, Channel: msg.Channel, Payload: msg.Payload})
	}
}

// processContextFreeMsg handles messages whose response is the same
// regardless of when they occur.
func (c *Conn) processContextFreeMsg(msg pgproto.BackendMessage) error {
	switch msg := msg.(type) {
	case *pgproto.ErrorResponse:
		return errorResponseToPgError(msg)
	case *pgproto.ParameterStatus, *pgproto.NoticeResponse, *pgproto.NotificationResponse:
		// absorbed by receiveMessage
		return nil
	default:
		return ProtocolError("received unexpected message")
	}
}

// Notifications drains and returns the buffered notifications in the order
// they were received.
func (c *Conn) Notifications() []*Notification {
	notifications := c.notifications
	c.notifications = nil
	return notifications
}

// Notices drains and returns the buffered notices in the order they were
// received.
func (c *Conn) Notices() []*Notice {
	notices := c.notices
	c.notices = nil
	return notices
}

// Listen establishes a PostgreSQL listen/notify subscription to channel.
func (c *Conn) Listen(ctx context.Context, channel string) error {
	_, err := c.Exec(ctx, "listen "+QuoteIdentifier(channel))
	return err
}

// Unlisten removes a listen/notify subscription from channel.
func (c *Conn) Unlisten(ctx context.Context, channel string) error {
	_, err := c.Exec(ctx, "unlisten "+QuoteIdentifier(channel))
	return err
}

// WaitForNotification blocks until a notification is received or the
// context deadline passes. A deadline expiry returns
// ErrNotificationTimeout and leaves the connection usable.
func (c *Conn) WaitForNotification(ctx context.Context) (*Notification, error) {
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.unlock()

	if len(c.notifications) > 0 {
		notification := c.notifications[0]
		c.notifications = c.notifications[1:]
		return notification, nil
	}

	var zeroTime time.Time
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		defer c.conn.SetReadDeadline(zeroTime)
	}

	for {
		msg, err := c.frontend.Receive()
		if err != nil {
			// A read deadline expiry does not corrupt the stream: the
			// frontend resumes a partially received message on the next
			// Receive.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, ErrNotificationTimeout
			}
			return nil, c.convertReceiveError(err)
		}
		c.absorbMessage(msg)

		if len(c.notifications) > 0 {
			notification := c.notifications[0]
			c.notifications = c.notifications[1:]
			return notification, nil
		}
	}
}

// CancelRequest sends a cancel request to the server. It returns an error
// if the request could not be delivered, but lack of an error does not
// guarantee the in-flight query was canceled. This is the only method that
// may be called concurrently with other methods: it opens its own
// short-lived connection.
func (c *Conn) CancelRequest(ctx context.Context) error {
	network, address := c.config.networkAddress()
	cancelConn, err := c.config.DialFunc(ctx, network, address)
	if err != nil {
		return err
	}
	defer cancelConn.Close()

	buf := (&pgproto.CancelRequest{ProcessID: c.pid, SecretKey: c.secretKey}).Encode(nil)
	_, err = cancelConn.Write(buf)
	if err != nil {
		return err
	}

	// The server closes the connection without a reply.
	cancelConn.Read(make([]byte, 1))

	return nil
}

// QuoteIdentifier escapes and quotes an SQL identifier.
func QuoteIdentifier(input string) string {
	return `"` + strings.Replace(input, `"`, `""`, -1) + `"`
}
