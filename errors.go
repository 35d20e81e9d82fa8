package pgc

import (
	"errors"
	"fmt"

	"github.com/vireodb/pgc/pgproto"
	"github.com/vireodb/pgc/pgtype"
)

// PgError represents an error reported by the PostgreSQL server. See
// https://www.postgresql.org/docs/current/protocol-error-fields.html for
// detailed field description.
type PgError struct {
	Severity         string
	Code             string
	Message          string
	Detail           string
	Hint             string
	Position         int32
	InternalPosition int32
	InternalQuery    string
	Where            string
	SchemaName       string
	TableName        string
	ColumnName       string
	DataTypeName     string
	ConstraintName   string
	File             string
	Line             int32
	Routine          string
}

func (pe *PgError) Error() string {
	return pe.Severity + ": " + pe.Message + " (SQLSTATE " + pe.Code + ")"
}

// SQLState returns the SQLState of the error.
func (pe *PgError) SQLState() string {
	return pe.Code
}

// Notice represents a non-fatal message reported by the server. It has the
// same fields as PgError.
type Notice PgError

func errorResponseToPgError(msg *pgproto.ErrorResponse) *PgError {
	return &PgError{
		Severity:         msg.Severity,
		Code:             msg.Code,
		Message:          msg.Message,
		Detail:           msg.Detail,
		Hint:             msg.Hint,
		Position:         msg.Position,
		InternalPosition: msg.InternalPosition,
		InternalQuery:    msg.InternalQuery,
		Where:            msg.Where,
		SchemaName:       msg.SchemaName,
		TableName:        msg.TableName,
		ColumnName:       msg.ColumnName,
		DataTypeName:     msg.DataTypeName,
		ConstraintName:   msg.ConstraintName,
		File:             msg.File,
		Line:             msg.Line,
		Routine:          msg.Routine,
	}
}

func noticeResponseToNotice(msg *pgproto.NoticeResponse) *Notice {
	pgerr := errorResponseToPgError((*pgproto.ErrorResponse)(msg))
	return (*Notice)(pgerr)
}

// ProtocolError occurs when unexpected data is received from PostgreSQL.
// The connection is no longer usable afterwards.
type ProtocolError string

func (e ProtocolError) Error() string {
	return string(e)
}

var (
	// ErrDeadConn occurs on an attempt to use a dead connection.
	ErrDeadConn = errors.New("conn is dead")
	// ErrConnBusy occurs when the connection is busy (for example, in the
	// middle of reading query results) and another action is attempted.
	ErrConnBusy = errors.New("conn is busy")
	// ErrNoRows occurs when rows are expected but none are returned.
	ErrNoRows = errors.New("no rows in result set")
	// ErrBadResponse occurs when the response does not satisfy the
	// protocol contract for the operation in flight.
	ErrBadResponse = errors.New("bad response sequence")
	// ErrCopyNotSupported occurs when the server initiates a COPY
	// sub-protocol, which this client does not speak.
	ErrCopyNotSupported = errors.New("COPY is not supported")
	// ErrTLSRefused occurs when the connection attempt requires TLS and
	// the PostgreSQL server refuses to use TLS.
	ErrTLSRefused = errors.New("server refused TLS connection")
	// ErrTxClosed occurs on an attempt to use a transaction that has
	// already been committed or rolled back.
	ErrTxClosed = errors.New("tx is closed")
	// ErrTxActive occurs when an outer transaction handle is used while a
	// nested transaction is in progress.
	ErrTxActive = errors.New("nested tx is active")
	// ErrTxCommitRollback occurs when an error has occurred in a
	// transaction and Commit() is called. PostgreSQL accepts COMMIT on
	// aborted transactions, but it is treated as ROLLBACK.
	ErrTxCommitRollback = errors.New("commit unexpectedly resulted in rollback")
)

// UnsupportedAuthError occurs when the server requests an authentication
// method the client does not implement.
type UnsupportedAuthError struct {
	Type uint32
}

func (e *UnsupportedAuthError) Error() string {
	var method string
	switch e.Type {
	case pgproto.AuthTypeKerberosV5:
		method = "Kerberos V5"
	case pgproto.AuthTypeSCMCreds:
		method = "SCM credential"
	case pgproto.AuthTypeGSS:
		method = "GSS"
	case pgproto.AuthTypeSSPI:
		method = "SSPI"
	default:
		method = fmt.Sprintf("unknown (%d)", e.Type)
	}
	return fmt.Sprintf("unsupported authentication method: %s", method)
}

// WrongTypeError occurs when no codec connects a Go type with the
// PostgreSQL data type of a parameter or column.
type WrongTypeError = pgtype.WrongTypeError

// OutOfBoundsError occurs when a row column is accessed by an index or
// name that does not exist in the result set.
type OutOfBoundsError struct {
	Index int
	Len   int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("column index %d out of range 0..%d", e.Index, e.Len-1)
}

// ScanArgError wraps the error from decoding one column during Scan.
type ScanArgError struct {
	ColumnIndex int
	Err         error
}

func (e ScanArgError) Error() string {
	return fmt.Sprintf("can't scan into dest[%d]: %v", e.ColumnIndex, e.Err)
}

func (e ScanArgError) Unwrap() error {
	return e.Err
}
