package pgc

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/vireodb/pgc/pgproto"
	"github.com/vireodb/pgc/pgtype"
	"github.com/vireodb/pgc/stmtcache"
)

// PreparedStatement describes a statement prepared on the server.
type PreparedStatement = stmtcache.Statement

// CommandTag is the status text returned by PostgreSQL for a query.
type CommandTag string

// RowsAffected returns the number of rows affected. If the CommandTag was
// not for a row affecting command (e.g. "CREATE TABLE") then it returns 0.
func (ct CommandTag) RowsAffected() int64 {
	idx := strings.LastIndexByte(string(ct), ' ')
	if idx == -1 {
		return 0
	}
	n, _ := strconv.ParseInt(string(ct)[idx+1:], 10, 64)
	return n
}

// Prepare creates a prepared statement for sql using the extended query
// protocol. sql can contain placeholders referenced positionally as $1,
// $2, etc. Statements are cached by their SQL text: preparing the same sql
// twice returns the same statement without additional round trips. The
// returned statement is valid until the connection is closed or the
// statement is deallocated.
func (c *Conn) Prepare(ctx context.Context, sql string) (*PreparedStatement, error) {
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.unlock()

	return c.prepare(ctx, sql)
}

// prepare must be called with the connection lock held.
func (c *Conn) prepare(ctx context.Context, sql string) (ps *PreparedStatement, err error) {
	if ps, ok := c.statementCache.Get(sql); ok {
		return ps, nil
	}

	defer func() {
		if err != nil && c.shouldLog(LogLevelError) {
			c.log(ctx, LogLevelError, "prepare failed", map[string]interface{}{"sql": sql, "err": err})
		}
	}()

	name := c.statementCache.NextStatementName()

	c.frontend.Send(&pgproto.Parse{Name: name, Query: sql})
	c.frontend.Send(&pgproto.Describe{ObjectType: 'S', Name: name})
	c.frontend.Send(&pgproto.Sync{})
	if err := c.frontend.Flush(); err != nil {
		c.die(err)
		return nil, err
	}
	c.pendingReadyForQueryCount++

	ps = &PreparedStatement{Name: name, SQL: sql}

	var softErr error

	for {
		msg, err := c.receiveMessage()
		if err != nil {
			return nil, err
		}

		switch msg := msg.(type) {
		case *pgproto.ParseComplete:
		case *pgproto.ParameterDescription:
			ps.ParameterOIDs = append([]uint32(nil), msg.ParameterOIDs...)
		case *pgproto.RowDescription:
			ps.FieldDescriptions = make([]pgproto.FieldDescription, len(msg.Fields))
			copy(ps.FieldDescriptions, msg.Fields)
			for i := range ps.FieldDescriptions {
				ps.FieldDescriptions[i].Format = c.connInfo.ResultFormatCodeForOID(pgtype.OID(ps.FieldDescriptions[i].DataTypeOID))
			}
		case *pgproto.NoData:
		case *pgproto.ErrorResponse:
			if softErr == nil {
				softErr = errorResponseToPgError(msg)
			}
		case *pgproto.ReadyForQuery:
			if softErr != nil {
				return nil, softErr
			}
			c.statementCache.Put(ps)
			return ps, nil
		default:
			if e := c.processContextFreeMsg(msg); e != nil && softErr == nil {
				softErr = e
			}
		}
	}
}

// Deallocate releases a prepared statement on the server and evicts it
// from the statement cache.
func (c *Conn) Deallocate(ctx context.Context, sql string) error {
	ps, ok := c.statementCache.Get(sql)
	if !ok {
		return nil
	}
	c.statementCache.Remove(sql)

	_, err := c.Exec(ctx, "deallocate "+QuoteIdentifier(ps.Name))
	return err
}

// Exec executes sql. When args are present sql is executed via the
// extended query protocol with the automatically prepared statement;
// otherwise the simple query protocol is used. The returned CommandTag
// reports the affected row count.
func (c *Conn) Exec(ctx context.Context, sql string, args ...interface{}) (CommandTag, error) {
	startTime := time.Now()

	commandTag, err := c.exec(ctx, sql, args...)

	if err != nil {
		if c.shouldLog(LogLevelError) {
			c.log(ctx, LogLevelError, "Exec", map[string]interface{}{"sql": sql, "args": logQueryArgs(args), "err": err})
		}
		return commandTag, err
	}

	if c.shouldLog(LogLevelInfo) {
		c.log(ctx, LogLevelInfo, "Exec", map[string]interface{}{"sql": sql, "args": logQueryArgs(args), "time": time.Since(startTime), "commandTag": commandTag})
	}

	return commandTag, nil
}

func (c *Conn) exec(ctx context.Context, sql string, args ...interface{}) (CommandTag, error) {
	if len(args) == 0 {
		return c.execSimple(ctx, sql)
	}

	rows, err := c.Query(ctx, sql, args...)
	if err != nil {
		return "", err
	}

	for rows.Next() {
	}

	return rows.CommandTag(), rows.Err()
}

// execSimple executes sql with the simple query protocol. sql may contain
// multiple statements separated by semicolons; they are processed inside a
// single implicit transaction.
func (c *Conn) execSimple(ctx context.Context, sql string) (commandTag CommandTag, err error) {
	if err := c.lock(); err != nil {
		return "", err
	}
	defer c.unlock()

	c.frontend.Send(&pgproto.Query{String: sql})
	if err := c.frontend.Flush(); err != nil {
		c.die(err)
		return "", err
	}
	c.pendingReadyForQueryCount++

	var softErr error

	for {
		msg, err := c.receiveMessage()
		if err != nil {
			return "", err
		}

		switch msg := msg.(type) {
		case *pgproto.ReadyForQuery:
			return commandTag, softErr
		case *pgproto.CommandComplete:
			commandTag = CommandTag(msg.CommandTag)
		case *pgproto.RowDescription, *pgproto.DataRow, *pgproto.EmptyQueryResponse:
		case *pgproto.CopyInResponse, *pgproto.CopyOutResponse, *pgproto.CopyBothResponse:
			err := ErrCopyNotSupported
			c.die(err)
			return "", err
		case *pgproto.ErrorResponse:
			if softErr == nil {
				softErr = errorResponseToPgError(msg)
			}
		default:
			if e := c.processContextFreeMsg(msg); e != nil && softErr == nil {
				softErr = e
			}
		}
	}
}

// QueryExOptions are options for QueryEx.
type QueryExOptions struct {
	// PortalName names the destination portal. The default is the unnamed
	// portal. Named or not, the portal is closed by the same
	// Bind/Execute/Close/Sync group that executes it, so it does not
	// outlive the query.
	PortalName string
}

// Query executes sql with args using the extended query protocol and
// returns a Rows iterator. The connection stays busy until the Rows is
// closed: either read it to completion or call Close before issuing
// another operation on the same connection.
func (c *Conn) Query(ctx context.Context, sql string, args ...interface{}) (*Rows, error) {
	return c.QueryEx(ctx, sql, nil, args...)
}

// QueryEx is Query with options.
func (c *Conn) QueryEx(ctx context.Context, sql string, options *QueryExOptions, args ...interface{}) (*Rows, error) {
	if err := c.lock(); err != nil {
		// Checking for errors can be deferred to the *Rows, so build one
		// carrying the error.
		return &Rows{closed: true, err: err}, err
	}

	rows := &Rows{conn: c, ctx: ctx, sql: sql, args: args, startTime: time.Now()}

	ps, err := c.prepare(ctx, sql)
	if err != nil {
		rows.fatal(err)
		return rows, err
	}
	rows.fields = ps.FieldDescriptions

	var portalName string
	if options != nil {
		portalName = options.PortalName
	}

	err = c.sendExecute(ps, portalName, args)
	if err != nil {
		rows.fatal(err)
		return rows, err
	}
	rows.pipelined = true

	return rows, nil
}

// QueryRow is a convenience wrapper over Query. Any error that occurs while
// querying is deferred until calling Scan on the returned Row.
func (c *Conn) QueryRow(ctx context.Context, sql string, args ...interface{}) *Row {
	rows, _ := c.Query(ctx, sql, args...)
	return (*Row)(rows)
}

// sendExecute emits the Bind/Execute/Close/Sync group for one portal
// execution. It must be called with the connection lock held.
func (c *Conn) sendExecute(ps *PreparedStatement, portalName string, args []interface{}) error {
	if len(args) != len(ps.ParameterOIDs) {
		return fmt.Errorf("expected %d arguments, got %d", len(ps.ParameterOIDs), len(args))
	}

	paramFormats := make([]int16, len(args))
	paramValues := make([][]byte, len(args))
	for i, oid := range ps.ParameterOIDs {
		paramFormats[i] = c.connInfo.ParamFormatCodeForOID(pgtype.OID(oid))
		v, err := c.encodeExtendedParamValue(args[i], pgtype.OID(oid), paramFormats[i])
		if err != nil {
			return err
		}
		paramValues[i] = v
	}

	resultFormats := make([]int16, len(ps.FieldDescriptions))
	for i := range ps.FieldDescriptions {
		resultFormats[i] = ps.FieldDescriptions[i].Format
	}

	c.frontend.Send(&pgproto.Bind{
		DestinationPortal:    portalName,
		PreparedStatement:    ps.Name,
		ParameterFormatCodes: paramFormats,
		Parameters:           paramValues,
		ResultFormatCodes:    resultFormats,
	})
	c.frontend.Send(&pgproto.Execute{Portal: portalName, MaxRows: 0})
	c.frontend.Send(&pgproto.Close{ObjectType: 'P', Name: portalName})
	c.frontend.Send(&pgproto.Sync{})

	if err := c.frontend.Flush(); err != nil {
		c.die(err)
		return err
	}
	c.pendingReadyForQueryCount++

	return nil
}

// encodeExtendedParamValue converts arg to the wire bytes for a parameter
// of type oid in the requested format. A nil return value without error is
// the SQL NULL.
func (c *Conn) encodeExtendedParamValue(arg interface{}, oid pgtype.OID, formatCode int16) ([]byte, error) {
	if arg == nil {
		return nil, nil
	}

	refVal := reflect.ValueOf(arg)
	if refVal.Kind() == reflect.Ptr && refVal.IsNil() {
		return nil, nil
	}

	switch formatCode {
	case pgtype.TextFormatCode:
		if arg, ok := arg.(pgtype.TextEncoder); ok {
			return arg.EncodeText(c.connInfo, []byte{})
		}
	case pgtype.BinaryFormatCode:
		if arg, ok := arg.(pgtype.BinaryEncoder); ok {
			return arg.EncodeBinary(c.connInfo, []byte{})
		}
	}

	if refVal.Kind() == reflect.Ptr {
		// dereference and try again
		return c.encodeExtendedParamValue(refVal.Elem().Interface(), oid, formatCode)
	}

	dt, ok := c.connInfo.DataTypeForOID(oid)
	if !ok {
		return nil, &WrongTypeError{GoType: fmt.Sprintf("%T", arg), OID: oid}
	}

	value := pgtype.NewValue(dt.Value)
	if err := value.Set(arg); err != nil {
		return nil, err
	}

	switch formatCode {
	case pgtype.TextFormatCode:
		if value, ok := value.(pgtype.TextEncoder); ok {
			return value.EncodeText(c.connInfo, []byte{})
		}
	case pgtype.BinaryFormatCode:
		if value, ok := value.(pgtype.BinaryEncoder); ok {
			return value.EncodeBinary(c.connInfo, []byte{})
		}
	}

	return nil, &WrongTypeError{GoType: fmt.Sprintf("%T", arg), OID: oid}
}
