package pgc

import (
	"context"
	"fmt"
	"time"

	"github.com/vireodb/pgc/pgproto"
	"github.com/vireodb/pgc/pgtype"
)

// Rows is the result set returned from Conn.Query. The connection stays
// busy until the Rows is closed, by reading it to completion with Next, by
// calling Close, or by a fatal error. Until then no other operation may be
// issued on the connection.
type Rows struct {
	conn *Conn

	fields []pgproto.FieldDescription
	values [][]byte

	rowCount   int
	commandTag CommandTag
	err        error
	closed     bool

	// pipelined reports whether the Bind/Execute/Close/Sync group was sent,
	// i.e. whether responses remain to be drained from the stream.
	pipelined bool

	ctx       context.Context
	sql       string
	args      []interface{}
	startTime time.Time
}

// FieldDescriptions returns the result column descriptors.
func (rows *Rows) FieldDescriptions() []pgproto.FieldDescription {
	return rows.fields
}

// FieldIndex returns the index of the column with the given name, or -1 if
// there is no such column.
func (rows *Rows) FieldIndex(name string) int {
	for i := range rows.fields {
		if rows.fields[i].Name == name {
			return i
		}
	}
	return -1
}

// CommandTag returns the command tag for the query. It is only complete
// after the Rows is closed.
func (rows *Rows) CommandTag() CommandTag {
	return rows.commandTag
}

// Err returns any error that occurred while reading.
func (rows *Rows) Err() error {
	return rows.err
}

// fatal records err and closes the rows.
func (rows *Rows) fatal(err error) {
	if rows.err == nil {
		rows.err = err
	}
	rows.Close()
}

// Close closes the rows, draining any remaining responses so the
// connection is ready for use again. It is safe to call Close multiple
// times.
func (rows *Rows) Close() {
	if rows.closed {
		return
	}

	if !rows.pipelined || !rows.conn.IsAlive() {
		rows.finish()
		return
	}

	for !rows.closed {
		rows.next()
	}
}

// finish marks the rows closed and releases the connection.
func (rows *Rows) finish() {
	if rows.closed {
		return
	}
	rows.closed = true
	rows.conn.unlock()

	ctx := rows.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if rows.err == nil {
		if rows.conn.shouldLog(LogLevelInfo) {
			rows.conn.log(ctx, LogLevelInfo, "Query", map[string]interface{}{"sql": rows.sql, "args": logQueryArgs(rows.args), "time": time.Since(rows.startTime), "rowCount": rows.rowCount})
		}
	} else if rows.conn.shouldLog(LogLevelError) {
		rows.conn.log(ctx, LogLevelError, "Query", map[string]interface{}{"sql": rows.sql, "args": logQueryArgs(rows.args), "err": rows.err})
	}
}

// Next prepares the next row for reading. It returns true if there is
// another row and false if no more rows are available or a fatal error has
// occurred. It automatically closes rows when all rows are read.
func (rows *Rows) Next() bool {
	if rows.closed {
		return false
	}
	return rows.next()
}

func (rows *Rows) next() bool {
	for {
		msg, err := rows.conn.receiveMessage()
		if err != nil {
			if rows.err == nil {
				rows.err = err
			}
			rows.finish()
			return false
		}

		switch msg := msg.(type) {
		case *pgproto.BindComplete, *pgproto.CloseComplete, *pgproto.EmptyQueryResponse, *pgproto.RowDescription:
		case *pgproto.DataRow:
			if len(msg.Values) != len(rows.fields) {
				rows.err = ProtocolError(fmt.Sprintf("row has %d values, but %d columns were described", len(msg.Values), len(rows.fields)))
				rows.conn.die(rows.err)
				rows.finish()
				return false
			}
			rows.values = msg.Values
			rows.rowCount++
			return true
		case *pgproto.CommandComplete:
			rows.commandTag = CommandTag(msg.CommandTag)
		case *pgproto.PortalSuspended:
			// Execute is always sent with no row limit, so the server must
			// never suspend the portal.
			if rows.err == nil {
				rows.err = ErrBadResponse
			}
		case *pgproto.CopyInResponse, *pgproto.CopyOutResponse, *pgproto.CopyBothResponse:
			if rows.err == nil {
				rows.err = ErrCopyNotSupported
			}
			rows.conn.die(ErrCopyNotSupported)
			rows.finish()
			return false
		case *pgproto.ErrorResponse:
			if rows.err == nil {
				rows.err = errorResponseToPgError(msg)
			}
		case *pgproto.ReadyForQuery:
			rows.finish()
			return false
		default:
			if e := rows.conn.processContextFreeMsg(msg); e != nil && rows.err == nil {
				rows.err = e
			}
		}
	}
}

// Scan reads the values from the current row into dest values
// positionally. dest can include pointers to core types, values
// implementing the pgtype.Value interface, and nil. nil will skip the
// value entirely.
func (rows *Rows) Scan(dest ...interface{}) error {
	if len(rows.fields) != len(dest) {
		err := fmt.Errorf("scan received wrong number of arguments, got %d but expected %d", len(dest), len(rows.fields))
		rows.fatal(err)
		return err
	}

	for i, d := range dest {
		if d == nil {
			continue
		}

		fd := &rows.fields[i]
		err := rows.conn.connInfo.Scan(pgtype.OID(fd.DataTypeOID), fd.Format, rows.values[i], d)
		if err != nil {
			err = ScanArgError{ColumnIndex: i, Err: err}
			rows.fatal(err)
			return err
		}
	}

	return nil
}

// Value returns the decoded value of column i in the current row, using
// the simplest Go representation the registered codec offers.
func (rows *Rows) Value(i int) (interface{}, error) {
	if i < 0 || i >= len(rows.fields) {
		return nil, &OutOfBoundsError{Index: i, Len: len(rows.fields)}
	}

	buf := rows.values[i]
	if buf == nil {
		return nil, nil
	}

	fd := &rows.fields[i]

	if dt, ok := rows.conn.connInfo.DataTypeForOID(pgtype.OID(fd.DataTypeOID)); ok {
		value := pgtype.NewValue(dt.Value)

		switch fd.Format {
		case pgtype.TextFormatCode:
			decoder, ok := value.(pgtype.TextDecoder)
			if !ok {
				return nil, &WrongTypeError{GoType: fmt.Sprintf("%T", value), OID: pgtype.OID(fd.DataTypeOID)}
			}
			if err := decoder.DecodeText(rows.conn.connInfo, buf); err != nil {
				return nil, err
			}
		case pgtype.BinaryFormatCode:
			decoder, ok := value.(pgtype.BinaryDecoder)
			if !ok {
				return nil, &WrongTypeError{GoType: fmt.Sprintf("%T", value), OID: pgtype.OID(fd.DataTypeOID)}
			}
			if err := decoder.DecodeBinary(rows.conn.connInfo, buf); err != nil {
				return nil, err
			}
		default:
			return nil, ProtocolError(fmt.Sprintf("unknown format code: %v", fd.Format))
		}

		return value.Get(), nil
	}

	switch fd.Format {
	case pgtype.TextFormatCode:
		return string(buf), nil
	case pgtype.BinaryFormatCode:
		newBuf := make([]byte, len(buf))
		copy(newBuf, buf)
		return newBuf, nil
	default:
		return nil, ProtocolError(fmt.Sprintf("unknown format code: %v", fd.Format))
	}
}

// ValueByName is Value addressed by column name.
func (rows *Rows) ValueByName(name string) (interface{}, error) {
	i := rows.FieldIndex(name)
	if i == -1 {
		return nil, fmt.Errorf("no column named %q", name)
	}
	return rows.Value(i)
}

// Values returns the decoded row values.
func (rows *Rows) Values() ([]interface{}, error) {
	if rows.closed {
		return nil, fmt.Errorf("rows is closed")
	}

	values := make([]interface{}, 0, len(rows.fields))

	for i := range rows.fields {
		value, err := rows.Value(i)
		if err != nil {
			rows.fatal(err)
			return nil, err
		}
		values = append(values, value)
	}

	return values, nil
}

// RawValues returns the unparsed bytes of the row values. The returned
// data is only valid until the next Next call or the Rows is closed.
func (rows *Rows) RawValues() [][]byte {
	return rows.values
}

// Row is a convenience wrapper over Rows that is returned by QueryRow.
type Row Rows

// Scan works the same as Rows.Scan with the following exceptions. If no
// rows were found it returns ErrNoRows. If multiple rows are returned it
// ignores all but the first.
func (r *Row) Scan(dest ...interface{}) error {
	rows := (*Rows)(r)

	if rows.Err() != nil {
		rows.Close()
		return rows.Err()
	}

	if !rows.Next() {
		if rows.Err() == nil {
			return ErrNoRows
		}
		return rows.Err()
	}

	rows.Scan(dest...)
	rows.Close()
	return rows.Err()
}
