package pgc

import (
	"context"
	"strconv"
	"strings"

	"github.com/vireodb/pgc/pgproto"
)

// TxIsoLevel is the transaction isolation level.
type TxIsoLevel string

// Transaction isolation levels
const (
	Serializable    = TxIsoLevel("serializable")
	RepeatableRead  = TxIsoLevel("repeatable read")
	ReadCommitted   = TxIsoLevel("read committed")
	ReadUncommitted = TxIsoLevel("read uncommitted")
)

// TxAccessMode is the transaction access mode.
type TxAccessMode string

// Transaction access modes
const (
	ReadWrite = TxAccessMode("read write")
	ReadOnly  = TxAccessMode("read only")
)

// TxDeferrableMode is the transaction deferrable mode.
type TxDeferrableMode string

// Transaction deferrable modes
const (
	Deferrable    = TxDeferrableMode("deferrable")
	NotDeferrable = TxDeferrableMode("not deferrable")
)

// TxOptions are transaction modes within a transaction block.
type TxOptions struct {
	IsoLevel       TxIsoLevel
	AccessMode     TxAccessMode
	DeferrableMode TxDeferrableMode
}

func (txOptions TxOptions) beginSQL() string {
	buf := &strings.Builder{}
	buf.WriteString("begin")
	if txOptions.IsoLevel != "" {
		buf.WriteString(" isolation level ")
		buf.WriteString(string(txOptions.IsoLevel))
	}
	if txOptions.AccessMode != "" {
		buf.WriteByte(' ')
		buf.WriteString(string(txOptions.AccessMode))
	}
	if txOptions.DeferrableMode != "" {
		buf.WriteByte(' ')
		buf.WriteString(string(txOptions.DeferrableMode))
	}

	return buf.String()
}

// Begin starts a transaction block.
func (c *Conn) Begin(ctx context.Context) (*Tx, error) {
	return c.BeginTx(ctx, TxOptions{})
}

// BeginTx starts a transaction block with txOptions determining the
// transaction mode. If a transaction is already in progress the nested
// transaction must be started through the innermost Tx handle instead.
func (c *Conn) BeginTx(ctx context.Context, txOptions TxOptions) (*Tx, error) {
	if c.curTx != nil {
		return nil, ErrTxActive
	}

	_, err := c.Exec(ctx, txOptions.beginSQL())
	if err != nil {
		// begin should never fail unless there is an underlying connection
		// issue or a context timeout. In either case, the connection is
		// possibly broken.
		c.die(err)
		return nil, err
	}

	tx := &Tx{conn: c, depth: 1}
	c.curTx = tx
	return tx, nil
}

// Tx represents a transaction or savepoint scope. A Tx at depth 1 is a
// BEGIN block; each nested Begin creates a savepoint named after its
// depth. All Tx methods return ErrTxClosed if Commit or Rollback has
// already been called on the Tx, and ErrTxActive when used while an inner
// Tx is live.
//
// A Tx must always be finished: defer Rollback immediately after Begin.
// Rollback is safe to call after Commit has decided the outcome.
type Tx struct {
	conn   *Conn
	parent *Tx
	depth  int
	closed bool
}

func (tx *Tx) savepointName() string {
	return "sp_" + strconv.Itoa(tx.depth)
}

// Begin starts a nested transaction implemented with a savepoint.
func (tx *Tx) Begin(ctx context.Context) (*Tx, error) {
	if tx.closed {
		return nil, ErrTxClosed
	}
	if tx.conn.curTx != tx {
		return nil, ErrTxActive
	}

	inner := &Tx{conn: tx.conn, parent: tx, depth: tx.depth + 1}

	_, err := tx.conn.Exec(ctx, "savepoint "+inner.savepointName())
	if err != nil {
		return nil, err
	}

	tx.conn.curTx = inner
	return inner, nil
}

func (tx *Tx) release() {
	tx.closed = true
	tx.conn.curTx = tx.parent
}

// Commit commits the transaction. If the transaction is in a failed state
// the commit is demoted to a rollback and Commit reports the demotion with
// ErrTxCommitRollback.
func (tx *Tx) Commit(ctx context.Context) error {
	if tx.closed {
		return ErrTxClosed
	}
	if tx.conn.curTx != tx {
		return ErrTxActive
	}

	if tx.depth == 1 {
		commandTag, err := tx.conn.Exec(ctx, "commit")
		tx.release()
		if err != nil {
			// A commit failure leaves the connection in an undefined state.
			tx.conn.die(err)
			return err
		}
		if commandTag == "ROLLBACK" {
			return ErrTxCommitRollback
		}
		return nil
	}

	if tx.conn.txStatus == pgproto.TxStatusInFailedTransaction {
		sp := tx.savepointName()
		_, err := tx.conn.Exec(ctx, "rollback to savepoint "+sp+"; release savepoint "+sp)
		tx.release()
		if err != nil {
			tx.conn.die(err)
			return err
		}
		return ErrTxCommitRollback
	}

	_, err := tx.conn.Exec(ctx, "release savepoint "+tx.savepointName())
	tx.release()
	if err != nil {
		tx.conn.die(err)
		return err
	}
	return nil
}

// Rollback rolls back the transaction. Rollback will return ErrTxClosed if
// the Tx is already closed, but is otherwise safe to call multiple times.
// Hence, a defer tx.Rollback(ctx) is safe even if tx.Commit(ctx) will be
// called first in a non-error condition.
func (tx *Tx) Rollback(ctx context.Context) error {
	if tx.closed {
		return ErrTxClosed
	}
	if tx.conn.curTx != tx {
		return ErrTxActive
	}

	var err error
	if tx.depth == 1 {
		_, err = tx.conn.Exec(ctx, "rollback")
	} else {
		sp := tx.savepointName()
		_, err = tx.conn.Exec(ctx, "rollback to savepoint "+sp+"; release savepoint "+sp)
	}
	tx.release()
	if err != nil {
		// A rollback failure leaves the connection in an undefined state.
		tx.conn.die(err)
		return err
	}

	return nil
}

// Exec delegates to the underlying *Conn.
func (tx *Tx) Exec(ctx context.Context, sql string, args ...interface{}) (CommandTag, error) {
	if tx.closed {
		return "", ErrTxClosed
	}
	if tx.conn.curTx != tx {
		return "", ErrTxActive
	}

	return tx.conn.Exec(ctx, sql, args...)
}

// Prepare delegates to the underlying *Conn.
func (tx *Tx) Prepare(ctx context.Context, sql string) (*PreparedStatement, error) {
	if tx.closed {
		return nil, ErrTxClosed
	}
	if tx.conn.curTx != tx {
		return nil, ErrTxActive
	}

	return tx.conn.Prepare(ctx, sql)
}

// Query delegates to the underlying *Conn.
func (tx *Tx) Query(ctx context.Context, sql string, args ...interface{}) (*Rows, error) {
	if tx.closed {
		// Because checking for errors can be deferred to the *Rows, build
		// one with the error.
		err := ErrTxClosed
		return &Rows{closed: true, err: err}, err
	}
	if tx.conn.curTx != tx {
		err := ErrTxActive
		return &Rows{closed: true, err: err}, err
	}

	return tx.conn.Query(ctx, sql, args...)
}

// QueryRow delegates to the underlying *Conn.
func (tx *Tx) QueryRow(ctx context.Context, sql string, args ...interface{}) *Row {
	rows, _ := tx.Query(ctx, sql, args...)
	return (*Row)(rows)
}

// Depth returns the nesting depth of the transaction. The outermost
// transaction is depth 1.
func (tx *Tx) Depth() int {
	return tx.depth
}
