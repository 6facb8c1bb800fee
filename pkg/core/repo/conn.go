// Package repo declares the storage-layer interfaces which the use
// case layer may depend on, keeping the core independent of the
// concrete DBMS adapter. The shared ledger (sessions and events
// repositories) is the only coordination channel between the entry,
// exit, and payment processes.
package repo

import "context"

type TxHandler func(context.Context, Tx) error

type Conn interface {
	Queryer
	Tx(ctx context.Context, handler TxHandler) error
	IsConn()
}
