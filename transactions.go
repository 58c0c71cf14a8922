// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

// Tx is one transaction in a multi-screen session flow. It is called
// with the session's Core and a data value handed down from the
// previous transaction, and returns the next transaction to run (or nil
// to end the chain), the data to pass it, and any error. A non-nil
// error terminates the chain without being passed along.
type Tx func(core *Core, data any) (next Tx, newdata any, err error)

// RunTransactions runs transactions starting with initial, threading
// data between them, until a transaction returns a nil next or a
// non-nil error.
func RunTransactions(core *Core, initial Tx, data any) error {
	next := initial
	var err error

	for {
		next, data, err = next(core, data)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
	}
}
