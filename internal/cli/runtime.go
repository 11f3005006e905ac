package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spencerwilf/proof-of-habit/internal/engine"
	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spencerwilf/proof-of-habit/internal/ledger"
	"github.com/spencerwilf/proof-of-habit/internal/store"
)

// runtime bundles the opened store, engine, and ledger for one command.
type runtime struct {
	store  *store.Store
	engine *engine.Engine
	bank   *ledger.SQLLedger
}

// openRuntime opens the database and wires the production engine:
// system clock, UUIDv7 event ids, SQL ledger.
func openRuntime(opts *RootOptions) (*runtime, error) {
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.DB, err)
	}

	bank := ledger.NewSQLLedger()
	return &runtime{
		store:  st,
		engine: engine.New(st, bank, habit.SystemClock{}, habit.UUIDv7Generator{}),
		bank:   bank,
	}, nil
}

// Close releases the database.
func (r *runtime) Close() error {
	return r.store.Close()
}

// caller resolves the caller identity from --as or the config file.
func caller(opts *RootOptions) (habit.Identity, error) {
	if opts.As == "" {
		return "", fmt.Errorf("caller identity required: pass --as or set identity in the config file")
	}
	return habit.Identity(opts.As), nil
}

// parseID parses a habit id argument.
func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid habit id %q: %w", arg, err)
	}
	return id, nil
}

// parseAmount parses a value-unit amount argument.
func parseAmount(arg string) (uint64, error) {
	amount, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", arg, err)
	}
	return amount, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
