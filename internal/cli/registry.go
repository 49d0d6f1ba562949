package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/contractum/internal/compiler"
	"github.com/roach88/contractum/internal/ir"
	"github.com/roach88/contractum/internal/store"
)

var errNoDatabase = errors.New("no registry database: set --db or " + EnvDB)

// openRegistry opens the registry named by --db.
func openRegistry(opts *RootOptions) (*store.Store, error) {
	if opts.DB == "" {
		return nil, errNoDatabase
	}
	slog.Debug("opening registry", "path", opts.DB)
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", opts.DB, err)
	}
	return st, nil
}

// closeRegistry closes st and logs a failure.
func closeRegistry(st *store.Store) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		slog.Error("error closing registry", "error", err)
	}
}

// chainResolver asks each resolver in turn. A miss in one resolver moves on
// to the next; any other error stops the search.
type chainResolver []compiler.Resolver

func (c chainResolver) ResolveInterface(ctx context.Context, id ir.IfaceID) (*ir.Interface, error) {
	err := fmt.Errorf("%w: %s", compiler.ErrUnknownInterface, id)
	for _, r := range c {
		iface, rerr := r.ResolveInterface(ctx, id)
		if rerr == nil {
			return iface, nil
		}
		if !errors.Is(rerr, compiler.ErrUnknownInterface) && !errors.Is(rerr, store.ErrNotFound) {
			return nil, rerr
		}
		err = rerr
	}
	return nil, err
}

// resolverFor resolves parents among the compiled interfaces first, then in
// the registry when one is open.
func resolverFor(loaded *LoadResult, st *store.Store) compiler.Resolver {
	chain := chainResolver{compiler.NewMapResolver(loaded.Interfaces...)}
	if st != nil {
		chain = append(chain, st)
	}
	return chain
}

// registryNames maps every registered id to its name.
func registryNames(ctx context.Context, st *store.Store, names map[ir.IfaceID]string) error {
	entries, err := st.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, ok := names[e.ID]; !ok {
			names[e.ID] = e.Name
		}
	}
	return nil
}
