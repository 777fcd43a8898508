package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-aggregator/internal/application/services"
	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
	"github.com/bimakw/wallet-aggregator/internal/domain/insights"
	"github.com/bimakw/wallet-aggregator/internal/domain/units"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	a, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := services.NewSession(a.Aggregator, logger)
	defer session.Close()

	w := newWatcher(session, cmd.OutOrStdout(), logger)
	return w.run(ctx, cmd.InOrStdin())
}

// watcher drives a Session from line-oriented input. Every request runs in
// the background so a new address can supersede a slow one.
type watcher struct {
	session *services.Session
	logger  *zap.Logger

	outMu sync.Mutex
	out   io.Writer
	wg    sync.WaitGroup
}

func newWatcher(session *services.Session, out io.Writer, logger *zap.Logger) *watcher {
	return &watcher{
		session: session,
		out:     out,
		logger:  logger.Named("watch"),
	}
}

func (w *watcher) run(ctx context.Context, in io.Reader) error {
	defer w.wg.Wait()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "refresh":
			w.async(ctx, "refresh", w.session.Refresh)
		case "more nfts":
			w.async(ctx, "more nfts", w.session.LoadMoreNFTs)
		case "more txs":
			w.async(ctx, "more txs", w.session.LoadMoreTransactions)
		default:
			address := line
			if err := entities.ValidateAddress(address); err != nil {
				w.printf("error: %s\n", entities.UserMessage(err))
				continue
			}
			w.async(ctx, units.ShortAddress(address), func(ctx context.Context) (*entities.Snapshot, error) {
				return w.session.Load(ctx, address)
			})
		}
	}
	return scanner.Err()
}

func (w *watcher) async(ctx context.Context, label string, op func(context.Context) (*entities.Snapshot, error)) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		snap, err := op(ctx)
		switch {
		case errors.Is(err, services.ErrStaleResult):
			w.logger.Debug("Result superseded", zap.String("request", label))
		case errors.Is(err, services.ErrNoActiveAddress), errors.Is(err, services.ErrNoMorePages):
			w.printf("%s: %v\n", label, err)
		case err != nil:
			w.printf("%s: error: %s\n", label, entities.UserMessage(err))
		default:
			w.printf("%s\n", summarize(snap))
		}
	}()
}

func (w *watcher) printf(format string, args ...interface{}) {
	w.outMu.Lock()
	defer w.outMu.Unlock()
	fmt.Fprintf(w.out, format, args...)
}

// summarize renders one line per snapshot followed by any failed domains
func summarize(snap *entities.Snapshot) string {
	p := snap.Portfolio
	if p == nil {
		p = &entities.Portfolio{Address: snap.Address}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s  %d tokens $%.2f  %d nfts%s  %d defi  %d txs%s",
		snap.Epoch,
		units.ShortAddress(snap.Address),
		len(p.Tokens),
		insights.TotalValue(p.Tokens),
		len(p.NFTs), moreMarker(snap.NFTPageKey != ""),
		len(p.DefiPositions),
		len(p.Transactions), moreMarker(snap.TxHasMore),
	)

	domains := make([]string, 0, len(snap.Domains))
	for domain := range snap.Domains {
		domains = append(domains, string(domain))
	}
	sort.Strings(domains)

	for _, domain := range domains {
		state := snap.Domains[entities.Domain(domain)]
		if state.Error != nil {
			fmt.Fprintf(&b, "\n  %s: %s (%s)", domain, state.Error.Message, state.Error.Kind)
		}
	}
	return b.String()
}

func moreMarker(more bool) string {
	if more {
		return "+"
	}
	return ""
}
