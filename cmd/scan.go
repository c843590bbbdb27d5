package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/pricewatch/internal/events"
)

// scanCommand returns the command enqueuing a manual scan for one product.
func scanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <product-id>",
		Short: "Scan one product now",
		Long:  `Run a manual scan for the given product id, bypassing the recency guard.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
}

// scanWaiter signals when a scan outcome for one product was published.
type scanWaiter struct {
	productID string
	done      chan struct{}
}

func (w *scanWaiter) HandleScanStarted(ctx context.Context, event events.ScanStarted) error {
	return nil
}

func (w *scanWaiter) HandleProductScanned(ctx context.Context, event events.ProductScanned) error {
	if event.Product.ID == w.productID {
		close(w.done)
	}
	return nil
}

func (w *scanWaiter) HandleScanFailed(ctx context.Context, event events.ScanFailed) error {
	if event.Product.ID == w.productID {
		close(w.done)
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	deps, err := newAppDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	productID := args[0]

	// A missing id is silently dropped by the scheduler; surface it to
	// the CLI user instead of waiting forever.
	if _, findErr := deps.Products.FindByID(ctx, productID); findErr != nil {
		return fmt.Errorf("product %s: %w", productID, findErr)
	}

	waiter := &scanWaiter{productID: productID, done: make(chan struct{})}
	deps.Bus.Subscribe(waiter)

	if err := deps.Scheduler.EnqueueScan(ctx, productID); err != nil {
		return fmt.Errorf("failed to enqueue scan: %w", err)
	}

	select {
	case <-waiter.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
