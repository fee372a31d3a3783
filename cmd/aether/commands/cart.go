package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aethershop/aether/internal/printer"
)

var (
	cartAddQty int
	cartSetQty int
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage your cart",
	Long: `Manage your cart.

As a guest the cart lives locally (in Redis, per profile) and holds
variant IDs and quantities. Once signed in the cart lives on the server;
the guest cart is merged into it at login.`,
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart",
	RunE:  runCartShow,
}

var cartAddCmd = &cobra.Command{
	Use:   "add <variant-id>",
	Short: "Add a product variant to the cart",
	Long: `Add a product variant to the cart.

Adding a variant that is already in the cart increases its quantity.

Examples:
  aether cart add 5f8b2c1a-... --qty 2`,
	Args: cobra.ExactArgs(1),
	RunE: runCartAdd,
}

var cartSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Set the quantity of a cart line",
	Long: `Set the quantity of a cart line.

For guests <id> is the variant ID; signed in it is the cart item ID
shown by 'aether cart show'. Setting the quantity to 0 removes the line.`,
	Args: cobra.ExactArgs(1),
	RunE: runCartSet,
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a line from the cart",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartRemove,
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE:  runCartClear,
}

var cartWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the guest cart for changes",
	Long: `Watch the guest cart for changes made by other processes on the same
profile, printing the cart after every change. Stop with Ctrl-C.`,
	RunE: runCartWatch,
}

func init() {
	cartAddCmd.Flags().IntVarP(&cartAddQty, "qty", "q", 1, "Quantity to add")
	cartSetCmd.Flags().IntVarP(&cartSetQty, "qty", "q", 0, "New quantity (0 removes the line)")
	cartSetCmd.MarkFlagRequired("qty")

	cartCmd.AddCommand(cartShowCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartSetCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartClearCmd)
	cartCmd.AddCommand(cartWatchCmd)
	rootCmd.AddCommand(cartCmd)
}

func runCartShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.auth.Authenticated() {
		if err := app.syncCart(ctx); err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		printer.Printf("%s", printer.FormatCart(app.cart.Cart()))
		return nil
	}

	items, err := app.local.GuestItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to read guest cart: %w", err)
	}
	printer.Printf("%s", printer.FormatGuestCart(items))
	return nil
}

func runCartAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	variantID := args[0]

	if cartAddQty <= 0 {
		return printer.Error(
			"invalid quantity",
			fmt.Sprintf("Quantity must be at least 1, got %d.", cartAddQty),
			nil,
		)
	}

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.auth.Authenticated() {
		if err := app.syncCart(ctx); err != nil {
			return err
		}
		if err := app.cart.Add(ctx, variantID, cartAddQty); err != nil {
			return cartFailure(app, "could not add item")
		}
		printer.Success("Added %d x %s\n", cartAddQty, variantID)
		return nil
	}

	if err := app.local.AddGuestItem(ctx, variantID, cartAddQty); err != nil {
		return fmt.Errorf("failed to update guest cart: %w", err)
	}
	printer.Success("Added %d x %s (guest cart)\n", cartAddQty, variantID)
	return nil
}

func runCartSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.auth.Authenticated() {
		if err := app.syncCart(ctx); err != nil {
			return err
		}
		if err := app.cart.Set(ctx, id, cartSetQty); err != nil {
			return cartFailure(app, "could not update item")
		}
	} else {
		if err := app.local.UpdateGuestItem(ctx, id, cartSetQty); err != nil {
			return fmt.Errorf("failed to update guest cart: %w", err)
		}
	}

	if cartSetQty <= 0 {
		printer.Success("Removed %s\n", id)
	} else {
		printer.Success("Set %s to %d\n", id, cartSetQty)
	}
	return nil
}

func runCartRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.auth.Authenticated() {
		if err := app.syncCart(ctx); err != nil {
			return err
		}
		if err := app.cart.Remove(ctx, id); err != nil {
			return cartFailure(app, "could not remove item")
		}
	} else {
		if err := app.local.RemoveGuestItem(ctx, id); err != nil {
			return fmt.Errorf("failed to update guest cart: %w", err)
		}
	}

	printer.Success("Removed %s\n", id)
	return nil
}

func runCartClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.auth.Authenticated() {
		if err := app.syncCart(ctx); err != nil {
			return err
		}
		if err := app.cart.Clear(ctx); err != nil {
			return cartFailure(app, "could not clear cart")
		}
	} else {
		if err := app.local.ClearGuestCart(ctx); err != nil {
			return fmt.Errorf("failed to clear guest cart: %w", err)
		}
	}

	printer.Success("Cart cleared\n")
	return nil
}

func runCartWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	sub, err := app.local.SubscribeGuestCartEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to cart events: %w", err)
	}
	defer sub.Close()

	items, err := app.local.GuestItems(ctx)
	if err != nil {
		return err
	}
	printer.Printf("%s", printer.FormatGuestCart(items))
	printer.Info("Watching for changes (Ctrl-C to stop)...\n")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case items, ok := <-sub.Events():
			if !ok {
				return nil
			}
			printer.Printf("\n%s", printer.FormatGuestCart(items))
		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			printer.Warning("Subscription error: %v\n", err)
		case <-sigCh:
			return nil
		}
	}
}

// cartFailure turns a cart store failure into a user-facing error carrying
// the store's last error message.
func cartFailure(app *app, title string) error {
	msg := app.cart.Err()
	if msg == "" {
		msg = "The server rejected the request."
	}
	return printer.Error(title, msg, []string{"Check the cart state:\n  aether cart show"})
}
