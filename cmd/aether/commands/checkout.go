package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aethershop/aether/internal/checkout"
	"github.com/aethershop/aether/internal/printer"
	"github.com/aethershop/aether/pkg/storefront"
)

var (
	placeAddressID  string
	placeShippingID string
	placePayment    string
	placeVoucher    string
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Validate the cart and place orders",
}

var checkoutValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the cart against current stock",
	Long: `Check every cart line against current stock and product status.

Each problem comes with a suggested fix: lower the quantity to what is
available, or remove the line.`,
	RunE: runCheckoutValidate,
}

var checkoutPlaceCmd = &cobra.Command{
	Use:   "place",
	Short: "Place an order from the cart",
	Long: `Place an order from the authenticated cart.

The cart is stock-validated first; an order is only submitted when every
line can be fulfilled. Without --address the account's default address is
used; without --shipping the cheapest method is.

Examples:
  aether checkout place
  aether checkout place --address addr-123 --shipping express --voucher SAVE10`,
	RunE: runCheckoutPlace,
}

func init() {
	checkoutPlaceCmd.Flags().StringVar(&placeAddressID, "address", "", "Delivery address ID (default: account default)")
	checkoutPlaceCmd.Flags().StringVar(&placeShippingID, "shipping", "", "Shipping method ID (default: cheapest)")
	checkoutPlaceCmd.Flags().StringVar(&placePayment, "payment", "card", "Payment method")
	checkoutPlaceCmd.Flags().StringVar(&placeVoucher, "voucher", "", "Voucher code to apply")

	checkoutCmd.AddCommand(checkoutValidateCmd)
	checkoutCmd.AddCommand(checkoutPlaceCmd)
	rootCmd.AddCommand(checkoutCmd)
}

func runCheckoutValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireAuth(); err != nil {
		return err
	}
	if err := app.syncCart(ctx); err != nil {
		return err
	}

	cart := app.cart.Cart()
	if cart == nil || len(cart.Items) == 0 {
		printer.Info("Your cart is empty, nothing to validate.\n")
		return nil
	}

	validator := checkout.NewValidator(app.api, app.log)
	result := validator.Validate(ctx, checkout.ItemsFromCart(cart))

	if result.Valid {
		printer.Success("All %d item(s) in stock\n", cart.ItemCount)
		return nil
	}
	if len(result.Errors) == 0 {
		return printer.Error(
			"stock validation failed",
			validator.Err(),
			[]string{"Retry in a moment:\n  aether checkout validate"},
		)
	}

	printer.Warning("%d item(s) cannot be fulfilled:\n", len(result.Errors))
	for _, e := range result.Errors {
		printer.Printf("  %s\n", printer.FormatStockError(e))
	}
	return fmt.Errorf("cart has stock problems")
}

func runCheckoutPlace(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireAuth(); err != nil {
		return err
	}
	if err := app.syncCart(ctx); err != nil {
		return err
	}

	cart := app.cart.Cart()
	if cart == nil || len(cart.Items) == 0 {
		return printer.Error(
			"cart is empty",
			"There is nothing to order.",
			[]string{"Add something first:\n  aether cart add <variant-id>"},
		)
	}

	// Stock gate before any money-shaped step.
	validator := checkout.NewValidator(app.api, app.log)
	result := validator.Validate(ctx, checkout.ItemsFromCart(cart))
	if !result.Valid {
		if len(result.Errors) == 0 {
			return printer.Error(
				"stock validation failed",
				validator.Err(),
				[]string{"Retry in a moment:\n  aether checkout place"},
			)
		}
		printer.Warning("Cart failed stock validation:\n")
		for _, e := range result.Errors {
			printer.Printf("  %s\n", printer.FormatStockError(e))
		}
		return fmt.Errorf("cart has stock problems")
	}

	address, err := pickAddress(ctx, app, placeAddressID)
	if err != nil {
		return err
	}
	shipping, err := pickShipping(ctx, app, address.ID, placeShippingID)
	if err != nil {
		return err
	}

	flow := checkout.NewFlow(app.api, app.cfg.Policy())
	if err := flow.SelectAddress(*address); err != nil {
		return err
	}
	if err := flow.SelectShipping(*shipping); err != nil {
		return err
	}
	if err := flow.SelectPayment(placePayment); err != nil {
		return err
	}

	if placeVoucher != "" {
		if err := flow.ApplyVoucher(ctx, placeVoucher, cart.Subtotal); err != nil {
			return printer.Error(
				"voucher rejected",
				err.Error(),
				[]string{"Place the order without it:\n  aether checkout place"},
			)
		}
		printer.Success("Voucher %s applied\n", placeVoucher)
	}

	summary, err := flow.Preview(cart.Subtotal)
	if err != nil {
		return err
	}
	printer.Step("Order preview\n")
	printer.Printf("%s\n", printer.FormatSummary(summary))

	order, err := flow.PlaceOrder(ctx)
	if err != nil {
		return printer.Error(
			"order placement failed",
			err.Error(),
			[]string{"Validate the cart and retry:\n  aether checkout validate"},
		)
	}

	printer.Success("Order %s placed\n\n", order.OrderNumber)
	printer.Printf("%s", printer.FormatOrder(order))
	return nil
}

// pickAddress resolves the delivery address: an explicit ID, the account
// default, or the only saved address.
func pickAddress(ctx context.Context, app *app, id string) (*storefront.Address, error) {
	addresses, err := app.api.ListAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	if len(addresses) == 0 {
		return nil, printer.Error(
			"no saved addresses",
			"Checkout needs a delivery address on the account.",
			[]string{"Add one through the storefront web UI, then retry."},
		)
	}

	if id != "" {
		for i := range addresses {
			if addresses[i].ID == id {
				return &addresses[i], nil
			}
		}
		return nil, printer.Error(
			"address not found",
			fmt.Sprintf("No saved address with ID %q.", id),
			nil,
		)
	}

	for i := range addresses {
		if addresses[i].IsDefault {
			return &addresses[i], nil
		}
	}
	return &addresses[0], nil
}

// pickShipping resolves the delivery method: an explicit ID or the cheapest
// quoted one.
func pickShipping(ctx context.Context, app *app, addressID, id string) (*storefront.ShippingMethod, error) {
	methods, err := app.api.ShippingMethods(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping methods: %w", err)
	}
	if len(methods) == 0 {
		return nil, printer.Error(
			"no shipping methods",
			"The API quoted no delivery options for this address.",
			nil,
		)
	}

	if id != "" {
		for i := range methods {
			if methods[i].ID == id {
				return &methods[i], nil
			}
		}
		return nil, printer.Error(
			"shipping method not found",
			fmt.Sprintf("No shipping method with ID %q.", id),
			nil,
		)
	}

	cheapest := &methods[0]
	for i := range methods {
		if methods[i].Fee < cheapest.Fee {
			cheapest = &methods[i]
		}
	}
	return cheapest, nil
}
