package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aethershop/aether/internal/api"
	"github.com/aethershop/aether/internal/printer"
)

var ordersJSON bool

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "View placed orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your orders",
	RunE:  runOrdersList,
}

var ordersShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersShow,
}

func init() {
	ordersListCmd.Flags().BoolVar(&ordersJSON, "json", false, "Output in JSON format")

	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersShowCmd)
	rootCmd.AddCommand(ordersCmd)
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireAuth(); err != nil {
		return err
	}

	orders, err := app.api.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	if ordersJSON {
		data, err := json.MarshalIndent(orders, "", "  ")
		if err != nil {
			return err
		}
		printer.Println(string(data))
		return nil
	}

	if len(orders) == 0 {
		printer.Info("No orders yet.\n")
		return nil
	}

	printer.Printf("%-38s %-12s %-10s %10s\n", "ID", "NUMBER", "STATUS", "TOTAL")
	for _, o := range orders {
		printer.Printf("%-38s %-12s %-10s %10s\n", o.ID, o.OrderNumber, o.Status, printer.FormatPrice(o.Total))
	}
	return nil
}

func runOrdersShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.requireAuth(); err != nil {
		return err
	}

	order, err := app.api.GetOrder(ctx, args[0])
	if err != nil {
		if apiErr, ok := api.IsAPIError(err); ok && apiErr.StatusCode == 404 {
			return printer.Error(
				"order not found",
				fmt.Sprintf("No order with ID %q.", args[0]),
				[]string{"List your orders:\n  aether orders list"},
			)
		}
		return fmt.Errorf("failed to fetch order: %w", err)
	}

	printer.Printf("%s", printer.FormatOrder(order))
	return nil
}
