package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aethershop/aether/internal/api"
	"github.com/aethershop/aether/internal/printer"
	"github.com/aethershop/aether/pkg/storefront"
)

var (
	productsPage     int
	productsPerPage  int
	productsCategory string
	productsSearch   string
	productsJSON     bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse the catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products",
	Long: `List catalog products, one page at a time.

Examples:
  aether products list
  aether products list --search jacket --page 2
  aether products list --category outdoor --json`,
	RunE: runProductsList,
}

var productsShowCmd = &cobra.Command{
	Use:   "show <product-id>",
	Short: "Show one product with its variants and options",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsShow,
}

func init() {
	productsListCmd.Flags().IntVar(&productsPage, "page", 0, "Page number")
	productsListCmd.Flags().IntVar(&productsPerPage, "per-page", 0, "Results per page")
	productsListCmd.Flags().StringVar(&productsCategory, "category", "", "Filter by category slug")
	productsListCmd.Flags().StringVar(&productsSearch, "search", "", "Search term")
	productsListCmd.Flags().BoolVar(&productsJSON, "json", false, "Output in JSON format")

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsShowCmd)
	rootCmd.AddCommand(productsCmd)
}

func runProductsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	list, err := app.api.ListProducts(ctx, api.ListProductsOptions{
		Page:     productsPage,
		PerPage:  productsPerPage,
		Category: productsCategory,
		Search:   productsSearch,
	})
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	if productsJSON {
		data, err := json.MarshalIndent(list.Products, "", "  ")
		if err != nil {
			return err
		}
		printer.Println(string(data))
		return nil
	}

	if len(list.Products) == 0 {
		printer.Info("No products found.\n")
		return nil
	}

	printer.Printf("%-38s %-30s %10s\n", "ID", "NAME", "PRICE")
	for _, p := range list.Products {
		name := p.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		printer.Printf("%-38s %-30s %10s\n", p.ID, name, printer.FormatPrice(p.BasePrice))
	}
	printer.Printf("\n%d product(s) total\n", list.Total)
	return nil
}

func runProductsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	product, err := app.api.GetProduct(ctx, args[0])
	if err != nil {
		if apiErr, ok := api.IsAPIError(err); ok && apiErr.StatusCode == 404 {
			return printer.Error(
				"product not found",
				fmt.Sprintf("No product with ID %q.", args[0]),
				[]string{"Browse the catalog:\n  aether products list"},
			)
		}
		return fmt.Errorf("failed to fetch product: %w", err)
	}

	printer.Printf("%s\n", product.Name)
	if !product.IsActive {
		printer.Warning("This product is no longer available.\n")
	}
	if product.Description != "" {
		printer.Printf("%s\n", product.Description)
	}
	printer.Printf("Base price: %s\n\n", printer.FormatPrice(product.BasePrice))

	if len(product.Variants) == 0 {
		return nil
	}

	printer.Printf("%s\n", printer.FormatVariants(product.Variants))

	selector, err := storefront.NewVariantSelector(product.Variants)
	if err != nil {
		// Mixed attribute schemas; the variant table above is still useful.
		app.log.WithError(err).Debug("variant selector unavailable")
		return nil
	}

	printer.Println("Options:")
	for _, facet := range selector.Facets() {
		options, err := selector.Options(facet)
		if err != nil {
			return err
		}
		printer.Printf("  %s:", facet)
		for _, opt := range options {
			if opt.IsAvailable {
				printer.Printf(" %s", opt.Value)
			} else {
				printer.Printf(" %s(unavailable)", opt.Value)
			}
		}
		printer.Printf("\n")
	}
	return nil
}
