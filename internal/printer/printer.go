package printer

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/aethershop/aether/internal/checkout"
	"github.com/aethershop/aether/internal/pricing"
	"github.com/aethershop/aether/pkg/storefront"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	// Color definitions
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Printf("✓ %s", msg)
	} else {
		green.Print(msg)
	}
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Printf("⚠️  %s", msg)
	} else {
		yellow.Print(msg)
	}
}

// Error creates a formatted error message with title, explanation, and suggestions
// Prints the formatted error to stderr with colors and returns a simple error for Cobra
func Error(title string, explanation string, suggestions []string) error {
	// Print title in red to stderr
	red.Fprintf(os.Stderr, "%s\n\n", title)

	// Print explanation
	fmt.Fprintf(os.Stderr, "%s\n", explanation)

	// Print suggestions
	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(os.Stderr, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(os.Stderr, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Printf("→ %s", fmt.Sprintf(format, a...))
}

// Println prints a plain message (for output that doesn't need coloring)
func Println(a ...any) {
	fmt.Println(a...)
}

// Printf prints a plain formatted message (for output that doesn't need coloring)
func Printf(format string, a ...any) {
	fmt.Printf(format, a...)
}

// FormatCart renders the authenticated cart as an aligned table.
func FormatCart(cart *storefront.Cart) string {
	if cart == nil || len(cart.Items) == 0 {
		return "Your cart is empty.\n"
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tVARIANT\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range cart.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			item.Product.Name,
			formatAttributes(item.ProductVariant.Attributes),
			item.Quantity,
			FormatPrice(item.PriceSnapshot),
			FormatPrice(item.Subtotal),
		)
	}
	w.Flush()
	sb.WriteString(fmt.Sprintf("\n%d item(s), subtotal %s\n", cart.ItemCount, FormatPrice(cart.Subtotal)))
	return sb.String()
}

// FormatGuestCart renders the local guest cart. Guest entries carry no price
// information; the server prices them at merge time.
func FormatGuestCart(items []storefront.GuestCartItem) string {
	if len(items) == 0 {
		return "Your cart is empty.\n"
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tQTY")
	total := 0
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%d\n", item.ProductVariantID, item.Quantity)
		total += item.Quantity
	}
	w.Flush()
	sb.WriteString(fmt.Sprintf("\n%d item(s) (guest cart, sign in to price and check out)\n", total))
	return sb.String()
}

// FormatSummary renders a priced checkout preview.
func FormatSummary(s pricing.Summary) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Subtotal\t%s\n", FormatPrice(s.Subtotal))
	if s.Discount > 0 {
		fmt.Fprintf(w, "Discount\t-%s\n", FormatPrice(s.Discount))
	}
	fmt.Fprintf(w, "Tax\t%s\n", FormatPrice(s.Tax))
	if s.Delivery == 0 {
		fmt.Fprintf(w, "Delivery\tFREE\n")
	} else {
		fmt.Fprintf(w, "Delivery\t%s\n", FormatPrice(s.Delivery))
	}
	fmt.Fprintf(w, "Total\t%s\n", FormatPrice(s.Total))
	w.Flush()
	return sb.String()
}

// FormatStockError renders one stock validation failure with its suggested fix.
func FormatStockError(e checkout.ItemError) string {
	var reason string
	switch e.Reason {
	case storefront.StockErrorOutOfStock:
		reason = "out of stock"
	case storefront.StockErrorInsufficientStock:
		reason = fmt.Sprintf("only %d of %d available", e.AvailableQty, e.RequestedQty)
	case storefront.StockErrorProductInactive:
		reason = "no longer available"
	default:
		reason = string(e.Reason)
	}

	var fix string
	switch e.Action {
	case checkout.ActionAdjust:
		fix = fmt.Sprintf("reduce quantity to %d", e.AdjustedQty)
	case checkout.ActionRemove:
		fix = "remove it from your cart"
	}

	if fix == "" {
		return fmt.Sprintf("%s: %s", e.ProductName, reason)
	}
	return fmt.Sprintf("%s: %s (%s)", e.ProductName, reason, fix)
}

// FormatVariants renders a product's variants, flagging what cannot be bought.
func FormatVariants(variants []storefront.ProductVariant) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SKU\tOPTIONS\tPRICE\tSTOCK")
	for _, v := range variants {
		stock := fmt.Sprintf("%d", v.StockQuantity)
		if !v.IsActive {
			stock = "inactive"
		} else if !v.Purchasable() {
			stock = "out of stock"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.SKU, formatAttributes(v.Attributes), FormatPrice(v.FinalPrice), stock)
	}
	w.Flush()
	return sb.String()
}

// FormatOrder renders a placed order with its server-computed totals.
func FormatOrder(order *storefront.Order) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Order %s (%s)\n\n", order.OrderNumber, order.Status))
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tSKU\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range order.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			item.ProductName, item.SKU, item.Quantity,
			FormatPrice(item.PriceSnapshot), FormatPrice(item.Subtotal))
	}
	w.Flush()
	sb.WriteString("\n")
	sb.WriteString(FormatSummary(pricing.Summary{
		Subtotal: order.Subtotal,
		Discount: order.Discount,
		Tax:      order.Tax,
		Delivery: order.DeliveryFee,
		Total:    order.Total,
	}))
	return sb.String()
}

// FormatPrice renders a monetary amount.
func FormatPrice(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// formatAttributes renders a variant's attribute map as "key: value" pairs in
// stable order.
func formatAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, attrs[k]))
	}
	return strings.Join(parts, ", ")
}
