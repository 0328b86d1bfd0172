package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/allertrack/backend/internal/domain"
	"github.com/allertrack/backend/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Resolve barcodes typed or scanned on stdin, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			return runScan(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.products, a.catalog, a.logger)
		},
	}
}

// runScan resolves one barcode per input line until EOF
func runScan(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
	local domain.LocalFinder,
	catalog domain.CatalogFinder,
	logger *zap.Logger,
) error {
	resolver := usecase.NewBarcodeResolver(local, catalog, usecase.ResolverHandlers{
		OnProductFound: func(productID string) {
			fmt.Fprintf(out, "  open product %s\n", productID)
		},
		OnCatalogData: func(form domain.ProductForm) {
			printForm(out, form)
		},
	}, usecase.NotifierFunc(func(notice domain.Notice) {
		fmt.Fprintf(out, "[%s] %s\n", notice.Kind, notice.Message)
	}), logger)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resolver.SetBarcode(scanner.Text())
		// A blank line is reported through the notifier
		_ = resolver.Trigger(ctx)
		resolver.Wait()
	}
	return scanner.Err()
}

func printForm(out io.Writer, form domain.ProductForm) {
	fmt.Fprintf(out, "  new product for %s\n", form.Barcode)
	fields := []struct {
		label string
		value *string
	}{
		{"name", form.Name},
		{"brand", form.Brand},
		{"description", form.Description},
		{"allergens", form.AllergenWarning},
		{"ingredients", form.Ingredients},
		{"image", form.ImageURL},
	}
	for _, f := range fields {
		if f.value != nil {
			fmt.Fprintf(out, "  %-12s %s\n", f.label+":", strings.TrimSpace(*f.value))
		}
	}
}
