package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/catalog"
	"curator/internal/workflow"
)

func newProductCommand(ctx *commandContext) *cobra.Command {
	productCmd := &cobra.Command{
		Use:   "product",
		Short: "Add and inspect products",
	}
	productCmd.AddCommand(newProductAddCommand(ctx))
	productCmd.AddCommand(newProductImportCommand(ctx))
	productCmd.AddCommand(newProductListCommand(ctx))
	return productCmd
}

func newProductAddCommand(ctx *commandContext) *cobra.Command {
	var sku string
	var attrFlags []string
	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add one product from key=value attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseAttributes(attrFlags)
			if err != nil {
				return err
			}
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				product, err := mgr.Importer().AddProduct(c, args[0], sku, attrs)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, product, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Added product %s (%s)\n", product.SKU, product.ID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&sku, "sku", "", "Product SKU (defaults to the sku attribute)")
	cmd.Flags().StringArrayVarP(&attrFlags, "attr", "a", nil, "Attribute as key=value (repeatable)")
	return cmd
}

func newProductImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <project-id> <file.csv|file.xlsx>",
		Short: "Import products from a CSV or XLSX file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer file.Close()
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				result, err := mgr.Importer().Import(c, args[0], filepath.Base(args[1]), file)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, result, func() {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Imported %s\n", countLabel(len(result.Imported), "product"))
					for _, skipped := range result.Skipped {
						fmt.Fprintf(out, "  row %d skipped: %s\n", skipped.Row, skipped.Error)
					}
				})
			})
		},
	}
}

func newProductListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List products in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				products, err := mgr.ListProducts(c, args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, products, func() {
					rows := make([][]string, 0, len(products))
					for _, p := range products {
						rows = append(rows, []string{p.ID, p.SKU, p.Source[catalog.AttrName], displayStage(p.LastStage), formatTime(p.CreatedAt)})
					}
					printTable(cmd, "No products", []string{"ID", "SKU", "Name", "Last Stage", "Created"}, rows, nil)
				})
			})
		},
	}
}

func parseAttributes(values []string) (catalog.Attributes, error) {
	attrs := make(catalog.Attributes, len(values))
	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid attribute %q (want key=value)", value)
		}
		attrs[key] = val
	}
	return attrs, nil
}

func displayStage(stage string) string {
	if stage == "" {
		return "-"
	}
	return stage
}
