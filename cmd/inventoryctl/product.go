package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/shelfstock-backend/internal/products"
	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
)

func newProductCmd(resolve func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Create, delete and search products",
	}

	var (
		name        string
		description string
		createIDs   []string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identifiers, err := parseIdentifiers(createIDs)
			if err != nil {
				return err
			}
			productID, err := resolve().products.CreateProduct(cmd.Context(), products.CreateProductInput{
				Name:          name,
				Description:   description,
				AdditionalIDs: identifiers,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"product_id": productID})
		},
	}
	create.Flags().StringVar(&name, "name", "", "unique product name")
	create.Flags().StringVar(&description, "description", "", "free-form description")
	create.Flags().StringArrayVar(&createIDs, "id", nil, "alternate identifier as TYPE=VALUE (repeatable)")
	_ = create.MarkFlagRequired("name")

	del := &cobra.Command{
		Use:   "delete PRODUCT_ID...",
		Short: "Delete products and their alternate identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := resolve().products.DeleteProducts(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"deleted": deleted})
		},
	}

	var addIDs []string
	addIdentifiers := &cobra.Command{
		Use:   "add-ids PRODUCT_ID",
		Short: "Attach alternate identifiers to an existing product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifiers, err := parseIdentifiers(addIDs)
			if err != nil {
				return err
			}
			view, err := resolve().products.AddProductIdentifiers(cmd.Context(), args[0], identifiers)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
	addIdentifiers.Flags().StringArrayVar(&addIDs, "id", nil, "alternate identifier as TYPE=VALUE (repeatable)")
	_ = addIdentifiers.MarkFlagRequired("id")

	var by string
	search := &cobra.Command{
		Use:   "search TERM",
		Short: "Search products by name and id fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := resolve().products
			var (
				results []products.ProductView
				err     error
			)
			switch strings.ToLower(by) {
			case "":
				results, err = svc.Search(cmd.Context(), args[0])
			case "name":
				results, err = svc.SearchByName(cmd.Context(), args[0])
			case "id":
				results, err = svc.SearchByID(cmd.Context(), args[0])
			default:
				err = pkgerrors.New(pkgerrors.CodeValidation, "--by must be name or id")
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
	search.Flags().StringVar(&by, "by", "", "restrict the search to name or id")

	cmd.AddCommand(create, del, addIdentifiers, search)
	return cmd
}

func parseIdentifiers(raw []string) ([]products.IdentifierInput, error) {
	out := make([]products.IdentifierInput, 0, len(raw))
	for _, item := range raw {
		kind, value, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(kind) == "" || strings.TrimSpace(value) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier must be TYPE=VALUE").
				WithDetails(map[string]any{"value": item})
		}
		out = append(out, products.IdentifierInput{
			IdentifierType:  strings.TrimSpace(kind),
			IdentifierValue: strings.TrimSpace(value),
		})
	}
	return out, nil
}
