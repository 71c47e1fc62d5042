package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/shelfstock-backend/internal/containers"
	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
)

func newContainerCmd(resolve func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container",
		Short: "Create containers and move product in and out of them",
	}

	var input containers.CreateContainersInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a batch of identical containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			containerIDs, err := resolve().containers.CreateContainers(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string][]string{"container_ids": containerIDs})
		},
	}
	create.Flags().StringVar(&input.Name, "name", "", "container name")
	create.Flags().IntVar(&input.MaxCapacity, "max-capacity", 0, "informational capacity")
	create.Flags().IntVar(&input.Quantity, "count", 1, "how many containers to create (1-1000)")
	_ = create.MarkFlagRequired("name")

	del := &cobra.Command{
		Use:   "delete CONTAINER_ID...",
		Short: "Delete empty, unbound containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := resolve().containers.DeleteContainers(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"deleted": deleted})
		},
	}

	add := &cobra.Command{
		Use:   "add CONTAINER_ID PRODUCT_ID COUNT",
		Short: "Add units of a product to a container",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := parseCount(args[2])
			if err != nil {
				return err
			}
			result, err := resolve().containers.AddProduct(cmd.Context(), args[1], args[0], count)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	remove := &cobra.Command{
		Use:   "remove CONTAINER_ID PRODUCT_ID COUNT",
		Short: "Remove units of a product from a container",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := parseCount(args[2])
			if err != nil {
				return err
			}
			result, err := resolve().containers.RemoveProduct(cmd.Context(), args[1], args[0], count)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	inspect := &cobra.Command{
		Use:   "inspect CONTAINER_ID",
		Short: "List the product lines held by a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := resolve().containers.InspectContainer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), lines)
		},
	}

	show := &cobra.Command{
		Use:   "show CONTAINER_ID",
		Short: "Show a container and the shelf it sits on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := resolve().containers.LookupContainer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}

	cmd.AddCommand(create, del, add, remove, inspect, show)
	return cmd
}

func parseCount(raw string) (int, error) {
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "count must be a whole number").
			WithDetails(map[string]any{"value": raw})
	}
	return count, nil
}
