package main

import (
	"github.com/spf13/cobra"

	"github.com/angelmondragon/shelfstock-backend/internal/shelves"
)

func newShelfCmd(resolve func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shelf",
		Short: "Create shelves and bind containers to them",
	}

	var input shelves.CreateShelfInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a shelf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shelfID, err := resolve().shelves.CreateShelf(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"shelf_id": shelfID})
		},
	}
	create.Flags().StringVar(&input.Name, "name", "", "unique shelf name")
	create.Flags().IntVar(&input.MaxCapacity, "max-capacity", 0, "informational capacity")
	_ = create.MarkFlagRequired("name")

	del := &cobra.Command{
		Use:   "delete SHELF_ID...",
		Short: "Delete shelves that hold no containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := resolve().shelves.DeleteShelves(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"deleted": deleted})
		},
	}

	bind := &cobra.Command{
		Use:   "bind SHELF_ID CONTAINER_ID...",
		Short: "Place containers on a shelf",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings := make([]shelves.Binding, 0, len(args)-1)
			for _, containerID := range args[1:] {
				bindings = append(bindings, shelves.Binding{ContainerID: containerID, ShelfID: args[0]})
			}
			if err := resolve().shelves.BindContainers(cmd.Context(), bindings); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"bound": len(bindings)})
		},
	}

	unbind := &cobra.Command{
		Use:   "unbind CONTAINER_ID...",
		Short: "Take containers off their shelves",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unbound, err := resolve().shelves.UnbindContainers(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"unbound": unbound})
		},
	}

	inspect := &cobra.Command{
		Use:   "inspect SHELF_ID",
		Short: "List the containers bound to a shelf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			containerIDs, err := resolve().shelves.InspectShelf(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), containerIDs)
		},
	}

	cmd.AddCommand(create, del, bind, unbind, inspect)
	return cmd
}
