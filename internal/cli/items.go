package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/itemboard/internal/ui"
)

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := app.newStore()
			res := store.FetchItems(cmd.Context())
			if !res.OK() {
				ui.Fail("ls: " + res.Err)
				return reportedError{code: 1}
			}
			ui.Panel(ui.ItemLines(store.State().Items, store.BaseURL()))
			return nil
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name...>",
		Short: "Add a new item (name can be multiple words)",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return usageError{"usage: items add <name...>"}
			}
			res := app.newStore().AddItem(cmd.Context(), name)
			if !res.OK() {
				ui.Fail("add: " + res.Err)
				return reportedError{code: 1}
			}
			ui.OK(fmt.Sprintf("added #%d %s", res.Value.ID, res.Value.Name))
			return nil
		},
	}
}
