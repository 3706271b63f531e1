package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dimas/aruna/internal/config"
	"github.com/dimas/aruna/pkg/state"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "List saved conversations",
	RunE:    runConversationsList,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

func init() {
	conversationsCmd.AddCommand(conversationsDeleteCmd)
	rootCmd.AddCommand(conversationsCmd)
}

func openStore() (*state.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return state.NewStore(cfg.ConversationsDir())
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No saved conversations.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted conversation %q.\n", args[0])
	return nil
}
