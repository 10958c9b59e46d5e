package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"bullish/internal/config"
	"bullish/internal/game"
	"bullish/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagGroup  string
	flagUser   string
	flagName   string
	flagTarget string
)

func main() {
	root := &cobra.Command{
		Use:          "bull",
		Short:        "Bullish creature-economy game driver",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagGroup, "group", "default", "group id")
	root.PersistentFlags().StringVar(&flagUser, "user", "", "acting user id")
	root.PersistentFlags().StringVar(&flagName, "name", "", "acting user nickname")

	root.AddCommand(
		newActionCmd("register", "Register your creature", game.ActionRegister),
		newActionCmd("greet", "Daily check-in for coins", game.ActionGreet),
		newActionCmd("train", "Train your creature", game.ActionTrain),
		newActionCmd("fly", "Take a flight for coins", game.ActionFly),
		newActionCmd("brawl", "Start a group brawl", game.ActionBrawl),
		newDuelCmd(),
		newRobCmd(),
		newRushCmd(),
		newShopCmd(),
		newBuyCmd(),
		newSubscribeCmd(),
		newStockCmd(),
		newStatusCmd(),
		newRankCmd(),
		newAdminCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newService() (*game.Service, func(), error) {
	cfg := config.LoadCoreFromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var st store.Store
	cleanup := func() {}
	if cfg.StoreBackend == "postgres" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		pg, err := store.ConnectPG(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		st = pg
		cleanup = pg.Close
	} else {
		st = store.NewFileStore(cfg.DataDir)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	catalog, err := game.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Warn("catalog load failed, using defaults", "err", err)
	}
	return game.NewService(st, logger, loc, catalog), cleanup, nil
}

func runAction(in game.ActionInput) error {
	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	in.GroupID = flagGroup
	in.ActorID = flagUser
	in.ActorName = flagName
	if in.ActorID == "" {
		return fmt.Errorf("--user is required")
	}
	if in.ActorName == "" {
		in.ActorName = in.ActorID
	}

	msgs, err := svc.HandleAction(in)
	for _, m := range msgs {
		printSuccess(m)
	}
	if err != nil {
		printError(err.Error())
	}
	return nil
}

func newActionCmd(use, short string, kind game.ActionKind) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(game.ActionInput{Kind: kind})
		},
	}
}

func newDuelCmd() *cobra.Command {
	var bet int64
	cmd := &cobra.Command{
		Use:   "duel",
		Short: "Challenge another player",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(game.ActionInput{Kind: game.ActionDuel, TargetID: flagTarget, Amount: bet})
		},
	}
	cmd.Flags().StringVar(&flagTarget, "target", "", "target user id")
	cmd.Flags().Int64Var(&bet, "bet", 0, "optional coin bet")
	return cmd
}

func newRobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rob",
		Short: "Rob another player's coins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(game.ActionInput{Kind: game.ActionRob, TargetID: flagTarget})
		},
	}
	cmd.Flags().StringVar(&flagTarget, "target", "", "target user id")
	return cmd
}

func newRushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rush [start|stop]",
		Short: "Run a background earning session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "start":
				return runAction(game.ActionInput{Kind: game.ActionRushStart})
			case "stop":
				return runAction(game.ActionInput{Kind: game.ActionRushStop})
			}
			return fmt.Errorf("unknown rush subcommand: %s", args[0])
		},
	}
	return cmd
}

func newShopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shop",
		Short: "List the item catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadCoreFromEnv()
			catalog, err := game.LoadCatalog(cfg.CatalogPath)
			if err != nil {
				return err
			}
			printCatalog(catalog)
			return nil
		},
	}
}

func newBuyCmd() *cobra.Command {
	var itemID int
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy a shop item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(game.ActionInput{Kind: game.ActionBuyItem, ItemID: itemID, TargetID: flagTarget})
		},
	}
	cmd.Flags().IntVar(&itemID, "item", 0, "item id from `bull shop`")
	cmd.Flags().StringVar(&flagTarget, "target", "", "target user id (items that need one)")
	return cmd
}

func newSubscribeCmd() *cobra.Command {
	var plan string
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Buy a subscription plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(game.ActionInput{Kind: game.ActionSubscribe, Plan: plan})
		},
	}
	cmd.Flags().StringVar(&plan, "plan", "", "plan: prime, guardian or tithe")
	return cmd
}

func newStockCmd() *cobra.Command {
	var coins int64
	var shares float64
	cmd := &cobra.Command{
		Use:   "stock [buy|sell|show]",
		Short: "Trade the group instrument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "buy":
				return runAction(game.ActionInput{Kind: game.ActionStockBuy, Amount: coins})
			case "sell":
				return runAction(game.ActionInput{Kind: game.ActionStockSell, Shares: shares})
			case "show":
				svc, cleanup, err := newService()
				if err != nil {
					return err
				}
				defer cleanup()
				printInstrument(svc.InstrumentView(flagGroup))
				return nil
			}
			return fmt.Errorf("unknown stock subcommand: %s", args[0])
		},
	}
	cmd.Flags().Int64Var(&coins, "coins", 0, "coins to spend (buy)")
	cmd.Flags().Float64Var(&shares, "shares", 0, "shares to sell")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your creature",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := newService()
			if err != nil {
				return err
			}
			defer cleanup()
			p, ok := svc.PlayerView(flagGroup, flagUser)
			if !ok {
				printError("not registered")
				return nil
			}
			printStatus(p)
			return nil
		},
	}
}

func newRankCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Show the group ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := newService()
			if err != nil {
				return err
			}
			defer cleanup()
			printRanking(svc.GroupPlayers(flagGroup))
			return nil
		},
	}
}

func newAdminCmd() *cobra.Command {
	var amount int64
	cmd := &cobra.Command{
		Use:   "admin [enable|disable|packet|subsidy|bailout]",
		Short: "Administrative group operations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := map[string]game.ActionKind{
				"enable":  game.ActionAdminEnable,
				"disable": game.ActionAdminDisable,
				"packet":  game.ActionAdminPacket,
				"subsidy": game.ActionAdminSubsidy,
				"bailout": game.ActionAdminBailout,
			}
			kind, ok := kinds[args[0]]
			if !ok {
				return fmt.Errorf("unknown admin subcommand: %s", args[0])
			}
			return runAction(game.ActionInput{Kind: kind, Amount: amount, TargetID: flagTarget})
		},
	}
	cmd.Flags().Int64Var(&amount, "amount", 0, "coins for packet/subsidy")
	cmd.Flags().StringVar(&flagTarget, "target", "", "target user id")
	return cmd
}
