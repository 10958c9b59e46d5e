package main

import (
	"fmt"
	"sort"
	"time"

	"bullish/internal/game"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	rowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	topStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func printCatalog(items []game.ItemSpec) {
	accent.Println("Item Shop")
	fmt.Printf("%-4s %-18s %8s %-8s %s\n", "ID", "NAME", "PRICE", "TYPE", "EFFECT")
	for _, it := range items {
		fmt.Printf("%-4d %-18s %8d %-8s %s\n", it.ID, it.Name, it.Price, it.Type, it.Desc)
	}
}

func printStatus(p game.PlayerRecord) {
	accent.Printf("%s\n", p.Nickname)
	fmt.Printf("length   %d\n", p.Length)
	fmt.Printf("hardness %d\n", p.Hardness)
	fmt.Printf("coins    %d\n", p.Coins)
	if p.Rushing {
		printWarn("currently rushing")
	}
	if p.Affliction != nil && p.Affliction.Active {
		danger.Printf("afflicted: %d steps remaining\n", p.Affliction.RemainingSteps)
	}
	if p.Parasite != nil {
		printWarn("a parasite siphons your gains")
	}
	if len(p.Items) > 0 {
		accent.Println("Inventory")
		names := make([]string, 0, len(p.Items))
		for name := range p.Items {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-18s x%d\n", name, p.Items[name])
		}
	}
}

func printRanking(players map[string]game.PlayerRecord) {
	if len(players) == 0 {
		printInfo("No players registered yet.")
		return
	}
	type row struct {
		id string
		p  game.PlayerRecord
	}
	rows := make([]row, 0, len(players))
	for id, p := range players {
		rows = append(rows, row{id, p})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].p.Length != rows[j].p.Length {
			return rows[i].p.Length > rows[j].p.Length
		}
		return rows[i].id < rows[j].id
	})

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-4s %-20s %8s %8s %10s", "#", "NAME", "LENGTH", "HARD", "COINS")))
	for i, r := range rows {
		line := fmt.Sprintf("%-4d %-20s %8d %8d %10d", i+1, truncate(r.p.Nickname, 20), r.p.Length, r.p.Hardness, r.p.Coins)
		if i == 0 {
			fmt.Println(topStyle.Render(line))
		} else {
			fmt.Println(rowStyle.Render(line))
		}
	}
}

func printInstrument(st game.StockRecord) {
	accent.Printf("Group instrument: %.2f coins/share\n", st.Price)
	if len(st.Holdings) > 0 {
		fmt.Printf("%-20s %12s\n", "HOLDER", "SHARES")
		holders := make([]string, 0, len(st.Holdings))
		for id := range st.Holdings {
			holders = append(holders, id)
		}
		sort.Strings(holders)
		for _, id := range holders {
			fmt.Printf("%-20s %12.2f\n", id, st.Holdings[id])
		}
	}
	if len(st.Events) == 0 {
		printInfo("No market activity yet.")
		return
	}
	accent.Println("Recent events")
	n := len(st.Events)
	if n > 10 {
		n = 10
	}
	for _, ev := range st.Events[len(st.Events)-n:] {
		ts := time.Unix(ev.Time, 0).Format("01-02 15:04")
		line := fmt.Sprintf("%s %+7.2f%% %s", ts, ev.ChangePct, ev.Description)
		if ev.Direction > 0 {
			success.Println(line)
		} else {
			danger.Println(line)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
