// Empire back-office CLI: quote upgrade ladders and inspect or mutate
// an empire snapshot file offline.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/castevet/empire-core/internal/empire"
	"github.com/castevet/empire-core/internal/loader"
	"github.com/castevet/empire-core/internal/models"
)

var (
	dataDir      string
	snapshotFile string
	quiet        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "empire",
		Short: "Empire progression back office",
		Long: `Inspect and drive an empire snapshot against the progression
engine: quote upgrade ladders, preview and enqueue builds, manage the
officer roster.`,
	}
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "data", "Path to catalog data directory")
	rootCmd.PersistentFlags().StringVarP(&snapshotFile, "snapshot", "s", "", "Path to empire snapshot JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")

	rootCmd.AddCommand(costsCmd(), previewCmd(), buildCmd(), officersCmd(), bonusesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func banner() {
	if quiet {
		return
	}
	titleColor := color.New(color.FgCyan, color.Bold)
	titleColor.Println("\n╭───────────────────────────╮")
	titleColor.Println("│  Empire Progression Core  │")
	titleColor.Println("╰───────────────────────────╯")
	fmt.Println()
}

func loadEngine() *empire.Engine {
	catalog, err := loader.Load(dataDir)
	if err != nil {
		color.Red("Error loading catalog: %v", err)
		os.Exit(1)
	}
	return empire.NewEngine(catalog)
}

func loadSnapshot() *models.Empire {
	if snapshotFile == "" {
		color.Red("Error: --snapshot is required")
		os.Exit(1)
	}
	e, err := models.LoadEmpire(snapshotFile)
	if err != nil {
		color.Red("Error loading snapshot: %v", err)
		os.Exit(1)
	}
	return e
}

func saveSnapshot(e *models.Empire) {
	if err := models.SaveEmpire(snapshotFile, e); err != nil {
		color.Red("Error saving snapshot: %v", err)
		os.Exit(1)
	}
}

func pickPlanet(e *models.Empire, planetID string) string {
	if planetID != "" {
		return planetID
	}
	if len(e.Planets) == 1 {
		for id := range e.Planets {
			return id
		}
	}
	color.Red("Error: --planet is required when the empire has several planets")
	os.Exit(1)
	return ""
}

func costsCmd() *cobra.Command {
	var structure string
	var from, to int
	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Quote the cumulative cost ladder for one structure",
		Run: func(cmd *cobra.Command, args []string) {
			banner()
			ng := loadEngine()
			plan, err := ng.CostModel().PlanUpgrade(models.StructureKey(structure), from, to, nil)
			if err != nil {
				color.Red("Error: %v", err)
				os.Exit(1)
			}

			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Level", "Metal", "Crystal", "Deuterium", "Duration"}),
			)
			for _, step := range plan.Steps {
				_ = table.Append([]string{
					fmt.Sprintf("%d", step.Level),
					fmt.Sprintf("%d", step.Quote.Cost.Metal),
					fmt.Sprintf("%d", step.Quote.Cost.Crystal),
					fmt.Sprintf("%d", step.Quote.Cost.Deuterium),
					formatDuration(step.Quote.Time),
				})
			}
			_ = table.Render()

			successColor := color.New(color.FgGreen, color.Bold)
			successColor.Printf("\n✓ %s %d → %d: M:%d C:%d D:%d over %s\n",
				formatStructureName(structure), from, to,
				plan.TotalCost.Metal, plan.TotalCost.Crystal, plan.TotalCost.Deuterium,
				formatDuration(plan.TotalTime))
		},
	}
	cmd.Flags().StringVarP(&structure, "structure", "k", "", "Structure key")
	cmd.Flags().IntVar(&from, "from", 0, "Current level")
	cmd.Flags().IntVar(&to, "to", 1, "Target level")
	_ = cmd.MarkFlagRequired("structure")
	return cmd
}

func previewCmd() *cobra.Command {
	var structure, planetID string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview the effective cost of the next upgrade",
		Run: func(cmd *cobra.Command, args []string) {
			banner()
			ng := loadEngine()
			e := loadSnapshot()
			quote, rej, err := ng.PreviewCost(e, pickPlanet(e, planetID), models.StructureKey(structure))
			if err != nil {
				color.Red("Error: %v", err)
				os.Exit(1)
			}
			if rej != nil {
				// The quote still comes back for anything priceable.
				if quote != (empire.Quote{}) {
					color.Yellow("%s would cost M:%d C:%d D:%d over %s",
						formatStructureName(structure),
						quote.Cost.Metal, quote.Cost.Crystal, quote.Cost.Deuterium,
						formatDuration(quote.Time))
				}
				printRejection(rej)
				os.Exit(1)
			}
			successColor := color.New(color.FgGreen, color.Bold)
			successColor.Printf("✓ %s: M:%d C:%d D:%d, takes %s\n",
				formatStructureName(structure),
				quote.Cost.Metal, quote.Cost.Crystal, quote.Cost.Deuterium,
				formatDuration(quote.Time))
		},
	}
	cmd.Flags().StringVarP(&structure, "structure", "k", "", "Structure key")
	cmd.Flags().StringVarP(&planetID, "planet", "p", "", "Planet id")
	_ = cmd.MarkFlagRequired("structure")
	return cmd
}

func buildCmd() *cobra.Command {
	var structure, planetID string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Enqueue an upgrade and write the snapshot back",
		Run: func(cmd *cobra.Command, args []string) {
			banner()
			ng := loadEngine()
			e := loadSnapshot()
			c, quote, rej, err := ng.Build(e, pickPlanet(e, planetID), models.StructureKey(structure))
			if err != nil {
				color.Red("Error: %v", err)
				os.Exit(1)
			}
			if rej != nil {
				printRejection(rej)
				os.Exit(1)
			}
			saveSnapshot(e)
			successColor := color.New(color.FgGreen, color.Bold)
			successColor.Printf("✓ %s → level %d, paid M:%d C:%d D:%d, done at %s\n",
				formatStructureName(structure), c.TargetLevel,
				quote.Cost.Metal, quote.Cost.Crystal, quote.Cost.Deuterium,
				c.CompletesAt.Local().Format(time.RFC822))
		},
	}
	cmd.Flags().StringVarP(&structure, "structure", "k", "", "Structure key")
	cmd.Flags().StringVarP(&planetID, "planet", "p", "", "Planet id")
	_ = cmd.MarkFlagRequired("structure")
	return cmd
}

func officersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "officers",
		Short: "Show the officer roster",
		Run: func(cmd *cobra.Command, args []string) {
			banner()
			ng := loadEngine()
			e := loadSnapshot()
			if err := ng.Tick(e); err != nil {
				color.Red("Error: %v", err)
				os.Exit(1)
			}
			saveSnapshot(e)

			if len(e.Officers) == 0 {
				fmt.Println("No officers hired.")
				return
			}
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Officer", "Archetype", "Rank", "XP", "Active", "Bonuses"}),
			)
			for _, o := range e.Officers {
				activeStr := "no"
				if o.Active {
					activeStr = "yes"
				}
				_ = table.Append([]string{
					o.Name,
					string(o.Archetype),
					fmt.Sprintf("%d", o.Rank),
					fmt.Sprintf("%d/%d", o.Experience, o.ExperienceToNextRank),
					activeStr,
					formatBonuses(o.BaseBonuses),
				})
			}
			_ = table.Render()
		},
	}
	return cmd
}

func bonusesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bonuses",
		Short: "Show the aggregated bonus totals of active officers",
		Run: func(cmd *cobra.Command, args []string) {
			banner()
			ng := loadEngine()
			e := loadSnapshot()
			totals, err := ng.AggregateBonuses(e)
			if err != nil {
				color.Red("Error: %v", err)
				os.Exit(1)
			}
			saveSnapshot(e)

			if len(totals) == 0 {
				fmt.Println("No active bonuses.")
				return
			}
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Bonus", "Total"}),
			)
			for _, k := range models.AllBonusKeys() {
				if v, ok := totals[k]; ok {
					_ = table.Append([]string{k.DisplayName(), fmt.Sprintf("%+d%%", v)})
				}
			}
			_ = table.Render()
		},
	}
	return cmd
}

func printRejection(rej *empire.Rejection) {
	color.Red("✗ rejected: %s", rej.Reason)
	if len(rej.Missing) > 0 {
		for dep, lvl := range rej.Missing {
			fmt.Printf("   requires %s level %d\n", formatStructureName(string(dep)), lvl)
		}
	}
	if !rej.Shortfall.IsZero() {
		s := rej.Shortfall
		fmt.Printf("   short by M:%d C:%d D:%d DM:%d\n", s.Metal, s.Crystal, s.Deuterium, s.DarkMatter)
	}
	if rej.Remaining > 0 {
		fmt.Printf("   ready in %s\n", formatDuration(rej.Remaining))
	}
}

func formatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func formatStructureName(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatBonuses(bonuses map[models.BonusKey]int) string {
	var parts []string
	for _, k := range models.AllBonusKeys() {
		if v, ok := bonuses[k]; ok {
			parts = append(parts, fmt.Sprintf("%s %+d%%", k.DisplayName(), v))
		}
	}
	return strings.Join(parts, ", ")
}
