package command

import (
	"fmt"
	"os"

	"foodgram/database"
	"foodgram/database/seed"
	"foodgram/internal/http-api/repository"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dryRun bool

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import tags and ingredients from a JSON file",
	Long: `Import reads either a JSON array of {"name", "measurement_unit"} objects
or an object with "tags" and "ingredients" arrays. Entries that already exist are
skipped, so the same file can be imported more than once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()

		cat, err := seed.Read(f)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d tags and %d ingredients from %s\n", len(cat.Tags), len(cat.Ingredients), args[0])
		if dryRun {
			color.Yellow("Dry run: nothing written")
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger()
		db, err := database.Connect(cfg, log)
		if err != nil {
			return err
		}
		defer database.Close(db)

		res, err := seed.Apply(cmd.Context(), repository.NewTagRepository(db), repository.NewIngredientRepository(db), cat)
		if err != nil {
			return err
		}

		color.Green("✓ Import completed")
		fmt.Printf("Tags:        %d created, %d already present\n", res.TagsCreated, int64(res.TagsRead)-res.TagsCreated)
		fmt.Printf("Ingredients: %d created, %d already present\n", res.IngredientsCreated, int64(res.IngredientsRead)-res.IngredientsCreated)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without touching the database")
	rootCmd.AddCommand(importCmd)
}
