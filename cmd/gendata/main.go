package main

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"pkg.jsn.cam/toygrep/cmd/gendata/generator"
)

// generates large line files for toygrep runs

const progressBatch = 4096

var (
	generatorName string
	count         int64
	outputPath    string
	seed          uint64
	keyword       string
	rate          float64
)

func main() {
	root := &cobra.Command{
		Use:   "gendata",
		Short: "Generate line-oriented test data",
		Long: "Generate line-oriented test data. Available generators: " +
			strings.Join(generator.List(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate()
		},
		SilenceUsage: true,
	}

	root.Flags().StringVarP(&generatorName, "generator", "g", "applog", "Generator to use")
	root.Flags().Int64VarP(&count, "count", "n", 0, "Number of lines (0 uses the generator default)")
	root.Flags().StringVarP(&outputPath, "output", "o", "var/testdata.log", "Output file path")
	root.Flags().Uint64Var(&seed, "seed", 1, "Random seed")
	root.Flags().StringVarP(&keyword, "keyword", "k", "", "Keyword to plant in some lines")
	root.Flags().Float64Var(&rate, "rate", 0.01, "Fraction of lines that get the keyword")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func generate() error {
	g, err := generator.Get(generatorName)
	if err != nil {
		return err
	}

	g = generator.Inject(g, keyword, rate)
	g.Init(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))

	if count <= 0 {
		count = g.DefaultCount()
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriterSize(file, 1<<20)
	bar := progressbar.Default(count, "generating "+generatorName)

	for i := int64(0); i < count; i++ {
		if err := g.WriteLine(w); err != nil {
			return fmt.Errorf("write line %d: %w", i, err)
		}
		if (i+1)%progressBatch == 0 {
			bar.Add(progressBatch)
		}
	}
	bar.Set64(count)
	bar.Finish()

	if err := w.Flush(); err != nil {
		return err
	}

	info, err := file.Stat()
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %s lines (%s) to %s\n",
		humanize.Comma(count), humanize.Bytes(uint64(info.Size())), outputPath)
	fmt.Printf("  Format: %s\n", g.Description())

	return nil
}
