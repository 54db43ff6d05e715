package discovery

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/cuemby/arbiter/pkg/types"
)

// Discover counts entries under <srcDir>/input/ and returns one TestCase
// per index 1..N. File names follow "<prefix><index>.txt" within the
// fixed "input" and "output" directories — inputPrefix/outputPrefix only
// vary the filename, never the directory, matching the original
// executor's run(input_prefix=, output_prefix=) contract. Existence of
// the expected-output file is not checked here — a missing one is a
// run-time JE, not a discovery-time error.
func Discover(srcDir, inputPrefix, outputPrefix string) ([]types.TestCase, error) {
	inputDir := filepath.Join(srcDir, "input")
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", inputDir, err)
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}

	cases := make([]types.TestCase, 0, count)
	for i := 1; i <= count; i++ {
		cases = append(cases, types.TestCase{
			Index:              i,
			InputPath:          filepath.Join(inputDir, fmt.Sprintf("%s%d.txt", inputPrefix, i)),
			ExpectedOutputPath: filepath.Join(srcDir, "output", fmt.Sprintf("%s%d.txt", outputPrefix, i)),
		})
	}
	return cases, nil
}

// Order returns the visitation permutation of cases. With shuffle=false
// it is the identity order. With shuffle=true it is a pseudo-random
// permutation seeded from seed, so a supplied seed reproduces the same
// order across runs; the returned TestCase values are unchanged — only
// their position in the slice moves.
func Order(cases []types.TestCase, shuffle bool, seed uint64) []types.TestCase {
	ordered := make([]types.TestCase, len(cases))
	copy(ordered, cases)
	if !shuffle {
		return ordered
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	rng.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})
	return ordered
}
