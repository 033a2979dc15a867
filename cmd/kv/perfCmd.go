package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for mKV servers",
		Long:    "",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfRequests         = 0
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "requests"
	perfTestCmd.Flags().Int(key, 0, util.WrapString("Requests per test (0 lets the benchmark choose)"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfRequests = viper.GetInt("requests")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for mKV servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	// set
	setKey, setIter := getKeys("set")
	results["set"] = runTest("set", func(i int) error {
		return rpcStore.Set(setKey(i), []byte("test"))
	})

	// set-large
	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	largeKey, _ := getKeys("set-large")
	results["set-large"] = runTest("set-large", func(i int) error {
		return rpcStore.Set(largeKey(i), largeValue)
	})

	// get (keys of the set test exist)
	setIter(func(k string) {
		if err := rpcStore.Set(k, []byte("test")); err != nil {
			log.Printf("(get) - error setting key: %v\n", err)
		}
	})
	results["get"] = runTest("get", func(i int) error {
		_, _, err := rpcStore.Get(setKey(i))
		return err
	})

	// get-miss
	results["get-miss"] = runTest("get-miss", func(i int) error {
		_, _, err := rpcStore.Get(fmt.Sprintf("%s/get-miss-%d", perfKeyPrefix, i%perfKeySpread))
		return err
	})

	// mixed
	mixedKey, _ := getKeys("mixed")
	results["mixed"] = runTest("mixed", func(i int) error {
		if i%2 == 0 {
			return rpcStore.Set(mixedKey(i), []byte("test"))
		}
		_, _, err := rpcStore.Get(mixedKey(i))
		return err
	})

	// client side latency
	fmt.Println()
	fmt.Println("Client metrics:")
	printMetrics(rpcTransport.Metrics())

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runTest runs op from perfNumThreads goroutines and prints the result.
// With perfRequests > 0 exactly that many operations are run, otherwise testing.Benchmark picks the count.
func runTest(test string, op func(i int) error) testing.BenchmarkResult {
	if shouldSkip(test) {
		printResult(test, testing.BenchmarkResult{})
		return testing.BenchmarkResult{}
	}

	logErr := func(err error) {
		if err != nil {
			log.Printf("(%s) - error: %v\n", test, err)
		}
	}

	var result testing.BenchmarkResult
	if perfRequests > 0 {
		var next atomic.Int64
		var wg sync.WaitGroup
		start := time.Now()
		for t := 0; t < perfNumThreads; t++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					i := int(next.Add(1)) - 1
					if i >= perfRequests {
						return
					}
					logErr(op(i))
				}
			}()
		}
		wg.Wait()
		result = testing.BenchmarkResult{N: perfRequests, T: time.Since(start)}
	} else {
		result = testing.Benchmark(func(b *testing.B) {
			var next atomic.Int64
			b.SetParallelism(perfNumThreads)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					logErr(op(int(next.Add(1))))
				}
			})
		})
	}

	printResult(test, result)
	return result
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// printMetrics prints the timers and counters of the client transport
func printMetrics(registry gometrics.Registry) {
	registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case gometrics.Timer:
			s := m.Snapshot()
			ps := s.Percentiles([]float64{0.5, 0.99})
			fmt.Printf("%-20scount=%d mean=%s p50=%s p99=%s max=%s\n", name, s.Count(),
				time.Duration(s.Mean()), time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(s.Max()))
		case gometrics.Counter:
			fmt.Printf("%-20scount=%d\n", name, m.Count())
		}
	})
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoint", "TimeoutSec", "QueueSize", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			config.Transport.Endpoint,
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.QueueSize),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
