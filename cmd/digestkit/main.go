package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"edu/digestkit/pkg/digest"
	"edu/digestkit/pkg/digest/backend"
	"edu/digestkit/pkg/mac"
)

var (
	algoName string
	accel    bool
)

var rootCmd = &cobra.Command{
	Use:   "digestkit",
	Short: "digestkit - message digests over a pluggable hashing backend",
	Long: `digestkit computes message digests and HMACs for files or stdin
using a small fixed registry of algorithms (MD5, SHA1, SHA256, SHA384, SHA512).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if algoName == "" {
			algoName = viper.GetString("algorithm")
		}
	},
}

var sumCmd = &cobra.Command{
	Use:   "sum [files...]",
	Short: "Print digests of files (or stdin)",
	RunE:  runSum,
}

var hmacCmd = &cobra.Command{
	Use:   "hmac [files...]",
	Short: "Print keyed HMACs of files (or stdin)",
	RunE:  runHMAC,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported algorithms",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range digest.List() {
			alg, _ := digest.AlgorithmByName(name)
			fmt.Printf("  %-8s %d bytes\n", name, alg.Size())
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&algoName, "algorithm", "a", "", "Digest algorithm (default: SHA256)")
	rootCmd.PersistentFlags().BoolVar(&accel, "accel", false, "Use the SIMD-accelerated backend where available (sum only)")

	hmacCmd.Flags().String("key", "", "HMAC key (literal string)")
	hmacCmd.Flags().String("key-hex", "", "HMAC key (hex encoded)")

	rootCmd.AddCommand(sumCmd)
	rootCmd.AddCommand(hmacCmd)
	rootCmd.AddCommand(listCmd)

	viper.SetEnvPrefix("DIGESTKIT")
	viper.AutomaticEnv()
	viper.SetDefault("algorithm", "SHA256")
}

func provider() backend.Provider {
	if accel {
		return backend.Accelerated()
	}
	return backend.Portable()
}

// sumReader runs one full context lifecycle over a reader.
func sumReader(p backend.Provider, alg digest.Algorithm, r io.Reader) (string, error) {
	c, err := digest.StartWith(p, alg)
	if err != nil {
		return "", err
	}
	defer c.Close()

	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if uerr := c.Update(buf[:n]); uerr != nil {
				return "", uerr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	out := make([]byte, alg.Size())
	if err := c.Final(out); err != nil {
		return "", err
	}
	return hex.EncodeToString(out), nil
}

func runSum(cmd *cobra.Command, args []string) error {
	alg, err := digest.AlgorithmByName(algoName)
	if err != nil {
		return err
	}
	p := provider()

	if len(args) == 0 {
		sum, err := sumReader(p, alg, os.Stdin)
		if err != nil {
			return err
		}
		fmt.Printf("%s  -\n", sum)
		return nil
	}
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		sum, err := sumReader(p, alg, f)
		f.Close()
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", sum, path)
	}
	return nil
}

func runHMAC(cmd *cobra.Command, args []string) error {
	// the accelerated backend cannot duplicate in-flight state, which
	// the HMAC construction depends on
	if accel {
		return fmt.Errorf("--accel applies to sum only")
	}
	alg, err := digest.AlgorithmByName(algoName)
	if err != nil {
		return err
	}
	keyStr, _ := cmd.Flags().GetString("key")
	keyHex, _ := cmd.Flags().GetString("key-hex")

	var key []byte
	switch {
	case keyHex != "":
		key, err = hex.DecodeString(keyHex)
		if err != nil {
			return fmt.Errorf("invalid --key-hex: %v", err)
		}
	case keyStr != "":
		key = []byte(keyStr)
	default:
		return fmt.Errorf("one of --key or --key-hex is required")
	}

	macReader := func(r io.Reader) (string, error) {
		m, err := mac.New(alg, key)
		if err != nil {
			return "", err
		}
		defer m.Close()
		buf := make([]byte, 32*1024)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				if werr := m.Write(buf[:n]); werr != nil {
					return "", werr
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", err
			}
		}
		out := make([]byte, m.Size())
		if err := m.Sum(out); err != nil {
			return "", err
		}
		return hex.EncodeToString(out), nil
	}

	if len(args) == 0 {
		sum, err := macReader(os.Stdin)
		if err != nil {
			return err
		}
		fmt.Printf("%s  -\n", sum)
		return nil
	}
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		sum, err := macReader(f)
		f.Close()
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", sum, path)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
