package cli

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/Davincible/polyrecover/internal/validation"
	"github.com/Davincible/polyrecover/pkg/crypto/radix"
	"github.com/Davincible/polyrecover/pkg/crypto/shamir"
	"github.com/Davincible/polyrecover/pkg/record"
	"github.com/Davincible/polyrecover/pkg/secure"
	"github.com/Davincible/polyrecover/pkg/storage"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func NewGenerateCommand() *cobra.Command {
	var (
		parts      int
		threshold  int
		bits       int
		basesSpec  string
		secretText string
		outputFile string
		passphrase string
		showSecret bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a record of points on a random integer polynomial",
		Long: `Hide a secret as the constant term of a random integer polynomial of
degree threshold-1 and write its values at x = 1..parts as a record.

Values are encoded cycling through --bases. Without --secret a random
secret of --bits bits is drawn. Defaults come from the generate section of
the configuration file.`,
		Example: `  # 3-of-5 record on stdout
  polyrecover generate --parts 5 --threshold 3

  # Known secret, wide coefficients, mixed bases
  polyrecover generate --secret 123456789 --bits 256 --bases 2,16,36

  # Sealed record on disk
  polyrecover generate -o shares.json --passphrase "my passphrase"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.log.Sync() //nolint:errcheck

			defaults := env.cfg.Generate
			if !cmd.Flags().Changed("parts") {
				parts = defaults.Parts
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = defaults.Threshold
			}
			if !cmd.Flags().Changed("bits") {
				bits = defaults.Bits
			}
			bases := defaults.Bases
			if cmd.Flags().Changed("bases") {
				if bases, err = validation.ParseBases(basesSpec); err != nil {
					return err
				}
			}

			if err := validation.ValidateSplitParams(parts, threshold); err != nil {
				return err
			}
			if err := validation.ValidateBits(bits); err != nil {
				return err
			}
			if passphrase != "" && outputFile == "" {
				return fmt.Errorf("--passphrase requires --output")
			}

			var secret *big.Int
			if secretText != "" {
				if secret, err = validation.ParseSecret(secretText); err != nil {
					return err
				}
			} else {
				limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
				if secret, err = rand.Int(rand.Reader, limit); err != nil {
					return fmt.Errorf("failed to generate secret: %w", err)
				}
			}
			defer secure.ZeroInt(secret)

			points, err := shamir.Split(secret, shamir.Config{Parts: parts, Threshold: threshold}, bits)
			if err != nil {
				return err
			}

			rec, err := buildRecord(points, threshold, bases)
			if err != nil {
				return err
			}
			env.log.Debugw("generated record", "n", rec.N, "k", rec.K, "bits", bits, "bases", bases)

			stderr := cmd.ErrOrStderr()
			if showSecret {
				red := color.New(color.FgRed, color.Bold)
				red.Fprint(stderr, "Secret: ")
				fmt.Fprintln(stderr, secret.String())
			}

			if outputFile == "" {
				data, err := rec.Marshal()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			pass := []byte(passphrase)
			defer secure.Zero(pass)

			store := storage.NewOSRecordStore(outputFile)
			if err := store.Save(rec, pass); err != nil {
				return fmt.Errorf("failed to save record: %w", err)
			}

			green := color.New(color.FgGreen)
			sealed := ""
			if len(pass) > 0 {
				sealed = " (sealed)"
			}
			green.Fprintf(stderr, "✓ Wrote %d-of-%d record to %s%s\n", threshold, parts, store.Path(), sealed)
			env.log.Infow("record written", "path", store.Path(), "sealed", len(pass) > 0)

			return nil
		},
	}

	cmd.Flags().IntVarP(&parts, "parts", "n", 0, "Number of points to generate")
	cmd.Flags().IntVarP(&threshold, "threshold", "k", 0, "Points needed to recover the secret")
	cmd.Flags().IntVar(&bits, "bits", 0, "Bit size of random coefficients and of a random secret")
	cmd.Flags().StringVar(&basesSpec, "bases", "", "Comma separated bases used to encode values, e.g. 10,16,2")
	cmd.Flags().StringVarP(&secretText, "secret", "s", "", "Decimal secret (random when omitted)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the record to this file instead of stdout")
	cmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "Seal the output file with this passphrase")
	cmd.Flags().BoolVar(&showSecret, "show-secret", false, "Print the secret to stderr")

	return cmd
}

func buildRecord(points []shamir.Point, threshold int, bases []int) (*record.Record, error) {
	rec := &record.Record{
		N:       len(points),
		K:       threshold,
		Entries: make([]record.Entry, 0, len(points)),
	}

	for i, p := range points {
		base := bases[i%len(bases)]
		value, err := radix.Encode(p.Y, base)
		if err != nil {
			return nil, fmt.Errorf("failed to encode point %d: %w", p.X, err)
		}
		rec.Entries = append(rec.Entries, record.Entry{
			Key:   fmt.Sprintf("%d", p.X),
			X:     p.X,
			Value: value,
			Base:  base,
		})
	}

	return rec, nil
}
