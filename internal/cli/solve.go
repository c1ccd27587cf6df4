package cli

import (
	"fmt"
	"io"
	"math/big"

	"github.com/Davincible/polyrecover/internal/logger"
	"github.com/Davincible/polyrecover/internal/validation"
	"github.com/Davincible/polyrecover/pkg/record"
	"github.com/Davincible/polyrecover/pkg/secure"
	"github.com/Davincible/polyrecover/pkg/storage"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

type solveResult struct {
	Record       string `json:"record"`
	ConstantTerm string `json:"constant_term"`
	Bits         int    `json:"bits"`
	Threshold    int    `json:"k"`
	Points       int    `json:"points"`

	value *big.Int
}

// NewSolveCommand creates the solve command
func NewSolveCommand() *cobra.Command {
	var (
		passphrase  string
		format      string
		deleteAfter bool
	)

	cmd := &cobra.Command{
		Use:   "solve <record> [record...]",
		Short: "Recover the constant term from point records",
		Long: `Decode every point of each record and interpolate the first k of them
at x = 0.

Sealed records (written by 'generate --passphrase') are opened with
--passphrase, or with a prompt when running on a terminal.

With --delete-after every record that was solved is overwritten and removed
once its value has been printed. Records that failed are left in place.`,
		Example: `  # Recover the secret from a record
  polyrecover solve testcase.json

  # Several records, hex output
  polyrecover solve --format hex a.json b.json

  # Machine readable output
  polyrecover solve --json testcase.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.log.Sync() //nolint:errcheck

			if cmd.Flags().Changed("format") {
				if err := validation.ValidateOutputFormat(format); err != nil {
					return err
				}
				env.cfg.Output.Format = format
			}

			pass := []byte(passphrase)
			defer func() { secure.Zero(pass) }()

			var (
				failures *multierror.Error
				results  []solveResult
			)
			prompt := passphrasePrompt{
				in:          cmd.InOrStdin(),
				out:         cmd.ErrOrStderr(),
				interactive: isTerminal(cmd.InOrStdin()),
			}
			for _, path := range args {
				log := env.log.WithRecord(path)
				res, err := solveFile(log, storage.NewOSRecordStore(path), &pass, prompt)
				if err != nil {
					log.Errorw("failed to recover constant term", "error", err)
					failures = multierror.Append(failures, fmt.Errorf("%s: %w", path, err))
					continue
				}
				log.Infow("recovered constant term", "k", res.Threshold, "points", res.Points, "bits", res.Bits)
				results = append(results, res)
			}

			if err := printSolveResults(cmd.OutOrStdout(), env.cfg.Output.Format, results, len(args) > 1); err != nil {
				return err
			}
			for _, r := range results {
				secure.ZeroInt(r.value)
			}

			if deleteAfter {
				for _, r := range results {
					if err := storage.NewOSRecordStore(r.Record).Delete(); err != nil {
						failures = multierror.Append(failures, fmt.Errorf("%s: failed to delete record: %w", r.Record, err))
						continue
					}
					env.log.WithRecord(r.Record).Infow("record deleted")
				}
			}

			return failures.ErrorOrNil()
		},
	}

	cmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "Passphrase for sealed records")
	cmd.Flags().StringVarP(&format, "format", "f", "decimal", "Output format: decimal, hex or json")
	cmd.Flags().BoolVar(&deleteAfter, "delete-after", false, "Securely delete each record after it is solved")

	return cmd
}

// passphrasePrompt is where a passphrase for a sealed record is asked for.
// Without interactive, sealed records need --passphrase.
type passphrasePrompt struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

// solveFile loads and solves one record. A passphrase typed at the prompt is
// kept in pass for the remaining records.
func solveFile(log *logger.Logger, store *storage.RecordStore, pass *[]byte, prompt passphrasePrompt) (solveResult, error) {
	path := store.Path()

	sealed, err := store.Sealed()
	if err != nil {
		return solveResult{}, err
	}
	if sealed && len(*pass) == 0 {
		if !prompt.interactive {
			return solveResult{}, storage.ErrPassphraseRequired
		}
		entered, err := readPassphrase(prompt.in, prompt.out, fmt.Sprintf("Passphrase for %s: ", path))
		if err != nil {
			return solveResult{}, fmt.Errorf("failed to read passphrase: %w", err)
		}
		*pass = entered
	}

	rec, err := store.Load(*pass)
	if err != nil {
		return solveResult{}, err
	}

	log.Debugw("loaded record", "n", rec.N, "k", rec.K, "entries", len(rec.Entries))
	if rec.N != len(rec.Entries) {
		log.Debugw("declared point count differs from entries present", "n", rec.N, "entries", len(rec.Entries))
	}

	value, err := record.Solve(rec)
	if err != nil {
		return solveResult{}, err
	}

	return solveResult{
		Record:       path,
		ConstantTerm: value.String(),
		Bits:         value.BitLen(),
		Threshold:    rec.K,
		Points:       len(rec.Entries),
		value:        value,
	}, nil
}

func printSolveResults(w io.Writer, format string, results []solveResult, labelled bool) error {
	if format == "json" {
		if results == nil {
			results = []solveResult{}
		}
		return writeJSON(w, results)
	}

	for _, r := range results {
		label := ""
		if labelled {
			label = r.Record
		}
		printValue(w, label, r.value, format)
	}
	return nil
}
