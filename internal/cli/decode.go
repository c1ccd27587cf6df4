package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Davincible/polyrecover/internal/validation"
	"github.com/Davincible/polyrecover/pkg/crypto/radix"
	"github.com/spf13/cobra"
)

func NewDecodeCommand() *cobra.Command {
	var (
		base   int
		format string
	)

	cmd := &cobra.Command{
		Use:   "decode <digits|->",
		Short: "Decode a digit string in base 2-36",
		Long: `Convert a digit string in the given base to an exact integer.
Letters are case-insensitive. Use - to read the digits from stdin.`,
		Example: `  polyrecover decode --base 16 ff
  polyrecover decode -b 36 --format hex zzzzzzzzzzzzzzzz
  cat value.txt | polyrecover decode -b 7 -`,
		Args: cobra.ExactArgs(1),
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

			digits := args[0]
			if digits == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				digits = strings.Join(strings.Fields(validation.SanitizeInput(string(data))), "")
			}

			value, err := radix.Decode(digits, base)
			if err != nil {
				env.log.Debugw("decode failed", "base", base, "length", len(digits), "error", err)
				return err
			}
			env.log.Debugw("decoded value", "base", base, "digits", len(digits), "bits", value.BitLen())

			w := cmd.OutOrStdout()
			if env.cfg.Output.Format == "json" {
				return writeJSON(w, map[string]interface{}{
					"digits": digits,
					"base":   base,
					"value":  value.String(),
					"bits":   value.BitLen(),
				})
			}

			printValue(w, "", value, env.cfg.Output.Format)
			return nil
		},
	}

	cmd.Flags().IntVarP(&base, "base", "b", 10, "Base of the digit string (2-36)")
	cmd.Flags().StringVarP(&format, "format", "f", "decimal", "Output format: decimal, hex or json")

	return cmd
}
