package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/contractum/internal/ir"
)

// IDInfo lists every text form of an interface id.
type IDInfo struct {
	ID       string `json:"id"`
	Base58   string `json:"base58"`
	Hex      string `json:"hex"`
	CID      string `json:"cid"`
	Mnemonic string `json:"mnemonic"`
}

// NewIDCommand creates the id command.
func NewIDCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "id <interface-id>",
		Short: "Parse an interface id and show all of its forms",
		Long: `Parse an interface id and print its normalised forms.

Accepted input: the full URN with or without the "urn:lnp-bp:" prefix,
chunked or not, with or without the mnemonic suffix, or a CIDv1.

Examples:
  contractum id urn:lnp-bp:if:6Fz9Qa-...#cactus-silver-lemon
  contractum id bafkrei...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runID(rootOpts, args[0], cmd)
		},
	}
}

func runID(opts *RootOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	id, err := parseAnyID(input)
	if err != nil {
		return outputCompileError(formatter, ErrCodeInvalidID, err.Error(), nil)
	}

	info := IDInfo{
		ID:       id.String(),
		Base58:   id.Base58(),
		Hex:      id.Hex(),
		CID:      id.CID(),
		Mnemonic: id.Mnemonic(),
	}

	if formatter.Format == "json" {
		return formatter.Success(info)
	}

	w := formatter.Writer
	fmt.Fprintln(w, info.ID)
	fmt.Fprintf(w, "  base58:   %s\n", info.Base58)
	fmt.Fprintf(w, "  hex:      %s\n", info.Hex)
	fmt.Fprintf(w, "  cid:      %s\n", info.CID)
	fmt.Fprintf(w, "  mnemonic: %s\n", info.Mnemonic)
	return nil
}

// parseAnyID accepts the URN text form or a CID. The URN parse error is
// reported when neither form matches.
func parseAnyID(input string) (ir.IfaceID, error) {
	id, err := ir.ParseIfaceID(input)
	if err == nil {
		return id, nil
	}
	if fromCID, cidErr := ir.IfaceIDFromCID(input); cidErr == nil {
		return fromCID, nil
	}
	return ir.IfaceID{}, err
}
