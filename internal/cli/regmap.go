package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rvbench/bus"
	"github.com/sarchlab/rvbench/clint"
	"github.com/sarchlab/rvbench/plic"
)

func newRegmapCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "regmap <plic|clint>",
		Short:     "Print the register map of a controller",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"plic", "clint"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			var regs []bus.Register
			switch args[0] {
			case "plic":
				regs = plic.RegisterMap(cfg.PLIC)
			case "clint":
				regs = clint.RegisterMap(cfg.CLINT)
			}

			w := cmd.OutOrStdout()
			for _, r := range regs {
				fmt.Fprintln(w, r)
			}
			return nil
		},
	}
}
