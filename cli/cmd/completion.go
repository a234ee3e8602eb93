package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a completion script for urlpack.

Besides command and flag names, the script completes the values of
compile's --format (cjs, esm, iife), --exports (auto, named, default, none)
and --summary (table, json, yaml, none), and offers JavaScript files for
the compile entry argument.

Bash:
  $ source <(urlpack completion bash)
  $ urlpack completion bash > /etc/bash_completion.d/urlpack

Zsh (with compinit enabled):
  $ urlpack completion zsh > "${fpath[1]}/_urlpack"

Fish:
  $ urlpack completion fish > ~/.config/fish/completions/urlpack.fish

PowerShell:
  PS> urlpack completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
	},
}

// fixedValues completes a flag from a closed set of values.
func fixedValues(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func registerCompileCompletions(c *cobra.Command) {
	_ = c.RegisterFlagCompletionFunc("format", fixedValues("cjs", "esm", "iife"))
	_ = c.RegisterFlagCompletionFunc("exports", fixedValues("auto", "named", "default", "none"))
	_ = c.RegisterFlagCompletionFunc("summary", fixedValues("table", "json", "yaml", "none"))
	c.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return []string{"js", "mjs", "cjs", "jsx", "ts", "tsx"}, cobra.ShellCompDirectiveFilterFileExt
	}
}
