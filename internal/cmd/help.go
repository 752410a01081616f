package cmd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/autoprompter/internal/ui"
)

// helpRule recolors every match of re in the rendered help text.
type helpRule struct {
	re     *regexp.Regexp
	render func(m []string) string
}

var (
	defaultValueRE = regexp.MustCompile(`\(default[^)]*\)`)
	quotedCmdRE    = regexp.MustCompile(`'([a-z][a-z0-9 -]+)'`)
)

var helpRules = []helpRule{
	{
		// "Dispatch:" and the other command group titles.
		re:     regexp.MustCompile(`(?m)^([A-Z][A-Za-z &]+:)[ \t]*$`),
		render: func(m []string) string { return ui.RenderAccent(m[1]) },
	},
	{
		re:     regexp.MustCompile(`(?m)^(Usage|Flags|Global Flags|Examples|Aliases|Available Commands|Exit codes):`),
		render: func(m []string) string { return ui.RenderAccent(m[0]) },
	},
	{
		// "  run         Dispatch prompts ..."
		re: regexp.MustCompile(`(?m)^(  )([a-z][a-z0-9-]*)(\s{2,})(.*)$`),
		render: func(m []string) string {
			return m[1] + ui.RenderBold(m[2]) + m[3] + boldCommandRefs(m[4])
		},
	},
	{
		// "  -n, --limit int   Number of runs (default 10)"
		re: regexp.MustCompile(`(?m)^(\s+)(-\w, --[\w-]+|--[\w-]+)( [a-z]+)?(\s+.*)?$`),
		render: func(m []string) string {
			typ := m[3]
			if typ != "" {
				typ = " " + ui.RenderMuted(strings.TrimSpace(typ))
			}
			return m[1] + ui.RenderBold(m[2]) + typ + defaultValueRE.ReplaceAllStringFunc(m[4], ui.RenderMuted)
		},
	},
}

// colorizeHelpOutput applies helpRules in order. Text outside the matches
// is left untouched.
func colorizeHelpOutput(help string) string {
	for _, rule := range helpRules {
		help = rule.re.ReplaceAllStringFunc(help, func(match string) string {
			return rule.render(rule.re.FindStringSubmatch(match))
		})
	}
	return help
}

// boldCommandRefs bolds 'ap run' style references inside a description.
func boldCommandRefs(text string) string {
	return quotedCmdRE.ReplaceAllStringFunc(text, func(match string) string {
		return "'" + ui.RenderBold(strings.Trim(match, "'")) + "'"
	})
}

func colorizedHelpFunc(cmd *cobra.Command, _ []string) {
	intro := cmd.Long
	if intro == "" {
		intro = cmd.Short
	}
	var b strings.Builder
	if intro != "" {
		b.WriteString(intro)
		b.WriteString("\n\n")
	}
	b.WriteString(cmd.UsageString())
	fmt.Fprint(cmd.OutOrStdout(), colorizeHelpOutput(b.String()))
}

func init() {
	rootCmd.SetHelpFunc(colorizedHelpFunc)
}
